// Package console handles the interactive terminal: reading lines
// without blocking cancellation, yes/no confirmations, and optional
// ANSI color.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ErrClosed is returned once the input reaches end of file.
var ErrClosed = errors.New("console input closed")

// Style is an ANSI SGR sequence applied to a line of output.
type Style string

const (
	Plain   Style = ""
	Prompt  Style = "\033[34m"
	Reply   Style = "\033[36m"
	Hint    Style = "\033[33m"
	Success Style = "\033[32m"
	Failure Style = "\033[31m"
	Code    Style = "\033[35m"
	Bold    Style = "\033[1m"

	reset = "\033[0m"
)

// Color modes accepted by [ColorEnabled].
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ColorEnabled decides whether output to w should be colored. In auto
// mode color is used only when w is a terminal and NO_COLOR is unset.
func ColorEnabled(mode string, w io.Writer) bool {
	switch {
	case strings.EqualFold(mode, ColorAlways):
		return true
	case strings.EqualFold(mode, ColorNever):
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type line struct {
	text string
	err  error
}

// Console reads user input line by line and writes styled output.
type Console struct {
	in    io.Reader
	out   io.Writer
	color bool

	start sync.Once
	lines chan line
}

// New creates a console reading from in and writing to out.
func New(in io.Reader, out io.Writer, color bool) *Console {
	return &Console{
		in:    in,
		out:   out,
		color: color,
		lines: make(chan line),
	}
}

// readLoop feeds lines from the input to c.lines until the input ends.
// It runs on its own goroutine so a blocked read never holds up
// cancellation.
func (c *Console) readLoop() {
	defer close(c.lines)
	r := bufio.NewReader(c.in)
	for {
		s, err := r.ReadString('\n')
		if s != "" {
			c.lines <- line{text: strings.TrimRight(s, "\r\n")}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.lines <- line{err: err}
			}
			return
		}
	}
}

// ReadLine shows prompt and waits for the next line of input or for ctx
// to be done. It returns ErrClosed at end of input.
func (c *Console) ReadLine(ctx context.Context, prompt string) (string, error) {
	c.start.Do(func() { go c.readLoop() })

	if prompt != "" {
		fmt.Fprint(c.out, c.Paint(Prompt, prompt))
	}

	select {
	case l, ok := <-c.lines:
		if !ok {
			return "", ErrClosed
		}
		return l.text, l.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Confirm asks a yes/no question. Any answer starting with "y" (in any
// case) counts as yes.
func (c *Console) Confirm(ctx context.Context, question string) (bool, error) {
	fmt.Fprint(c.out, c.Paint(Hint, question+" (yes/no): "))
	answer, err := c.ReadLine(ctx, "")
	if err != nil {
		return false, err
	}
	return IsYes(answer), nil
}

// IsYes reports whether answer is an affirmative reply.
func IsYes(answer string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y")
}

// Printf writes a formatted line in the given style.
func (c *Console) Printf(style Style, format string, args ...any) {
	fmt.Fprintln(c.out, c.Paint(style, fmt.Sprintf(format, args...)))
}

// Println writes text in the given style followed by a newline.
func (c *Console) Println(style Style, text string) {
	fmt.Fprintln(c.out, c.Paint(style, text))
}

// Paint returns s wrapped in style when color is enabled.
func (c *Console) Paint(style Style, s string) string {
	if !c.color || style == Plain {
		return s
	}
	return string(style) + s + reset
}

package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestReadLine(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader("hello\r\nsecond\nlast"), &out, false)
	ctx := context.Background()

	for _, want := range []string{"hello", "second", "last"} {
		got, err := c.ReadLine(ctx, "You: ")
		if err != nil {
			t.Fatalf("ReadLine: %v", err)
		}
		if got != want {
			t.Errorf("ReadLine = %q, want %q", got, want)
		}
	}

	if _, err := c.ReadLine(ctx, "You: "); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadLine at EOF error = %v, want ErrClosed", err)
	}
	if !strings.HasPrefix(out.String(), "You: ") {
		t.Errorf("prompt not written: %q", out.String())
	}
}

func TestReadLine_Cancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	c := New(pr, io.Discard, false)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		_, err := c.ReadLine(ctx, "")
		errc <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ReadLine did not return after cancellation")
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"Y\n", true},
		{"  yep  \n", true},
		{"no\n", false},
		{"\n", false},
		{"sure\n", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		c := New(strings.NewReader(tt.input), &out, false)
		got, err := c.Confirm(context.Background(), "Really?")
		if err != nil {
			t.Fatalf("Confirm(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if out.String() != "Really? (yes/no): " {
			t.Errorf("question written as %q", out.String())
		}
	}
}

func TestConfirm_EOF(t *testing.T) {
	c := New(strings.NewReader(""), io.Discard, false)
	if _, err := c.Confirm(context.Background(), "Exit?"); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestPaint(t *testing.T) {
	var out bytes.Buffer
	New(nil, &out, true).Println(Failure, "boom")
	if out.String() != "\033[31mboom\033[0m\n" {
		t.Errorf("colored output = %q", out.String())
	}

	out.Reset()
	New(nil, &out, false).Printf(Failure, "boom %d", 2)
	if out.String() != "boom 2\n" {
		t.Errorf("plain output = %q", out.String())
	}
}

func TestColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	if !ColorEnabled(ColorAlways, &buf) {
		t.Error("always should enable color")
	}
	if ColorEnabled(ColorNever, &buf) {
		t.Error("never should disable color")
	}
	if ColorEnabled(ColorAuto, &buf) {
		t.Error("auto should disable color for a non-terminal writer")
	}
	if !ColorEnabled("ALWAYS", &buf) || ColorEnabled("Never", &buf) {
		t.Error("color mode should match case-insensitively")
	}
}

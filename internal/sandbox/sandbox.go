// Package sandbox runs model-authored code in a hermetic Starlark
// interpreter.
//
// Code sees only an allow-listed set of built-ins. There is no load
// statement and no access to the filesystem, network or processes.
// Output from print is captured per call and returned as text.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Allowed lists the built-ins visible to sandboxed code.
var Allowed = []string{
	"None", "True", "False",
	"print", "len", "range", "str", "int", "float", "bool",
	"list", "dict", "tuple", "set", "type", "zip",
	"sum", "min", "max", "abs", "round",
	"enumerate", "sorted", "reversed", "any", "all", "repr",
}

// Config configures the executor.
type Config struct {
	// MaxSteps bounds the number of interpreter steps per run.
	// Zero means no limit.
	MaxSteps uint64

	// MaxOutputBytes bounds the captured output returned.
	MaxOutputBytes int
}

// DefaultConfig returns the default limits.
func DefaultConfig() Config {
	return Config{
		MaxSteps:       10_000_000,
		MaxOutputBytes: 100 * 1024,
	}
}

// Executor runs code snippets. It holds no per-run state and is safe
// for concurrent use.
type Executor struct {
	maxSteps       uint64
	maxOutputBytes int
	predeclared    starlark.StringDict
	logger         *slog.Logger
}

// New creates an executor.
func New(cfg Config, logger *slog.Logger) *Executor {
	if cfg.MaxOutputBytes == 0 {
		cfg.MaxOutputBytes = DefaultConfig().MaxOutputBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		maxSteps:       cfg.MaxSteps,
		maxOutputBytes: cfg.MaxOutputBytes,
		predeclared:    environment(),
		logger:         logger,
	}
}

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Execute runs code and returns everything it printed. When the code
// fails, the returned text is the output captured so far followed by
// "An error occurred during code execution: <message>". Execute never
// panics and never returns an error.
func (e *Executor) Execute(ctx context.Context, code string) (out string) {
	var buf strings.Builder
	thread := &starlark.Thread{
		Name: "sandbox",
		Print: func(_ *starlark.Thread, msg string) {
			buf.WriteString(msg)
			buf.WriteByte('\n')
		},
	}
	if e.maxSteps > 0 {
		thread.SetMaxExecutionSteps(e.maxSteps)
	}

	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("sandbox panicked", "panic", r, "stack", string(debug.Stack()))
			out = e.fault(&buf, fmt.Errorf("%v", r))
		}
	}()

	_, err := starlark.ExecFileOptions(fileOptions, thread, "<code>", code, e.predeclared)
	if err != nil {
		e.logger.Debug("sandboxed code failed", "error", err, "steps", thread.ExecutionSteps())
		return e.fault(&buf, err)
	}
	e.logger.Debug("sandboxed code finished", "steps", thread.ExecutionSteps())
	return truncate(buf.String(), e.maxOutputBytes)
}

func (e *Executor) fault(buf *strings.Builder, err error) string {
	msg := err.Error()
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		msg = evalErr.Msg
	}
	return truncate(buf.String(), e.maxOutputBytes) + "An error occurred during code execution: " + msg
}

// environment builds the predeclared names. Universe built-ins outside
// Allowed are shadowed by stubs that fail when called.
func environment() starlark.StringDict {
	allowed := make(map[string]bool, len(Allowed))
	for _, name := range Allowed {
		allowed[name] = true
	}

	env := starlark.StringDict{
		"sum":   starlark.NewBuiltin("sum", builtinSum),
		"round": starlark.NewBuiltin("round", builtinRound),
	}
	for name := range starlark.Universe {
		if !allowed[name] {
			env[name] = starlark.NewBuiltin(name, denied)
		}
	}
	return env
}

func denied(_ *starlark.Thread, b *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	return nil, fmt.Errorf("%s is not allowed in the sandbox", b.Name())
}

// builtinSum implements sum(iterable, start=0).
func builtinSum(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var iterable starlark.Iterable
	var start starlark.Value = starlark.MakeInt(0)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "iterable", &iterable, "start?", &start); err != nil {
		return nil, err
	}

	iter := iterable.Iterate()
	defer iter.Done()

	acc := start
	var x starlark.Value
	for iter.Next(&x) {
		var err error
		acc, err = starlark.Binary(syntax.PLUS, acc, x)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
	}
	return acc, nil
}

// builtinRound implements round(number, ndigits=None) with round-half-
// to-even, returning an int when ndigits is omitted.
func builtinRound(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var number starlark.Value
	var ndigits starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "number", &number, "ndigits?", &ndigits); err != nil {
		return nil, err
	}

	if _, isInt := number.(starlark.Int); isInt && ndigits == starlark.None {
		return number, nil
	}

	f, ok := starlark.AsFloat(number)
	if !ok {
		return nil, fmt.Errorf("%s: got %s, want int or float", b.Name(), number.Type())
	}

	if ndigits == starlark.None {
		return starlark.NumberToInt(starlark.Float(math.RoundToEven(f)))
	}

	n, err := starlark.AsInt32(ndigits)
	if err != nil {
		return nil, fmt.Errorf("%s: ndigits: %w", b.Name(), err)
	}
	pow := math.Pow(10, float64(n))
	rounded := math.RoundToEven(f*pow) / pow
	if _, isInt := number.(starlark.Int); isInt {
		return starlark.NumberToInt(starlark.Float(rounded))
	}
	return starlark.Float(rounded), nil
}

func truncate(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	return s[:maxBytes] + "\n[... output truncated ...]\n"
}

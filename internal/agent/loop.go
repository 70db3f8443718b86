// Package agent implements the dialogue loop: it reads user input,
// asks the model how to handle it, runs tools or code on the model's
// behalf, and keeps the transcript.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync/atomic"

	"github.com/nugget/chatty/internal/config"
	"github.com/nugget/chatty/internal/console"
	"github.com/nugget/chatty/internal/intent"
	"github.com/nugget/chatty/internal/llm"
	"github.com/nugget/chatty/internal/memory"
	"github.com/nugget/chatty/internal/prompts"
	"github.com/nugget/chatty/internal/tools"
)

// User-facing failure messages.
const (
	msgCannotProcess = "Sorry, I can't process that right now. Please try again."
	msgUnreachable   = "A network error occurred after multiple attempts. Is Ollama running?"
)

// CodeRunner executes model-authored code and returns its output as
// text. *sandbox.Executor satisfies it.
type CodeRunner interface {
	Execute(ctx context.Context, code string) string
}

// SettingsSaver persists updated settings. *config.SettingsStore
// satisfies it.
type SettingsSaver interface {
	Save(config.Settings) error
}

// Config wires the loop's collaborators.
type Config struct {
	Logger        *slog.Logger
	LLM           llm.Client
	Registry      *tools.Registry
	Sandbox       CodeRunner
	Store         memory.Store
	Settings      config.Settings
	SettingsStore SettingsSaver
	Console       *console.Console
	SystemPrompt  string
}

// Loop is the dialogue orchestrator. It owns the transcript and the
// pending code fragment; both are touched only by the goroutine
// running [Loop.Run].
type Loop struct {
	logger        *slog.Logger
	llm           llm.Client
	registry      *tools.Registry
	dispatcher    *tools.Dispatcher
	sandbox       CodeRunner
	store         memory.Store
	settingsStore SettingsSaver
	console       *console.Console

	transcript  *memory.Transcript
	settings    config.Settings
	pendingCode string
	state       atomic.Int32
}

// NewLoop creates a dialogue loop.
func NewLoop(cfg Config) *Loop {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = prompts.SystemPrompt()
	}
	return &Loop{
		logger:        logger,
		llm:           cfg.LLM,
		registry:      cfg.Registry,
		dispatcher:    tools.NewDispatcher(cfg.Registry, logger),
		sandbox:       cfg.Sandbox,
		store:         cfg.Store,
		settingsStore: cfg.SettingsStore,
		console:       cfg.Console,
		transcript:    memory.NewTranscript(systemPrompt),
		settings:      cfg.Settings,
	}
}

// State reports where the loop is in the dialogue cycle. It is safe to
// call from any goroutine.
func (l *Loop) State() State {
	return State(l.state.Load())
}

func (l *Loop) setState(s State) {
	if old := State(l.state.Swap(int32(s))); old != s {
		l.logger.Log(context.Background(), config.LevelTrace, "state change", "from", old.String(), "to", s.String())
	}
}

// Settings returns the settings currently in effect.
func (l *Loop) Settings() config.Settings {
	return l.settings
}

// Transcript returns a copy of the transcript, system turn first.
func (l *Loop) Transcript() []memory.Turn {
	return l.transcript.Turns()
}

// PendingCode returns the code fragment "run code" would execute.
func (l *Loop) PendingCode() string {
	return l.pendingCode
}

// Run loads any saved history, greets the user and processes input
// until the user exits, input ends, or ctx is cancelled. The last two
// save the transcript on a best-effort basis. Run returns nil in all of
// these cases.
func (l *Loop) Run(ctx context.Context) error {
	l.loadHistory()
	l.greet()

	for {
		l.setState(StateAwaitingInput)
		input, err := l.console.ReadLine(ctx, "\nYou: ")
		if err != nil {
			return l.shutdown(err)
		}

		err = l.iterate(ctx, input)
		switch {
		case errors.Is(err, errExit):
			l.setState(StateExiting)
			return nil
		case err != nil:
			return l.shutdown(err)
		case ctx.Err() != nil:
			return l.shutdown(ctx.Err())
		}
		l.setState(StateIdle)
	}
}

func (l *Loop) greet() {
	l.console.Println(console.Plain, "Hello! I'm your conversational assistant.")
	l.console.Println(console.Plain, "I can search, write code, read/write files, or just chat.")
	l.console.Printf(console.Plain, "Type %s to see available commands.", l.console.Paint(console.Hint, "'help'"))
}

// shutdown ends the session after cancellation or end of input.
func (l *Loop) shutdown(cause error) error {
	l.setState(StateExiting)
	switch {
	case errors.Is(cause, console.ErrClosed):
		l.logger.Info("input closed, exiting")
	case errors.Is(cause, context.Canceled), errors.Is(cause, context.DeadlineExceeded):
		l.logger.Info("interrupted, exiting", "cause", cause)
	default:
		l.logger.Error("input failed, exiting", "error", cause)
	}
	l.saveHistory(false)
	l.console.Println(console.Success, "\nGoodbye!")
	return nil
}

// iterate handles one line of input. Panics are recovered here so a bad
// turn never ends the session. A non-nil error means the session should
// end.
func (l *Loop) iterate(ctx context.Context, input string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("iteration panicked",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			l.console.Println(console.Failure, msgCannotProcess)
			err = nil
		}
	}()

	if strings.TrimSpace(input) == "" {
		return nil
	}

	if cmd, ok := ParseCommand(input); ok {
		return l.runCommand(ctx, cmd)
	}
	return l.converse(ctx, input)
}

// converse sends input to the model for classification and acts on the
// resulting intent. Only cancellation is returned as an error; every
// other failure is reported to the user and the session continues.
func (l *Loop) converse(ctx context.Context, input string) error {
	l.appendTurn(memory.RoleUser, input)

	l.setState(StateClassifying)
	l.console.Println(console.Plain, "Thinking...")

	prompt := prompts.ClassificationPrompt(l.transcript.System().Content, input, l.registry.Descriptions())
	raw, err := l.llm.Generate(ctx, prompt, l.settings.ConversationTemperature, llm.FormatJSON)
	if err != nil {
		return l.modelFailed(ctx, "classification", err)
	}

	in, ok := intent.Parse(raw, l.logger)
	if !ok {
		l.console.Println(console.Failure, msgCannotProcess)
		return nil
	}
	l.logger.Debug("classified input", "intent", in.Kind())

	switch v := in.(type) {
	case intent.ToolUse:
		return l.useTool(ctx, input, v)
	case intent.Code:
		return l.reply(ctx, input, v.Query, true)
	case intent.Conversation:
		return l.reply(ctx, input, v.Query, false)
	}
	l.console.Println(console.Failure, msgCannotProcess)
	return nil
}

func (l *Loop) useTool(ctx context.Context, input string, call intent.ToolUse) error {
	l.setState(StateDispatching)
	l.logger.Info("dispatching tool", "tool", call.ToolName)

	output := l.dispatcher.Execute(ctx, call.ToolName, call.Arguments)
	if err := ctx.Err(); err != nil {
		return err
	}
	l.appendTurn(memory.RoleToolOutput, output)

	answer, err := l.llm.Generate(ctx, prompts.SummaryPrompt(input, output), l.settings.ToolTemperature, llm.FormatText)
	if err != nil {
		return l.modelFailed(ctx, "summary", err)
	}

	l.console.Println(console.Reply, "\n"+answer+"\n")
	l.appendTurn(memory.RoleAssistant, answer)
	return nil
}

// reply answers query directly. For code requests the first fenced
// code block becomes the pending code; a reply without one leaves the
// previous pending code in place.
func (l *Loop) reply(ctx context.Context, input, query string, code bool) error {
	l.setState(StateDirectReply)
	if strings.TrimSpace(query) == "" {
		query = input
	}

	answer, err := l.llm.Generate(ctx, query, l.settings.ToolTemperature, llm.FormatText)
	if err != nil {
		return l.modelFailed(ctx, "reply", err)
	}

	l.console.Println(console.Reply, "\n"+answer+"\n")
	l.appendTurn(memory.RoleAssistant, answer)

	if !code {
		return nil
	}
	if fragment, ok := intent.ExtractCode(answer); ok {
		l.pendingCode = fragment
		l.console.Printf(console.Hint, "Type '%s' to execute it.", l.console.Paint(console.Bold, "run code"))
	} else {
		l.logger.Debug("code reply had no fenced code block, keeping previous pending code")
	}
	return nil
}

// modelFailed reports a transport failure. Cancellation is passed back
// to end the session.
func (l *Loop) modelFailed(ctx context.Context, stage string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	l.logger.Error("model request failed", "stage", stage, "error", err)
	if errors.Is(err, llm.ErrUnreachable) {
		l.console.Println(console.Failure, msgUnreachable)
	}
	l.console.Println(console.Failure, msgCannotProcess)
	return nil
}

func (l *Loop) appendTurn(role memory.Role, content string) {
	if err := l.transcript.Append(role, content); err != nil {
		l.logger.Error("failed to record turn", "role", role, "error", err)
	}
}

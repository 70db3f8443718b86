package agent

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/nugget/chatty/internal/config"
	"github.com/nugget/chatty/internal/console"
	"github.com/nugget/chatty/internal/memory"
	"github.com/nugget/chatty/internal/offpath"
)

// Command is a local command handled without the model.
type Command int

const (
	CommandNone Command = iota
	CommandExit
	CommandSettings
	CommandHelp
	CommandSave
	CommandClearHistory
	CommandRunCode
)

// commandWords maps typed input to commands. Both "exit" and "quit" end
// the session.
var commandWords = map[string]Command{
	"exit":          CommandExit,
	"quit":          CommandExit,
	"settings":      CommandSettings,
	"help":          CommandHelp,
	"save":          CommandSave,
	"clear history": CommandClearHistory,
	"run code":      CommandRunCode,
}

// ParseCommand matches input against the command words. Matching is
// exact after trimming and lowercasing, so "please save" is not a
// command.
func ParseCommand(input string) (Command, bool) {
	cmd, ok := commandWords[strings.ToLower(strings.TrimSpace(input))]
	return cmd, ok
}

func (c Command) String() string {
	switch c {
	case CommandExit:
		return "exit"
	case CommandSettings:
		return "settings"
	case CommandHelp:
		return "help"
	case CommandSave:
		return "save"
	case CommandClearHistory:
		return "clear history"
	case CommandRunCode:
		return "run code"
	}
	return "none"
}

// errExit is returned by command handlers to end the session.
var errExit = errors.New("exit requested")

// runCommand executes cmd. Errors from reading the console (cancellation
// or end of input) are returned so the loop can shut down.
func (l *Loop) runCommand(ctx context.Context, cmd Command) error {
	l.logger.Debug("running command", "command", cmd.String())

	switch cmd {
	case CommandExit:
		return l.exit(ctx)
	case CommandSettings:
		return l.manageSettings(ctx)
	case CommandHelp:
		l.showHelp()
	case CommandSave:
		l.saveHistory(true)
	case CommandClearHistory:
		return l.clearHistory(ctx)
	case CommandRunCode:
		return l.runPendingCode(ctx)
	}
	return nil
}

func (l *Loop) exit(ctx context.Context) error {
	ok, err := l.console.Confirm(ctx, "Are you sure you want to exit?")
	if err != nil || !ok {
		return err
	}
	l.saveHistory(true)
	l.console.Println(console.Success, "Goodbye!")
	return errExit
}

func (l *Loop) showHelp() {
	c := l.console
	cmd := func(s string) string { return c.Paint(console.Hint, "'"+s+"'") }

	c.Println(console.Plain, "\n--- Help ---")
	c.Println(console.Plain, "I can search the web, read and write files, write code, or just chat.")
	c.Printf(console.Plain, "  Type %s or %s to end our conversation.", cmd("exit"), cmd("quit"))
	c.Printf(console.Plain, "  Type %s to customize me.", cmd("settings"))
	c.Printf(console.Plain, "  Type %s to manually save your chat.", cmd("save"))
	c.Printf(console.Plain, "  Type %s to delete our chat.", cmd("clear history"))
	c.Printf(console.Plain, "  Type %s to execute the last code I wrote.", cmd("run code"))
	c.Println(console.Plain, "---")
}

// saveHistory persists everything after the system turn. Failures are
// logged and, when announce is set, reported to the user; they never
// stop the session.
func (l *Loop) saveHistory(announce bool) {
	if err := l.store.Save(l.transcript.History()); err != nil {
		l.logger.Error("failed to save chat history", "error", err)
		if announce {
			l.console.Println(console.Failure, "Failed to save chat history.")
		}
		return
	}
	l.logger.Debug("chat history saved", "turns", l.transcript.Len()-1)
	if announce {
		l.console.Println(console.Success, "Chat history saved.")
	}
}

// loadHistory restores a saved transcript. Any problem leaves a fresh
// session.
func (l *Loop) loadHistory() {
	turns, err := l.store.Load()
	switch {
	case errors.Is(err, memory.ErrNoHistory):
		l.logger.Info("no history found, starting a new session")
		return
	case err != nil:
		l.logger.Error("failed to load chat history", "error", err)
		l.console.Println(console.Failure, "Could not load chat history. Starting a new session.")
		return
	}

	if skipped := l.transcript.Restore(turns); skipped > 0 {
		l.logger.Warn("dropped unusable turns from saved history", "skipped", skipped)
	}
	l.logger.Info("chat history loaded", "turns", l.transcript.Len()-1)
	l.console.Println(console.Success, "Chat history loaded.")
}

func (l *Loop) clearHistory(ctx context.Context) error {
	ok, err := l.console.Confirm(ctx, "Clear history? Cannot be undone.")
	if err != nil || !ok {
		return err
	}

	l.transcript.Reset()
	removed, err := l.store.Remove()
	switch {
	case err != nil:
		l.logger.Error("failed to remove saved history", "error", err)
		l.console.Println(console.Failure, "History cleared for this session, but the saved copy could not be deleted.")
	case removed:
		l.console.Println(console.Success, "Chat history cleared.")
	default:
		l.console.Println(console.Success, "Chat history already empty.")
	}
	return nil
}

func (l *Loop) runPendingCode(ctx context.Context) error {
	code := l.pendingCode
	if code == "" {
		l.console.Println(console.Failure, "No code has been generated yet.")
		return nil
	}

	l.console.Println(console.Code, "\nRunning code...")
	out, err := offpath.Run(ctx, func() (string, error) {
		return l.sandbox.Execute(ctx, code), nil
	})
	if err != nil {
		return err
	}

	l.console.Println(console.Code, "\n--- Code Output ---")
	l.console.Println(console.Plain, strings.TrimRight(out, "\n"))
	l.console.Println(console.Code, "-------------------\n")
	return nil
}

// manageSettings shows the current temperatures and, if the user wants,
// reads new ones. Each value is accepted or rejected on its own; the
// settings file is written only when something actually changed.
func (l *Loop) manageSettings(ctx context.Context) error {
	c := l.console
	c.Println(console.Plain, "\n--- Current Settings ---")
	c.Printf(console.Plain, "Conversation Temperature: %g", l.settings.ConversationTemperature)
	c.Printf(console.Plain, "Search/Code Temperature: %g", l.settings.ToolTemperature)
	c.Println(console.Plain, "---")

	ok, err := c.Confirm(ctx, "Change settings?")
	if err != nil || !ok {
		return err
	}

	c.Printf(console.Plain, "Enter new values (%g to %g). Leave blank to keep the current value.",
		config.MinTemperature, config.MaxTemperature)

	next := l.settings
	changed := false

	line, err := c.ReadLine(ctx, "New Conversation Temp: ")
	if err != nil {
		return err
	}
	if v, ok := l.parseTemperature("Conversation temperature", line, next.ConversationTemperature); ok && v != next.ConversationTemperature {
		next.ConversationTemperature = v
		changed = true
	}

	line, err = c.ReadLine(ctx, "New Search/Code Temp: ")
	if err != nil {
		return err
	}
	if v, ok := l.parseTemperature("Search/Code temperature", line, next.ToolTemperature); ok && v != next.ToolTemperature {
		next.ToolTemperature = v
		changed = true
	}

	if !changed {
		c.Println(console.Hint, "Settings were not changed.")
		return nil
	}

	l.settings = next
	l.logger.Info("settings updated",
		"conversation_temperature", next.ConversationTemperature,
		"tool_temperature", next.ToolTemperature,
	)
	if err := l.settingsStore.Save(next); err != nil {
		l.logger.Error("failed to save settings", "error", err)
		c.Println(console.Failure, "Settings updated for this session, but could not be saved.")
		return nil
	}
	c.Println(console.Success, "Settings updated successfully.")
	return nil
}

// parseTemperature validates one typed value. Blank input keeps the
// current value; every value that is not accepted is reported.
func (l *Loop) parseTemperature(label, input string, current float64) (float64, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		l.console.Printf(console.Hint, "No value entered. %s stays at %g.", label, current)
		return current, false
	}
	v, err := strconv.ParseFloat(input, 64)
	if err != nil {
		l.console.Printf(console.Failure, "%q is not a number. %s stays at %g.", input, label, current)
		return current, false
	}
	if err := config.CheckTemperature(v); err != nil {
		l.console.Printf(console.Failure, "%g is out of range. %s stays at %g.", v, label, current)
		return current, false
	}
	return v, true
}

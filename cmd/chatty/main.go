// Chatty is a single-user conversational assistant for the terminal.
//
// It talks to a local Ollama model, which decides for every message
// whether to answer directly or to call one of its tools (web search,
// file access). Code the model writes can be run in a Starlark sandbox.
// Configuration is loaded from a YAML file discovered automatically (see
// [config.DefaultSearchPaths]); without one the defaults are used.
//
// Usage:
//
//	chatty                   Start an interactive chat session
//	chatty chat              Same as above
//	chatty init [dir]        Write an example config.yaml (default: .)
//	chatty version           Print version and build information
//	chatty -o json version   Output version information as JSON
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/nugget/chatty/internal/agent"
	"github.com/nugget/chatty/internal/buildinfo"
	"github.com/nugget/chatty/internal/config"
	"github.com/nugget/chatty/internal/console"
	"github.com/nugget/chatty/internal/llm"
	"github.com/nugget/chatty/internal/memory"
	"github.com/nugget/chatty/internal/prompts"
	"github.com/nugget/chatty/internal/sandbox"
	"github.com/nugget/chatty/internal/search"
	"github.com/nugget/chatty/internal/tools"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "chatty: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// run parses args and dispatches to the selected command. It is split
// from main so tests can drive the CLI with their own streams.
func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	var (
		configPath string
		outputFmt  = "text"
		command    string
		cmdArgs    []string
	)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-config" || arg == "--config":
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a path", arg)
			}
			i++
			configPath = args[i]
		case strings.HasPrefix(arg, "-config="):
			configPath = strings.TrimPrefix(arg, "-config=")
		case strings.HasPrefix(arg, "--config="):
			configPath = strings.TrimPrefix(arg, "--config=")
		case arg == "-o" || arg == "--output":
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a format", arg)
			}
			i++
			outputFmt = args[i]
		case strings.HasPrefix(arg, "-o="):
			outputFmt = strings.TrimPrefix(arg, "-o=")
		case strings.HasPrefix(arg, "--output="):
			outputFmt = strings.TrimPrefix(arg, "--output=")
		case arg == "-h" || arg == "-help" || arg == "--help":
			return printUsage(stdout)
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			command = arg
			cmdArgs = args[i+1:]
			i = len(args)
		}
	}

	switch outputFmt {
	case "text", "json":
	default:
		return fmt.Errorf("unknown output format %q (valid: text, json)", outputFmt)
	}

	switch command {
	case "", "chat":
		return runChat(ctx, stdin, stdout, stderr, configPath)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "version":
		return runVersion(stdout, outputFmt)
	case "help":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.BuildInfo()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range buildinfo.Keys {
		fmt.Fprintf(w, "  %-12s %s\n", k+":", info[k])
	}
	return nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Chatty - conversational assistant with web search, file access and code execution")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: chatty [flags] [command] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  chat         Start an interactive session (default)")
	fmt.Fprintln(w, "  init [dir]   Write an example config.yaml (default: .)")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/chatty/config.yaml, /etc/chatty/config.yaml")
	return nil
}

// runChat wires the collaborators from configuration and runs the
// dialogue loop until the user exits, input ends, or ctx is cancelled.
func runChat(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, configPath string) error {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory %s: %w", cfg.DataDir, err)
	}

	logOut, closeLog, err := cfg.OpenLogOutput(stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := config.NewLogger(logOut, level, cfg.LogFormat).With("session", uuid.NewString())
	logger.Info("Chatty starting", "version", buildinfo.Version, "config", cfgPath)

	client := llm.NewOllamaClient(cfg.Models.OllamaURL, cfg.Models.Default, logger)
	probe(ctx, client, logger)

	registry := tools.NewRegistry(
		tools.NewSearchTool(newSearchManager(cfg.Search), cfg.Search.Count, logger),
		tools.NewFileTools(cfg.Workspace.Root()),
	)

	sandboxCfg := sandbox.DefaultConfig()
	sandboxCfg.MaxSteps = cfg.Sandbox.MaxSteps

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close history store", "error", err)
		}
	}()

	settingsStore := config.NewSettingsStore(cfg.DataPath(cfg.SettingsFile), logger)
	settings, err := settingsStore.Load()
	if err != nil {
		logger.Warn("failed to load settings, using defaults", "error", err)
	}

	loop := agent.NewLoop(agent.Config{
		Logger:        logger,
		LLM:           client,
		Registry:      registry,
		Sandbox:       sandbox.New(sandboxCfg, logger),
		Store:         store,
		Settings:      settings,
		SettingsStore: settingsStore,
		Console:       console.New(stdin, stdout, console.ColorEnabled(cfg.Color, stdout)),
		SystemPrompt:  prompts.SystemPrompt(),
	})
	return loop.Run(ctx)
}

// probe checks that the model backend answers. A failure is only
// logged: the backend may come up while the user is typing.
func probe(ctx context.Context, client *llm.OllamaClient, logger *slog.Logger) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		logger.Warn("model backend not reachable", "model", client.Model(), "error", err)
		return
	}
	logger.Debug("model backend reachable", "model", client.Model())
}

// newSearchManager registers every configured search provider and
// selects the primary one. DuckDuckGo needs no credentials and is
// always available.
func newSearchManager(cfg config.SearchConfig) *search.Manager {
	mgr := search.NewManager(cfg.Provider)
	mgr.Register(search.NewDuckDuckGo(cfg.DuckDuckGo.URL))
	if cfg.SearXNG.Configured() {
		mgr.Register(search.NewSearXNG(cfg.SearXNG.URL))
	}
	if cfg.Brave.Configured() {
		mgr.Register(search.NewBrave(cfg.Brave.APIKey))
	}
	return mgr
}

// openStore opens the configured transcript backend.
func openStore(cfg *config.Config) (memory.Store, error) {
	path := cfg.DataPath(cfg.History.Path)
	switch cfg.History.Backend {
	case "sqlite":
		s, err := memory.NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("open history database: %w", err)
		}
		return s, nil
	default:
		return memory.NewFileStore(path), nil
	}
}

// loadConfig locates and parses the YAML configuration file. If explicit
// is non-empty, that exact path is used (and must exist). Otherwise
// [config.FindConfig] searches the default locations, and when nothing
// is found the built-in defaults are returned with an empty path.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if errors.Is(err, config.ErrNoConfig) {
		return config.Default(), "", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nugget/chatty/internal/config"
	"github.com/nugget/chatty/internal/memory"
)

func TestRunVersion_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := run(context.Background(), strings.NewReader(""), &buf, &buf, []string{"version"}); err != nil {
		t.Fatalf("run version: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "Chatty ") {
		t.Errorf("output should start with build summary, got %q", out)
	}
	for _, k := range []string{"version:", "go_version:", "arch:"} {
		if !strings.Contains(out, k) {
			t.Errorf("output missing %q:\n%s", k, out)
		}
	}
}

func TestRunVersion_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := run(context.Background(), strings.NewReader(""), &buf, &buf, []string{"-o", "json", "version"}); err != nil {
		t.Fatalf("run -o json version: %v", err)
	}
	var info map[string]string
	if err := json.Unmarshal(buf.Bytes(), &info); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if info["version"] == "" {
		t.Errorf("version missing from %v", info)
	}
}

func TestRun_Usage(t *testing.T) {
	for _, args := range [][]string{{"-h"}, {"--help"}, {"help"}} {
		var buf bytes.Buffer
		if err := run(context.Background(), strings.NewReader(""), &buf, &buf, args); err != nil {
			t.Errorf("run %v: %v", args, err)
			continue
		}
		if !strings.Contains(buf.String(), "Usage: chatty") {
			t.Errorf("run %v: usage not printed:\n%s", args, buf.String())
		}
	}
}

func TestRun_ArgumentErrors(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--bogus"}, "unknown flag: --bogus"},
		{[]string{"-o", "xml", "version"}, `unknown output format "xml"`},
		{[]string{"-config"}, "-config requires a path"},
		{[]string{"-o"}, "-o requires a format"},
		{[]string{"dance"}, "unknown command: dance"},
		{[]string{"-config", "/nonexistent/chatty.yaml"}, "config file not found"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		err := run(context.Background(), strings.NewReader(""), &buf, &buf, tt.args)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("run %v: err = %v, want containing %q", tt.args, err, tt.want)
		}
	}
}

func TestRunInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chatty")
	var buf bytes.Buffer

	if err := runInit(&buf, dir); err != nil {
		t.Fatalf("runInit: %v", err)
	}
	path := filepath.Join(dir, "config.yaml")
	if !strings.Contains(buf.String(), "Wrote "+path) {
		t.Errorf("output = %q", buf.String())
	}

	cfg, cfgPath, err := loadConfig(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfgPath != path {
		t.Errorf("cfgPath = %q, want %q", cfgPath, path)
	}
	if cfg.Search.Provider != "duckduckgo" {
		t.Errorf("search provider = %q, want duckduckgo", cfg.Search.Provider)
	}

	if err := os.WriteFile(path, []byte("log_level: debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	if err := runInit(&buf, dir); err != nil {
		t.Fatalf("second runInit: %v", err)
	}
	if !strings.Contains(buf.String(), "already exists") {
		t.Errorf("output = %q", buf.String())
	}
	data, _ := os.ReadFile(path)
	if string(data) != "log_level: debug\n" {
		t.Errorf("existing config overwritten: %q", data)
	}
}

func TestNewSearchManager(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SearchConfig
		primary string
		want    []string
	}{
		{
			name:    "keyless only",
			cfg:     config.SearchConfig{Provider: "duckduckgo"},
			primary: "duckduckgo",
			want:    []string{"duckduckgo"},
		},
		{
			name: "all configured",
			cfg: config.SearchConfig{
				Provider: "brave",
				SearXNG:  config.SearXNGConfig{URL: "http://searx.local"},
				Brave:    config.BraveConfig{APIKey: "k"},
			},
			primary: "brave",
			want:    []string{"brave", "duckduckgo", "searxng"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := newSearchManager(tt.cfg)
			if mgr.Primary() != tt.primary {
				t.Errorf("Primary() = %q, want %q", mgr.Primary(), tt.primary)
			}
			if got := mgr.Providers(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Providers() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpenStore(t *testing.T) {
	for _, backend := range []string{"json", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.Default()
			cfg.DataDir = t.TempDir()
			cfg.History.Backend = backend
			cfg.History.Path = "history." + backend

			store, err := openStore(cfg)
			if err != nil {
				t.Fatalf("openStore: %v", err)
			}
			defer store.Close()

			turns := []memory.Turn{{Role: memory.RoleUser, Content: "hello"}}
			if err := store.Save(turns); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if _, err := os.Stat(filepath.Join(cfg.DataDir, cfg.History.Path)); err != nil {
				t.Errorf("history not written under data_dir: %v", err)
			}
		})
	}
}

// fakeOllama answers /api/generate with a CONVERSATION intent for
// JSON-format requests and a fixed reply otherwise.
func fakeOllama(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			fmt.Fprint(w, `{"models": []}`)
		case "/api/generate":
			var req struct {
				Prompt string `json:"prompt"`
				Format string `json:"format"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			text := reply
			if req.Format == "json" {
				text = `{"type": "CONVERSATION", "query": "say hello"}`
			}
			json.NewEncoder(w).Encode(map[string]any{"model": "test", "response": text, "done": true})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunChat_EndToEnd(t *testing.T) {
	srv := fakeOllama(t, "Hello from the model")
	dataDir := t.TempDir()
	cfgPath := filepath.Join(dataDir, "config.yaml")
	cfgYAML := fmt.Sprintf("models:\n  ollama_url: %s\ndata_dir: %s\ncolor: never\n", srv.URL, dataDir)
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	stdin := strings.NewReader("hi there\nexit\nyes\n")
	if err := run(context.Background(), stdin, &stdout, &stderr, []string{"-config", cfgPath}); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{"Hello! I'm your conversational assistant.", "Hello from the model", "Goodbye!"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}

	turns, err := memory.NewFileStore(filepath.Join(dataDir, "chat_history.json")).Load()
	if err != nil {
		t.Fatalf("history not saved: %v", err)
	}
	want := []memory.Turn{
		{Role: memory.RoleUser, Content: "hi there"},
		{Role: memory.RoleAssistant, Content: "Hello from the model"},
	}
	if !reflect.DeepEqual(turns, want) {
		t.Errorf("saved turns = %#v, want %#v", turns, want)
	}
}

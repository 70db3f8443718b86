// Package intent interprets model replies as structured actions.
//
// The classifier prompt asks the model for a JSON object such as
//
//	{"type": "TOOL_USE", "tool_name": "google_search", "arguments": {"query": "..."}}
//	{"type": "CODE", "query": "write a fizzbuzz"}
//	{"type": "CONVERSATION", "query": "how are you?"}
//
// Small local models often wrap that object in a ```json fence or add
// prose around it. [Parse] accepts both the bare document and the first
// json-labelled fenced block; everything else is "no intent".
package intent

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
)

// Intent is one of [ToolUse], [Code] or [Conversation].
type Intent interface {
	// Kind returns the wire type tag.
	Kind() string
	isIntent()
}

// Wire type tags.
const (
	KindToolUse      = "TOOL_USE"
	KindCode         = "CODE"
	KindConversation = "CONVERSATION"
)

// ToolUse asks for a registered tool to be run.
type ToolUse struct {
	ToolName  string
	Arguments map[string]any
}

// Code asks for a reply containing a runnable code fragment.
type Code struct {
	Query string
}

// Conversation asks for a plain chat reply.
type Conversation struct {
	Query string
}

func (ToolUse) Kind() string      { return KindToolUse }
func (Code) Kind() string         { return KindCode }
func (Conversation) Kind() string { return KindConversation }

func (ToolUse) isIntent()      {}
func (Code) isIntent()         {}
func (Conversation) isIntent() {}

// wireIntent is the JSON shape produced by the classifier.
type wireIntent struct {
	Type      string          `json:"type"`
	ToolName  string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
	Query     string          `json:"query"`
}

// Parse decodes raw as an Intent. It first tries the whole text, then the
// first fenced block labelled json. It returns false when neither yields
// a recognizable intent; it never panics.
func Parse(raw string, logger *slog.Logger) (Intent, bool) {
	if logger == nil {
		logger = slog.Default()
	}

	if in, ok := decode([]byte(strings.TrimSpace(raw))); ok {
		return in, true
	}
	if block, ok := ExtractFenced(raw, "json"); ok {
		if in, ok := decode([]byte(block)); ok {
			return in, true
		}
	}

	logger.Warn("failed to parse intent from model reply", "reply_len", len(raw))
	logger.Debug("unparseable model reply", "reply", raw)
	return nil, false
}

func decode(data []byte) (Intent, bool) {
	if len(data) == 0 || data[0] != '{' {
		return nil, false
	}

	var w wireIntent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, false
	}

	switch strings.ToUpper(strings.TrimSpace(w.Type)) {
	case KindToolUse:
		name := strings.TrimSpace(w.ToolName)
		if name == "" {
			return nil, false
		}
		args := map[string]any{}
		if trimmed := bytes.TrimSpace(w.Arguments); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
			if err := json.Unmarshal(trimmed, &args); err != nil {
				return nil, false
			}
			if args == nil {
				args = map[string]any{}
			}
		}
		return ToolUse{ToolName: name, Arguments: args}, true
	case KindCode:
		return Code{Query: w.Query}, true
	case KindConversation:
		return Conversation{Query: w.Query}, true
	default:
		return nil, false
	}
}

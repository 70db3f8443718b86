package prompts

import (
	"fmt"
	"strings"

	"github.com/nugget/chatty/internal/tools"
)

const classifyTemplate = `%s

Determine the best action for this user input: '%s'

Available tools:
%s
Reply with a single JSON object and nothing else, in exactly one of these shapes:

{"type": "TOOL_USE", "tool_name": "<tool name>", "arguments": {<tool arguments>}}
{"type": "CODE", "query": "<a request asking for the program to write>"}
{"type": "CONVERSATION", "query": "<the message to answer>"}

Use TOOL_USE when one of the tools is needed, CODE when the user wants a program
written, and CONVERSATION for everything else.`

// ClassificationPrompt asks the model to pick an action for the user's
// input. The reply is parsed by the intent package.
func ClassificationPrompt(system, input string, descs []tools.Description) string {
	var b strings.Builder
	for _, d := range descs {
		fmt.Fprintf(&b, "- %s: %s\n", d.Name, d.Text)
	}
	if b.Len() == 0 {
		b.WriteString("(none)\n")
	}
	return fmt.Sprintf(classifyTemplate, system, input, b.String())
}

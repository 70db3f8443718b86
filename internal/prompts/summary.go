package prompts

import "fmt"

// SummaryPrompt asks the model to turn raw tool output into an answer
// for the user.
func SummaryPrompt(input, toolOutput string) string {
	return fmt.Sprintf("User: %s\nTool Output: %s", input, toolOutput)
}

package backend

import "fmt"

// systemPrompt is sent by the generators that talk to a model directly.
// The chatr server builds its own.
const systemPrompt = `You are ChatR, an assistant for the R programming language.
Answer with a short explanation followed by R code in a single fenced block tagged r.
Do not include console output in code blocks.`

const codePrompt = "Write %s R code for the following task.\n\n%s"

// userPrompt turns req into the user message for a direct model call.
func userPrompt(req Request) string {
	prompt := req.Query
	if req.Mode != "" {
		prompt = fmt.Sprintf(codePrompt, req.Mode, req.Query)
	}
	if req.EnvironmentContext != "" {
		prompt += "\n\nThe R session currently has:\n" + req.EnvironmentContext
	}
	return prompt
}

package memory

import (
	"context"
	"strings"
)

// Completer is the text-generation call the summarizer delegates to.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

const summarySystemPrompt = "You maintain a concise running summary of a conversation between a user and a career assistant."

const summaryPromptTemplate = `Progressively summarize the lines of conversation provided, adding onto the previous summary and returning a new summary. Keep names, roles, locations and goals the user mentioned.

Current summary:
{summary}

New lines of conversation:
{lines}

New summary:`

// LLMSummarizer produces running summaries through a Completer.
type LLMSummarizer struct {
	Completer Completer
}

func (s LLMSummarizer) Summarize(ctx context.Context, summary string, messages []Message) (string, error) {
	var lines strings.Builder
	for _, m := range messages {
		lines.WriteString(speaker(m.Role))
		lines.WriteString(": ")
		lines.WriteString(m.Content)
		lines.WriteString("\n")
	}
	prompt := strings.NewReplacer(
		"{summary}", strings.TrimSpace(summary),
		"{lines}", strings.TrimSpace(lines.String()),
	).Replace(summaryPromptTemplate)
	return s.Completer.Complete(ctx, summarySystemPrompt, prompt)
}

package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mohammad-safakhou/careerchat/config"
	"github.com/mohammad-safakhou/careerchat/internal/helpers"
	"github.com/mohammad-safakhou/careerchat/internal/memory"
	"github.com/mohammad-safakhou/careerchat/models"
)

const emptyAnswerFallback = "I'm sorry, I couldn't find an answer to that question."

// Retriever returns up to k chunks ordered by descending relevance.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]models.KnowledgeChunk, error)
}

// Completer is the text generation service.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// chainResult is the generated answer and the chunks that made it into the prompt.
type chainResult struct {
	Answer string
	Used   []models.KnowledgeChunk
}

// ragChain runs condense, retrieve, pack and generate for one knowledge question.
type ragChain struct {
	retriever  Retriever
	llm        Completer
	cfg        config.KnowledgeConfig
	llmTimeout time.Duration
}

func (c *ragChain) run(ctx context.Context, question string, history memory.Context) (chainResult, error) {
	standalone := question
	if c.cfg.CondenseQuestion && !history.Empty() {
		condensed, err := c.complete(ctx, renderPrompt(condensePromptTemplate, map[string]string{
			"chat_history": history.String(),
			"question":     question,
		}))
		if err != nil {
			return chainResult{}, fmt.Errorf("condense question: %w", err)
		}
		if s := strings.TrimSpace(condensed); s != "" {
			standalone = s
		}
	}

	rctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	chunks, err := c.retriever.Search(rctx, standalone, c.cfg.TopK)
	cancel()
	if err != nil {
		return chainResult{}, fmt.Errorf("retrieve: %w", err)
	}

	packed, used := packContext(chunks, c.cfg.MaxContextChars)
	historyText := history.String()
	if historyText == "" {
		historyText = "(none)"
	}
	answer, err := c.complete(ctx, renderPrompt(answerPromptTemplate, map[string]string{
		"context":      packed,
		"chat_history": historyText,
		"question":     standalone,
	}))
	if err != nil {
		return chainResult{}, fmt.Errorf("generate answer: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = emptyAnswerFallback
	}
	return chainResult{Answer: answer, Used: used}, nil
}

func (c *ragChain) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := c.withLLMTimeout(ctx)
	defer cancel()
	return c.llm.Complete(ctx, assistantSystemPrompt, prompt)
}

// withLLMTimeout bounds a generation call by the configured LLM timeout.
func (c *ragChain) withLLMTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.llmTimeout > 0 {
		return context.WithTimeout(ctx, c.llmTimeout)
	}
	return ctx, func() {}
}

// packContext renders chunks in relevance order until maxChars is reached.
// The first chunk is always used, truncated if it alone exceeds the limit.
func packContext(chunks []models.KnowledgeChunk, maxChars int) (string, []models.KnowledgeChunk) {
	var (
		b    strings.Builder
		used []models.KnowledgeChunk
	)
	for _, ch := range chunks {
		block := fmt.Sprintf("[%s / %s]\n%s", orUnknown(ch.Source), orUnknown(ch.Filename), strings.TrimSpace(ch.Text))
		sep := 0
		if b.Len() > 0 {
			sep = 2
		}
		if maxChars > 0 && b.Len()+sep+len(block) > maxChars {
			if len(used) == 0 {
				b.WriteString(helpers.TruncateRunes(block, maxChars))
				used = append(used, ch)
			}
			break
		}
		if sep > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(block)
		used = append(used, ch)
	}
	if len(used) == 0 {
		return "(no relevant documents found)", nil
	}
	return b.String(), used
}

// Package memory builds the bounded conversational context of one session: a
// window of recent messages plus a running summary of everything older.
package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/careerchat/config"
	"github.com/mohammad-safakhou/careerchat/internal/helpers"
	"github.com/mohammad-safakhou/careerchat/models"
)

// Message is one replayed or live chat message.
type Message struct {
	Role    models.Role
	Content string
}

// Summarizer folds messages into an existing running summary.
type Summarizer interface {
	Summarize(ctx context.Context, summary string, messages []Message) (string, error)
}

// TurnLister reads a session's stored turns in ascending timestamp order.
type TurnLister interface {
	ListTurns(ctx context.Context, sessionID string) ([]models.ChatTurn, error)
}

// SessionMemory is built per request and never shared across requests. The
// store stays the authoritative history; this only shapes it into a prompt.
type SessionMemory struct {
	window     int
	summarize  bool
	summarizer Summarizer
	batchChars int
	maxBacklog int

	warm     bool
	messages []Message
	recent   []Message
	pending  []Message
	summary  string
}

func New(cfg config.MemoryConfig, summarizer Summarizer) *SessionMemory {
	cfg = cfg.Normalize()
	return &SessionMemory{
		window:     cfg.Window,
		summarize:  cfg.Summarize && summarizer != nil,
		summarizer: summarizer,
		batchChars: cfg.SummaryBatchChars,
		maxBacklog: cfg.MaxBacklogChars,
	}
}

// Load creates a memory and hydrates it from the session's stored turns,
// leaving out any turn whose id is in skip.
func Load(ctx context.Context, store TurnLister, sessionID string, cfg config.MemoryConfig, summarizer Summarizer, skip ...string) (*SessionMemory, error) {
	turns, err := store.ListTurns(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session history: %w", err)
	}
	if len(skip) > 0 {
		drop := make(map[string]struct{}, len(skip))
		for _, id := range skip {
			if id != "" {
				drop[id] = struct{}{}
			}
		}
		kept := turns[:0:0]
		for _, t := range turns {
			if _, ok := drop[t.ID]; !ok {
				kept = append(kept, t)
			}
		}
		turns = kept
	}
	m := New(cfg, summarizer)
	m.Hydrate(turns)
	return m, nil
}

// Hydrate replays stored turns in order, routing user turns to the user
// channel and every other turn to the assistant channel. It runs once per
// memory and returns the number of replayed messages.
func (m *SessionMemory) Hydrate(turns []models.ChatTurn) int {
	if m.warm {
		return 0
	}
	m.warm = true
	for _, t := range turns {
		if t.Role == models.RoleUser {
			m.AddUserMessage(t.Message)
		} else {
			m.AddAssistantMessage(t.Message)
		}
	}
	return len(turns)
}

func (m *SessionMemory) AddUserMessage(text string) {
	m.add(Message{Role: models.RoleUser, Content: text})
}

func (m *SessionMemory) AddAssistantMessage(text string) {
	m.add(Message{Role: models.RoleAssistant, Content: text})
}

func (m *SessionMemory) add(msg Message) {
	m.messages = append(m.messages, msg)
	m.recent = append(m.recent, msg)
	if over := len(m.recent) - m.window; over > 0 {
		m.pending = append(m.pending, m.recent[:over]...)
		m.recent = append([]Message(nil), m.recent[over:]...)
	}
}

// Messages returns the full replayed and live transcript.
func (m *SessionMemory) Messages() []Message {
	return append([]Message(nil), m.messages...)
}

// Len is the number of messages seen.
func (m *SessionMemory) Len() int { return len(m.messages) }

// Context is the history handed to the RAG chain.
type Context struct {
	Summary string
	Recent  []Message
}

// Empty reports whether there is no history at all.
func (c Context) Empty() bool { return c.Summary == "" && len(c.Recent) == 0 }

// String renders the history as prompt text.
func (c Context) String() string {
	var b strings.Builder
	if c.Summary != "" {
		b.WriteString("Summary of earlier conversation: ")
		b.WriteString(c.Summary)
		b.WriteString("\n")
	}
	for _, msg := range c.Recent {
		b.WriteString(speaker(msg.Role))
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func speaker(r models.Role) string {
	if r == models.RoleUser {
		return "User"
	}
	return "Assistant"
}

// Context folds any overflow into the running summary and returns the
// summary with the recent window. Overflow beyond the backlog cap is dropped
// oldest first, and the rest is summarized in batches of at most batchChars
// so no summarizer prompt grows with the session. Without summarization the
// capped overflow is returned verbatim ahead of the window.
func (m *SessionMemory) Context(ctx context.Context) (Context, error) {
	if len(m.pending) > 0 {
		m.pending = capBacklog(m.pending, m.maxBacklog)
		if !m.summarize {
			recent := append(append([]Message(nil), m.pending...), m.recent...)
			return Context{Summary: m.summary, Recent: recent}, nil
		}
		for len(m.pending) > 0 {
			batch, rest := nextBatch(m.pending, m.batchChars)
			summary, err := m.summarizer.Summarize(ctx, helpers.TruncateRunes(m.summary, m.batchChars), batch)
			if err != nil {
				return Context{}, fmt.Errorf("summarize history: %w", err)
			}
			m.summary = strings.TrimSpace(summary)
			m.pending = rest
		}
	}
	return Context{Summary: m.summary, Recent: append([]Message(nil), m.recent...)}, nil
}

// capBacklog keeps the newest messages whose content fits in max bytes.
func capBacklog(msgs []Message, max int) []Message {
	if max <= 0 {
		return msgs
	}
	total := 0
	for i := len(msgs) - 1; i >= 0; i-- {
		total += len(msgs[i].Content)
		if total > max {
			return msgs[i+1:]
		}
	}
	return msgs
}

// nextBatch takes messages from the front of msgs until max bytes of content.
// A batch always holds at least one message, truncated when it alone is too long.
func nextBatch(msgs []Message, max int) (batch, rest []Message) {
	size := 0
	for i, msg := range msgs {
		if max > 0 && size+len(msg.Content) > max {
			if i == 0 {
				msg.Content = helpers.TruncateRunes(msg.Content, max)
				return []Message{msg}, msgs[1:]
			}
			return msgs[:i], msgs[i:]
		}
		size += len(msg.Content)
	}
	return msgs, nil
}

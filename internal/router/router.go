// Package router answers career questions. Each query is classified as a job
// search or a knowledge question, answered, and recorded as a user turn
// followed by an assistant turn in the conversation store.
package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/mohammad-safakhou/careerchat/config"
	"github.com/mohammad-safakhou/careerchat/internal/jobs"
	"github.com/mohammad-safakhou/careerchat/internal/memory"
	"github.com/mohammad-safakhou/careerchat/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrInternal is the only failure callers see for store, retrieval or
	// generation errors. The cause is logged, never returned.
	ErrInternal = errors.New("an unexpected error occurred")
	// ErrInvalidRequest is returned for an empty question or session id.
	ErrInvalidRequest = errors.New("question and session_id are required")
)

// ConversationStore is the durable chat log.
type ConversationStore interface {
	AppendTurn(ctx context.Context, sessionID string, role models.Role, message string) (models.ChatTurn, error)
	ListTurns(ctx context.Context, sessionID string) ([]models.ChatTurn, error)
	DeleteTurns(ctx context.Context, sessionID string) (int64, error)
}

// OfflineJobs is the static fallback job listing.
type OfflineJobs interface {
	FindByRole(role string) ([]models.JobPosting, error)
}

// Options wires a Router. Store, Jobs, Retriever and LLM are required.
type Options struct {
	Store     ConversationStore
	Jobs      jobs.Provider
	Offline   OfflineJobs
	Retriever Retriever
	LLM       Completer

	JobsConfig      config.JobsConfig
	KnowledgeConfig config.KnowledgeConfig
	MemoryConfig    config.MemoryConfig
	LLMTimeout      time.Duration

	Logger *log.Logger
	Meter  otelmetric.Meter
	Tracer trace.Tracer
}

// Router holds no per-session state; every call rebuilds session memory from the store.
type Router struct {
	logger  *log.Logger
	store   ConversationStore
	jobs    jobs.Provider
	offline OfflineJobs
	chain   *ragChain
	llm     Completer

	jobsCfg   config.JobsConfig
	memoryCfg config.MemoryConfig

	tracer        trace.Tracer
	queryCounter  otelmetric.Int64Counter
	jobCounter    otelmetric.Int64Counter
	errorsCounter otelmetric.Int64Counter
}

func New(opts Options) (*Router, error) {
	switch {
	case opts.Store == nil:
		return nil, fmt.Errorf("router: conversation store required")
	case opts.Jobs == nil:
		return nil, fmt.Errorf("router: job provider required")
	case opts.Retriever == nil:
		return nil, fmt.Errorf("router: knowledge retriever required")
	case opts.LLM == nil:
		return nil, fmt.Errorf("router: completion provider required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[ROUTER] ", log.LstdFlags)
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer("router")
	}
	r := &Router{
		logger:  logger,
		store:   opts.Store,
		jobs:    opts.Jobs,
		offline: opts.Offline,
		llm:     opts.LLM,
		chain: &ragChain{
			retriever:  opts.Retriever,
			llm:        opts.LLM,
			cfg:        opts.KnowledgeConfig.Normalize(),
			llmTimeout: opts.LLMTimeout,
		},
		jobsCfg:   opts.JobsConfig.Normalize(),
		memoryCfg: opts.MemoryConfig.Normalize(),
		tracer:    tracer,
	}
	if opts.Meter != nil {
		var err error
		r.queryCounter, err = opts.Meter.Int64Counter("careerchat_queries_total")
		if err != nil {
			logger.Printf("warn: create query counter failed: %v", err)
		}
		r.jobCounter, err = opts.Meter.Int64Counter("careerchat_job_answers_total")
		if err != nil {
			logger.Printf("warn: create job answer counter failed: %v", err)
		}
		r.errorsCounter, err = opts.Meter.Int64Counter("careerchat_query_errors_total")
		if err != nil {
			logger.Printf("warn: create error counter failed: %v", err)
		}
	}
	return r, nil
}

// ExtractRoleLocation parses a job question using the configured defaults.
func (r *Router) ExtractRoleLocation(question string) (role, location string) {
	return extractRoleLocation(question, r.jobsCfg.DefaultRole, r.jobsCfg.DefaultLocation)
}

// HandleJobQuery answers a job search. It always returns user-facing text:
// live postings when the provider has any, otherwise the offline snapshot
// filtered by role, otherwise a message saying whether the snapshot had no
// match or could not be read.
func (r *Router) HandleJobQuery(ctx context.Context, question string) string {
	role, location := r.ExtractRoleLocation(question)
	if live := r.jobs.Search(ctx, role, location, r.jobsCfg.ResultsLimit); len(live) > 0 {
		r.countJobAnswer(ctx, "live")
		return formatLiveAnswer(role, location, live)
	}

	if r.offline == nil {
		r.countJobAnswer(ctx, "offline_unavailable")
		return offlineUnavailableAnswer(role)
	}
	cached, err := r.offline.FindByRole(role)
	switch {
	case err != nil:
		r.logger.Printf("offline job cache: %v", err)
		r.countJobAnswer(ctx, "offline_unavailable")
		return offlineUnavailableAnswer(role)
	case len(cached) == 0:
		r.countJobAnswer(ctx, "offline_miss")
		return offlineMissAnswer(role)
	}
	r.countJobAnswer(ctx, "offline")
	return formatOfflineAnswer(role, cached)
}

// HandleKnowledgeQuery answers from the knowledge corpus with the session's
// history as context. Sources are the "source/filename" refs of the chunks
// that made it into the prompt, deduplicated.
func (r *Router) HandleKnowledgeQuery(ctx context.Context, question, sessionID string) (models.RouterResult, error) {
	return r.knowledgeAnswer(ctx, question, sessionID, "")
}

// knowledgeAnswer hydrates memory from the store, skipping the turn with id
// skipTurnID so the question being answered is not replayed as history.
func (r *Router) knowledgeAnswer(ctx context.Context, question, sessionID, skipTurnID string) (models.RouterResult, error) {
	mem, err := memory.Load(ctx, r.store, sessionID, r.memoryCfg, memory.LLMSummarizer{Completer: r.llm}, skipTurnID)
	if err != nil {
		return models.RouterResult{}, err
	}
	sumCtx, cancel := r.chain.withLLMTimeout(ctx)
	history, err := mem.Context(sumCtx)
	cancel()
	if err != nil {
		return models.RouterResult{}, err
	}

	res, err := r.chain.run(ctx, question, history)
	if err != nil {
		return models.RouterResult{}, err
	}
	return models.RouterResult{Answer: res.Answer, Sources: sourceRefs(res.Used)}, nil
}

// Query records the question, answers it and records the answer. A failure to
// record the question aborts before any answer is generated. Any later
// failure returns ErrInternal and no assistant turn is written.
func (r *Router) Query(ctx context.Context, question, sessionID string) (models.RouterResult, error) {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(sessionID) == "" {
		return models.RouterResult{}, ErrInvalidRequest
	}
	route := Classify(question)
	ctx, span := r.tracer.Start(ctx, "router.query", trace.WithAttributes(
		attribute.String("route", string(route)),
		attribute.String("session_id", sessionID),
	))
	defer span.End()
	if r.queryCounter != nil {
		r.queryCounter.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("route", string(route))))
	}

	userTurn, err := r.store.AppendTurn(ctx, sessionID, models.RoleUser, question)
	if err != nil {
		return models.RouterResult{}, r.fail(ctx, span, "persist_user", sessionID, err)
	}

	var result models.RouterResult
	switch route {
	case RouteJob:
		result = models.RouterResult{Answer: r.HandleJobQuery(ctx, question), Sources: []string{}}
	default:
		result, err = r.knowledgeAnswer(ctx, question, sessionID, userTurn.ID)
		if err != nil {
			return models.RouterResult{}, r.fail(ctx, span, "knowledge", sessionID, err)
		}
	}

	if _, err := r.store.AppendTurn(ctx, sessionID, models.RoleAssistant, result.Answer); err != nil {
		return models.RouterResult{}, r.fail(ctx, span, "persist_assistant", sessionID, err)
	}
	return result, nil
}

// Reset deletes every turn of the session. Resetting an empty session returns 0.
func (r *Router) Reset(ctx context.Context, sessionID string) (int64, error) {
	if strings.TrimSpace(sessionID) == "" {
		return 0, ErrInvalidRequest
	}
	n, err := r.store.DeleteTurns(ctx, sessionID)
	if err != nil {
		r.logger.Printf("reset session %s: %v", sessionID, err)
		r.countError(ctx, "reset")
		return 0, ErrInternal
	}
	return n, nil
}

// History returns the session's stored turns in order.
func (r *Router) History(ctx context.Context, sessionID string) ([]models.ChatTurn, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidRequest
	}
	turns, err := r.store.ListTurns(ctx, sessionID)
	if err != nil {
		r.logger.Printf("history session %s: %v", sessionID, err)
		r.countError(ctx, "history")
		return nil, ErrInternal
	}
	return turns, nil
}

func (r *Router) fail(ctx context.Context, span trace.Span, stage, sessionID string, err error) error {
	r.logger.Printf("query session %s failed at %s: %v", sessionID, stage, err)
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)
	r.countError(ctx, stage)
	return ErrInternal
}

func (r *Router) countError(ctx context.Context, stage string) {
	if r.errorsCounter != nil {
		r.errorsCounter.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("stage", stage)))
	}
}

func (r *Router) countJobAnswer(ctx context.Context, outcome string) {
	if r.jobCounter != nil {
		r.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func sourceRefs(chunks []models.KnowledgeChunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		ref := c.SourceRef()
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}

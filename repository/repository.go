package repository

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/careerchat/config"
	"github.com/mohammad-safakhou/careerchat/internal/store"
	"github.com/mohammad-safakhou/careerchat/models"
	"github.com/mohammad-safakhou/careerchat/repository/redis_repository"
)

// ConversationRepository is the durable, session-keyed log of chat turns.
// ListTurns returns turns in commit order; DeleteTurns reports how many were removed
// and returns 0 for a session that has none.
type ConversationRepository interface {
	AppendTurn(ctx context.Context, sessionID string, role models.Role, message string) (models.ChatTurn, error)
	ListTurns(ctx context.Context, sessionID string) ([]models.ChatTurn, error)
	DeleteTurns(ctx context.Context, sessionID string) (int64, error)
	Close() error
}

// NewConversationRepository opens the backend selected by cfg.Backend.
func NewConversationRepository(ctx context.Context, cfg config.StorageConfig) (ConversationRepository, error) {
	switch cfg.Backend {
	case config.StorageBackendPostgres:
		dsn, err := cfg.Postgres.DSN()
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := ctx, context.CancelFunc(func() {})
		if cfg.Postgres.Timeout > 0 {
			pingCtx, cancel = context.WithTimeout(ctx, cfg.Postgres.Timeout)
		}
		st, err := store.NewWithDSN(pingCtx, dsn)
		cancel()
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.StorageBackendRedis:
		c, err := redis_repository.Conn(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Timeout)
		if err != nil {
			return nil, err
		}
		return redis_repository.NewRedisConversationRepository(c), nil
	}
	return nil, fmt.Errorf("invalid repository type: %s", cfg.Backend)
}

package redis_repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/careerchat/models"
	"github.com/redis/go-redis/v9"
)

const turnKeyPrefix = "chat:"

func turnsKey(sessionID string) string { return turnKeyPrefix + sessionID + ":turns" }

// redisConversationRepository keeps one list per session. RPUSH is atomic, so
// LRANGE always observes a consistent prefix of committed turns.
type redisConversationRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisConversationRepository(client *redis.Client) *redisConversationRepository {
	return &redisConversationRepository{
		client: client,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *redisConversationRepository) AppendTurn(ctx context.Context, sessionID string, role models.Role, message string) (models.ChatTurn, error) {
	turn := models.ChatTurn{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Message:   message,
		Timestamp: r.now(),
	}
	if err := turn.Validate(); err != nil {
		return models.ChatTurn{}, err
	}

	// Marshal the turn before storing
	data, err := json.Marshal(turn)
	if err != nil {
		return models.ChatTurn{}, err
	}
	if err := r.client.RPush(ctx, turnsKey(sessionID), data).Err(); err != nil {
		return models.ChatTurn{}, fmt.Errorf("append turn: %w", err)
	}
	return turn, nil
}

func (r *redisConversationRepository) ListTurns(ctx context.Context, sessionID string) ([]models.ChatTurn, error) {
	vals, err := r.client.LRange(ctx, turnsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	turns := make([]models.ChatTurn, 0, len(vals))
	for _, val := range vals {
		var turn models.ChatTurn
		if err := json.Unmarshal([]byte(val), &turn); err != nil {
			return nil, fmt.Errorf("decode turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (r *redisConversationRepository) DeleteTurns(ctx context.Context, sessionID string) (int64, error) {
	key := turnsKey(sessionID)
	var length *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		length = pipe.LLen(ctx, key)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete turns: %w", err)
	}
	return length.Val(), nil
}

func (r *redisConversationRepository) Close() error {
	return r.client.Close()
}

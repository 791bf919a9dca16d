package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/mohammad-safakhou/careerchat/models"
)

// Store is the Postgres-backed conversation log. Every write is a single
// autocommitted statement, so concurrent appends never tear a session read.
type Store struct {
	DB *sql.DB
}

// NewWithDSN constructs the Store using an explicit Postgres DSN
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// AppendTurn persists one chat turn and returns it with its id and commit timestamp.
func (s *Store) AppendTurn(ctx context.Context, sessionID string, role models.Role, message string) (models.ChatTurn, error) {
	turn := models.ChatTurn{SessionID: sessionID, Role: role, Message: message}
	if err := turn.Validate(); err != nil {
		return models.ChatTurn{}, err
	}
	var id int64
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO chat_history (session_id, role, message) VALUES ($1,$2,$3) RETURNING id, timestamp`,
		sessionID, string(role), message,
	).Scan(&id, &turn.Timestamp)
	if err != nil {
		return models.ChatTurn{}, fmt.Errorf("append turn: %w", err)
	}
	turn.ID = strconv.FormatInt(id, 10)
	return turn, nil
}

// ListTurns returns the session's turns in ascending timestamp order.
func (s *Store) ListTurns(ctx context.Context, sessionID string) ([]models.ChatTurn, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, session_id, role, message, timestamp FROM chat_history WHERE session_id=$1 ORDER BY timestamp ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()
	var out []models.ChatTurn
	for rows.Next() {
		var (
			id   int64
			role string
			t    models.ChatTurn
		)
		if err := rows.Scan(&id, &t.SessionID, &role, &t.Message, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.ID = strconv.FormatInt(id, 10)
		t.Role = models.Role(role)
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTurns removes every turn of the session and reports how many were deleted.
func (s *Store) DeleteTurns(ctx context.Context, sessionID string) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM chat_history WHERE session_id=$1`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("delete turns: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete turns: %w", err)
	}
	return n, nil
}

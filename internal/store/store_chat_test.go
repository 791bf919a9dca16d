package store

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/mohammad-safakhou/careerchat/models"
)

func TestAppendTurn(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO chat_history \(session_id, role, message\) VALUES \(\$1,\$2,\$3\) RETURNING id, timestamp`).
		WithArgs("s1", "user", "What is the STAR method?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "timestamp"}).AddRow(int64(42), ts))

	turn, err := st.AppendTurn(context.Background(), "s1", models.RoleUser, "What is the STAR method?")
	if err != nil {
		t.Fatalf("AppendTurn: %v", err)
	}
	if turn.ID != "42" || turn.Role != models.RoleUser || !turn.Timestamp.Equal(ts) {
		t.Fatalf("unexpected turn: %+v", turn)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendTurnRejectsInvalidRole(t *testing.T) {
	st := &Store{}
	_, err := st.AppendTurn(context.Background(), "s1", "system", "hi")
	if !errors.Is(err, models.ErrInvalidTurn) {
		t.Fatalf("expected ErrInvalidTurn, got %v", err)
	}
}

func TestAppendTurnPropagatesDBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO chat_history`).WillReturnError(errors.New("connection reset"))

	st := &Store{DB: db}
	if _, err := st.AppendTurn(context.Background(), "s1", models.RoleAssistant, "answer"); err == nil {
		t.Fatal("expected error")
	}
}

func TestListTurnsOrdered(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}
	t0 := time.Now().Add(-time.Minute)

	mock.ExpectQuery(`SELECT id, session_id, role, message, timestamp FROM chat_history WHERE session_id=\$1 ORDER BY timestamp ASC, id ASC`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "role", "message", "timestamp"}).
			AddRow(int64(1), "s1", "user", "hello", t0).
			AddRow(int64(2), "s1", "assistant", "hi there", t0.Add(time.Second)))

	turns, err := st.ListTurns(context.Background(), "s1")
	if err != nil {
		t.Fatalf("ListTurns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != models.RoleUser || turns[1].Role != models.RoleAssistant {
		t.Fatalf("unexpected roles: %+v", turns)
	}
	if turns[0].ID != "1" || turns[1].Message != "hi there" {
		t.Fatalf("unexpected turns: %+v", turns)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteTurns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}

	mock.ExpectExec(`DELETE FROM chat_history WHERE session_id=\$1`).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`DELETE FROM chat_history WHERE session_id=\$1`).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := st.DeleteTurns(context.Background(), "s1")
	if err != nil {
		t.Fatalf("DeleteTurns: %v", err)
	}
	second, err := st.DeleteTurns(context.Background(), "s1")
	if err != nil {
		t.Fatalf("DeleteTurns second call: %v", err)
	}
	if first != 4 || second != 0 {
		t.Fatalf("expected 4 then 0 deletions, got %d then %d", first, second)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

package store_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/mohammad-safakhou/careerchat/internal/store"
	"github.com/mohammad-safakhou/careerchat/models"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestStorePostgresRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pgC, err := tcPostgres.RunContainer(ctx,
		tcPostgres.WithDatabase("careerchat"),
		tcPostgres.WithUsername("careerchat"),
		tcPostgres.WithPassword("careerchat"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp")),
	)
	if err != nil {
		t.Fatalf("postgres container: %v", err)
	}
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	port, err := pgC.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://careerchat:careerchat@%s:%s/careerchat?sslmode=disable", host, port.Port())

	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer st.Close()

	schema, err := os.ReadFile("../../migrations/0001_chat_history.up.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := st.DB.ExecContext(ctx, string(schema)); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	if n, err := st.DeleteTurns(ctx, "empty"); err != nil || n != 0 {
		t.Fatalf("expected 0 deletions on empty session, got %d (%v)", n, err)
	}

	if _, err := st.AppendTurn(ctx, "s1", models.RoleUser, "What is the STAR method?"); err != nil {
		t.Fatalf("append user: %v", err)
	}
	if _, err := st.AppendTurn(ctx, "s1", models.RoleAssistant, "Situation, Task, Action, Result."); err != nil {
		t.Fatalf("append assistant: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := st.AppendTurn(ctx, "s2", models.RoleUser, fmt.Sprintf("q%d", i)); err != nil {
				t.Errorf("concurrent append: %v", err)
			}
		}(i)
	}
	wg.Wait()

	turns, err := st.ListTurns(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(turns) != 2 || turns[0].Role != models.RoleUser || turns[1].Role != models.RoleAssistant {
		t.Fatalf("unexpected s1 turns: %+v", turns)
	}
	other, err := st.ListTurns(ctx, "s2")
	if err != nil {
		t.Fatalf("list s2: %v", err)
	}
	if len(other) != 8 {
		t.Fatalf("expected 8 concurrent turns, got %d", len(other))
	}

	n, err := st.DeleteTurns(ctx, "s1")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 deletions, got %d (%v)", n, err)
	}
	n, err = st.DeleteTurns(ctx, "s1")
	if err != nil || n != 0 {
		t.Fatalf("expected idempotent reset, got %d (%v)", n, err)
	}
}

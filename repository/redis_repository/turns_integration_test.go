package redis_repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mohammad-safakhou/careerchat/models"
	"github.com/mohammad-safakhou/careerchat/repository/redis_repository"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisConversationRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redisC, err := tcRedis.RunContainer(ctx, testcontainers.WithWaitStrategy(wait.ForListeningPort("6379/tcp")))
	if err != nil {
		t.Fatalf("redis container: %v", err)
	}
	defer func() { _ = redisC.Terminate(ctx) }()

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}

	client, err := redis_repository.Conn(ctx, fmt.Sprintf("%s:%s", host, port.Port()), "", 0, 5*time.Second)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	repo := redis_repository.NewRedisConversationRepository(client)
	defer repo.Close()

	if n, err := repo.DeleteTurns(ctx, "empty"); err != nil || n != 0 {
		t.Fatalf("expected 0 deletions on empty session, got %d (%v)", n, err)
	}
	if _, err := repo.AppendTurn(ctx, "s1", "system", "nope"); err == nil {
		t.Fatal("expected invalid role to be rejected")
	}

	if _, err := repo.AppendTurn(ctx, "s1", models.RoleUser, "hello"); err != nil {
		t.Fatalf("append user: %v", err)
	}
	if _, err := repo.AppendTurn(ctx, "s1", models.RoleAssistant, "hi there"); err != nil {
		t.Fatalf("append assistant: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := repo.AppendTurn(ctx, "s2", models.RoleUser, fmt.Sprintf("q%d", i)); err != nil {
				t.Errorf("concurrent append: %v", err)
			}
		}(i)
	}
	wg.Wait()

	turns, err := repo.ListTurns(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(turns) != 2 || turns[0].Message != "hello" || turns[1].Role != models.RoleAssistant {
		t.Fatalf("unexpected turns: %+v", turns)
	}
	if turns[0].ID == "" || turns[0].ID == turns[1].ID {
		t.Fatalf("expected distinct turn ids: %+v", turns)
	}
	other, err := repo.ListTurns(ctx, "s2")
	if err != nil || len(other) != 10 {
		t.Fatalf("expected 10 turns for s2, got %d (%v)", len(other), err)
	}

	n, err := repo.DeleteTurns(ctx, "s1")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 deletions, got %d (%v)", n, err)
	}
	n, err = repo.DeleteTurns(ctx, "s1")
	if err != nil || n != 0 {
		t.Fatalf("expected idempotent reset, got %d (%v)", n, err)
	}
}

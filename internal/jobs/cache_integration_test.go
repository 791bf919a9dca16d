package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mohammad-safakhou/careerchat/models"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestCachedProviderMemoizesNonEmptyResults(t *testing.T) {
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
	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	defer client.Close()

	var calls int32
	upstream := ProviderFunc(func(ctx context.Context, role, location string, limit int) []models.JobPosting {
		atomic.AddInt32(&calls, 1)
		if role == "astronaut" {
			return nil
		}
		return []models.JobPosting{{Kind: models.JobKindLive, Title: "Go Developer", Company: "Acme"}}
	})
	p := NewCachedProvider(upstream, client, time.Minute, nil)

	for i := 0; i < 3; i++ {
		jobs := p.Search(ctx, "Go Developer", "Pune", 3)
		if len(jobs) != 1 || jobs[0].Title != "Go Developer" {
			t.Fatalf("unexpected jobs: %+v", jobs)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected upstream to be called once, got %d", got)
	}

	p.Search(ctx, "astronaut", "India", 3)
	p.Search(ctx, "astronaut", "India", 3)
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected empty results to bypass the cache, got %d calls", got)
	}
}

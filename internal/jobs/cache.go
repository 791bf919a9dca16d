package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/careerchat/models"
	"github.com/redis/go-redis/v9"
)

const jobCacheKeyPrefix = "jobs:search:"

// CachedProvider memoizes non-empty live results in redis for ttl. Empty
// results are never cached so a recovering upstream is picked up on the next
// call. Cache errors are logged and otherwise ignored.
type CachedProvider struct {
	next   Provider
	client redis.Cmdable
	ttl    time.Duration
	logger *log.Logger
}

func NewCachedProvider(next Provider, client redis.Cmdable, ttl time.Duration, logger *log.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedProvider{next: next, client: client, ttl: ttl, logger: defaultLogger(logger)}
}

func cacheKey(role, location string, limit int) string {
	return fmt.Sprintf("%s%s|%s|%d", jobCacheKeyPrefix,
		strings.ToLower(strings.TrimSpace(role)), strings.ToLower(strings.TrimSpace(location)), limit)
}

func (p *CachedProvider) Search(ctx context.Context, role, location string, limit int) []models.JobPosting {
	key := cacheKey(role, location, limit)
	if val, err := p.client.Get(ctx, key).Bytes(); err == nil {
		var jobs []models.JobPosting
		if err := json.Unmarshal(val, &jobs); err == nil && len(jobs) > 0 {
			return jobs
		}
		p.logger.Printf("discarding unreadable job cache entry %s", key)
	} else if err != redis.Nil {
		p.logger.Printf("job cache read %s: %v", key, err)
	}

	jobs := p.next.Search(ctx, role, location, limit)
	if len(jobs) == 0 {
		return jobs
	}
	data, err := json.Marshal(jobs)
	if err != nil {
		return jobs
	}
	if err := p.client.Set(ctx, key, data, p.ttl).Err(); err != nil {
		p.logger.Printf("job cache write %s: %v", key, err)
	}
	return jobs
}

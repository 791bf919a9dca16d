// Package jobs looks up job postings: live through Adzuna, optionally cached in
// redis, with a static offline snapshot as the fallback.
package jobs

import (
	"context"
	"log"

	"github.com/mohammad-safakhou/careerchat/models"
)

// Provider searches a live job listing source. Search never fails outward: any
// transport error, timeout, non-2xx status or empty result set yields an empty
// slice, and callers cannot tell those apart.
type Provider interface {
	Search(ctx context.Context, role, location string, limit int) []models.JobPosting
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, role, location string, limit int) []models.JobPosting

func (f ProviderFunc) Search(ctx context.Context, role, location string, limit int) []models.JobPosting {
	return f(ctx, role, location, limit)
}

func defaultLogger(l *log.Logger) *log.Logger {
	if l != nil {
		return l
	}
	return log.New(log.Writer(), "[JOBS] ", log.LstdFlags)
}

package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	_ "embed"

	"github.com/mohammad-safakhou/careerchat/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrCacheUnavailable means the offline snapshot could not be read or is malformed.
// It is distinct from an empty result after filtering.
var ErrCacheUnavailable = errors.New("offline job cache unavailable")

//go:embed matched_jobs.json
var defaultSnapshot []byte

//go:embed snapshot_schema.json
var snapshotSchemaJSON string

var (
	compileOnce    sync.Once
	snapshotSchema *jsonschema.Schema
	compileErr     error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("snapshot_schema.json", strings.NewReader(snapshotSchemaJSON)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		s, err := compiler.Compile("snapshot_schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile snapshot schema: %w", err)
			return
		}
		snapshotSchema = s
	})
	return snapshotSchema, compileErr
}

type snapshot struct {
	MatchedJobs []struct {
		Title         string   `json:"title"`
		Company       string   `json:"company"`
		MatchedSkills []string `json:"matched_skills"`
	} `json:"matched_jobs"`
}

// OfflineCache is a read-only job snapshot loaded once. A cache that failed to
// load keeps its error and reports ErrCacheUnavailable on every lookup.
type OfflineCache struct {
	jobs    []models.JobPosting
	loadErr error
}

// LoadOfflineCache reads the snapshot at path, or the bundled default when path is empty.
func LoadOfflineCache(path string) *OfflineCache {
	if path == "" {
		return NewOfflineCache(defaultSnapshot)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &OfflineCache{loadErr: fmt.Errorf("%w: %v", ErrCacheUnavailable, err)}
	}
	return NewOfflineCache(data)
}

// NewOfflineCache parses and validates a snapshot document.
func NewOfflineCache(data []byte) *OfflineCache {
	jobs, err := parseSnapshot(data)
	if err != nil {
		return &OfflineCache{loadErr: fmt.Errorf("%w: %v", ErrCacheUnavailable, err)}
	}
	return &OfflineCache{jobs: jobs}
}

func parseSnapshot(data []byte) ([]models.JobPosting, error) {
	s, err := schema()
	if err != nil {
		return nil, err
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("snapshot is not valid JSON: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return nil, fmt.Errorf("snapshot does not match schema: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	jobs := make([]models.JobPosting, 0, len(snap.MatchedJobs))
	for _, j := range snap.MatchedJobs {
		jobs = append(jobs, models.JobPosting{
			Kind:          models.JobKindOffline,
			Title:         orUnknown(j.Title),
			Company:       orUnknown(j.Company),
			MatchedSkills: append([]string(nil), j.MatchedSkills...),
		})
	}
	return jobs, nil
}

// Err reports the load error, if any.
func (c *OfflineCache) Err() error { return c.loadErr }

// Len is the number of postings in the snapshot.
func (c *OfflineCache) Len() int { return len(c.jobs) }

// FindByRole returns postings whose title contains role, case-insensitively.
// An empty role or "any" disables filtering. The result never aliases the snapshot.
func (c *OfflineCache) FindByRole(role string) ([]models.JobPosting, error) {
	if c == nil {
		return nil, ErrCacheUnavailable
	}
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	needle := strings.ToLower(strings.TrimSpace(role))
	out := make([]models.JobPosting, 0, len(c.jobs))
	for _, j := range c.jobs {
		if needle == "" || needle == "any" || strings.Contains(strings.ToLower(j.Title), needle) {
			j.MatchedSkills = append([]string(nil), j.MatchedSkills...)
			out = append(out, j)
		}
	}
	return out, nil
}

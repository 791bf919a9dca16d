package jobs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mohammad-safakhou/careerchat/models"
)

func TestOfflineCacheDefaultSnapshot(t *testing.T) {
	c := LoadOfflineCache("")
	if err := c.Err(); err != nil {
		t.Fatalf("default snapshot failed to load: %v", err)
	}
	jobs, err := c.FindByRole("ENGINEER")
	if err != nil {
		t.Fatalf("FindByRole: %v", err)
	}
	if len(jobs) == 0 {
		t.Fatal("expected engineer postings in default snapshot")
	}
	for _, j := range jobs {
		if j.Kind != models.JobKindOffline {
			t.Fatalf("expected offline kind, got %+v", j)
		}
	}
}

func TestOfflineCacheFindByRole(t *testing.T) {
	c := NewOfflineCache([]byte(`{"matched_jobs":[
		{"title":"Software Engineer","company":"Google","matched_skills":["SQL","Python"]},
		{"title":"Data Analyst","matched_skills":["Python"]}
	]}`))
	cases := []struct {
		role string
		want int
	}{
		{"software", 1},
		{"Data Analyst", 1},
		{"any", 2},
		{"ANY", 2},
		{"", 2},
		{"astronaut", 0},
	}
	for _, tc := range cases {
		jobs, err := c.FindByRole(tc.role)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.role, err)
		}
		if len(jobs) != tc.want {
			t.Fatalf("%q: expected %d jobs, got %d", tc.role, tc.want, len(jobs))
		}
	}
	jobs, _ := c.FindByRole("analyst")
	if jobs[0].Company != models.Unknown {
		t.Fatalf("expected unknown company placeholder, got %q", jobs[0].Company)
	}
}

func TestOfflineCacheUnavailable(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(bad, []byte(`{"matched_jobs": "nope"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cases := map[string]*OfflineCache{
		"missing file": LoadOfflineCache(filepath.Join(t.TempDir(), "absent.json")),
		"schema":       LoadOfflineCache(bad),
		"not json":     NewOfflineCache([]byte(`{`)),
		"no title":     NewOfflineCache([]byte(`{"matched_jobs":[{"company":"x"}]}`)),
	}
	for name, c := range cases {
		if _, err := c.FindByRole("engineer"); !errors.Is(err, ErrCacheUnavailable) {
			t.Fatalf("%s: expected ErrCacheUnavailable, got %v", name, err)
		}
	}
}

func TestOfflineCacheResultsDoNotAlias(t *testing.T) {
	c := NewOfflineCache([]byte(`{"matched_jobs":[{"title":"Engineer","matched_skills":["Go"]}]}`))
	first, _ := c.FindByRole("any")
	first[0].MatchedSkills[0] = "mutated"
	second, _ := c.FindByRole("any")
	if second[0].MatchedSkills[0] != "Go" {
		t.Fatalf("snapshot was mutated through a result: %+v", second[0])
	}
}

package jobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mohammad-safakhou/careerchat/config"
	"github.com/mohammad-safakhou/careerchat/models"
)

func newTestAdzuna(t *testing.T, endpoint string, timeout time.Duration) *AdzunaProvider {
	t.Helper()
	return NewAdzunaProvider(config.JobsConfig{
		Timeout: timeout,
		Adzuna:  config.AdzunaConfig{AppID: "id", AppKey: "key", Endpoint: endpoint, Country: "in"},
	}, nil)
}

func TestAdzunaSearchNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/in/search/1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("what") != "data scientist" || q.Get("where") != "mumbai" || q.Get("results_per_page") != "3" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Get("app_id") != "id" || q.Get("app_key") != "key" {
			t.Errorf("missing credentials in %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"title":"<strong>Data</strong> Scientist","company":{"display_name":"Acme"},"location":{"display_name":"Mumbai"},
			 "salary_min":1200000,"salary_max":1800000.5,"redirect_url":"https://example.com/1"},
			{"title":"ML Engineer","salary_min":900000},
			{}
		]}`))
	}))
	defer srv.Close()

	p := newTestAdzuna(t, srv.URL, time.Second)
	jobs := p.Search(context.Background(), "data scientist", "mumbai", 3)
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	first := jobs[0]
	if first.Kind != models.JobKindLive || first.Title != "Data Scientist" || first.Company != "Acme" || first.Location != "Mumbai" {
		t.Fatalf("unexpected first job: %+v", first)
	}
	if first.SalaryRange != "1200000 - 1800000.5" || first.ApplyURL != "https://example.com/1" {
		t.Fatalf("unexpected salary/url: %+v", first)
	}
	second := jobs[1]
	if second.Company != models.Unknown || second.Location != models.Unknown || second.ApplyURL != models.Unknown {
		t.Fatalf("expected unknown placeholders, got %+v", second)
	}
	if second.SalaryRange != "900000 - unknown" {
		t.Fatalf("unexpected partial salary %q", second.SalaryRange)
	}
	if jobs[2].Title != models.Unknown || jobs[2].SalaryRange != models.Unknown {
		t.Fatalf("expected empty job to be all unknown, got %+v", jobs[2])
	}
}

func TestAdzunaSearchSwallowsFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusInternalServerError)
		},
		"bad json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"results":`))
		},
		"empty": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"results":[]}`))
		},
		"timeout": func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"results":[{"title":"late"}]}`))
		},
	}
	for name, h := range cases {
		srv := httptest.NewServer(h)
		p := newTestAdzuna(t, srv.URL, 50*time.Millisecond)
		if jobs := p.Search(context.Background(), "astronaut", "India", 3); len(jobs) != 0 {
			t.Fatalf("%s: expected empty result, got %+v", name, jobs)
		}
		srv.Close()
	}
}

func TestAdzunaSearchWithoutCredentials(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	p := NewAdzunaProvider(config.JobsConfig{Adzuna: config.AdzunaConfig{Endpoint: srv.URL}}, nil)
	if jobs := p.Search(context.Background(), "engineer", "India", 3); len(jobs) != 0 {
		t.Fatalf("expected empty result, got %+v", jobs)
	}
	if called {
		t.Fatal("expected no request without credentials")
	}
}

func TestAdzunaSearchRespectsCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"title":"x"}]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newTestAdzuna(t, srv.URL, time.Second)
	if jobs := p.Search(ctx, "engineer", "India", 3); len(jobs) != 0 {
		t.Fatalf("expected empty result on cancelled context, got %+v", jobs)
	}
}

package jobs

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/mohammad-safakhou/careerchat/config"
	"github.com/mohammad-safakhou/careerchat/internal/helpers"
	"github.com/mohammad-safakhou/careerchat/models"
)

// AdzunaProvider queries the Adzuna job search API with a single bounded attempt.
type AdzunaProvider struct {
	cfg    config.AdzunaConfig
	client *helpers.HTTPClient
	logger *log.Logger
}

func NewAdzunaProvider(cfg config.JobsConfig, logger *log.Logger) *AdzunaProvider {
	cfg = cfg.Normalize()
	return &AdzunaProvider{
		cfg:    cfg.Adzuna,
		client: helpers.NewHTTPClient(cfg.Timeout, 0, 0),
		logger: defaultLogger(logger),
	}
}

type adzunaResponse struct {
	Results []adzunaJob `json:"results"`
}

type adzunaJob struct {
	Title   string `json:"title"`
	Company struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	SalaryMin   *float64 `json:"salary_min"`
	SalaryMax   *float64 `json:"salary_max"`
	RedirectURL string   `json:"redirect_url"`
}

func (p *AdzunaProvider) searchURL() string {
	return fmt.Sprintf("%s/%s/search/1", p.cfg.Endpoint, p.cfg.Country)
}

func (p *AdzunaProvider) Search(ctx context.Context, role, location string, limit int) []models.JobPosting {
	if p.cfg.AppID == "" || p.cfg.AppKey == "" {
		p.logger.Printf("adzuna credentials not configured; skipping live search for %q", role)
		return nil
	}
	if limit <= 0 {
		limit = 3
	}
	q := url.Values{}
	q.Set("app_id", p.cfg.AppID)
	q.Set("app_key", p.cfg.AppKey)
	q.Set("what", role)
	q.Set("where", location)
	q.Set("results_per_page", strconv.Itoa(limit))
	q.Set("content-type", "application/json")

	var resp adzunaResponse
	if err := p.client.GetJSON(ctx, p.searchURL(), q, nil, &resp); err != nil {
		p.logger.Printf("adzuna search role=%q location=%q failed: %v", role, location, err)
		return nil
	}

	out := make([]models.JobPosting, 0, len(resp.Results))
	for _, j := range resp.Results {
		out = append(out, normalizeAdzunaJob(j))
		if len(out) == limit {
			break
		}
	}
	p.logger.Printf("adzuna returned %d jobs for role=%q location=%q", len(out), role, location)
	return out
}

func normalizeAdzunaJob(j adzunaJob) models.JobPosting {
	return models.JobPosting{
		Kind:        models.JobKindLive,
		Title:       orUnknown(helpers.PlainText(j.Title)),
		Company:     orUnknown(j.Company.DisplayName),
		Location:    orUnknown(j.Location.DisplayName),
		SalaryRange: salaryRange(j.SalaryMin, j.SalaryMax),
		ApplyURL:    orUnknown(j.RedirectURL),
	}
}

// salaryRange renders "min - max". Without a minimum the range is unknown.
func salaryRange(min, max *float64) string {
	if min == nil || *min == 0 {
		return models.Unknown
	}
	hi := models.Unknown
	if max != nil {
		hi = formatAmount(*max)
	}
	return formatAmount(*min) + " - " + hi
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return models.Unknown
	}
	return strings.TrimSpace(s)
}

package router

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/careerchat/models"
)

func formatLiveAnswer(role, location string, jobs []models.JobPosting) string {
	return fmt.Sprintf("Here are some job openings for *%s* in *%s*:\n\n%s", role, location, formatPostings(jobs))
}

func formatOfflineAnswer(role string, jobs []models.JobPosting) string {
	return fmt.Sprintf("We're having trouble reaching our job provider, but here are some popular jobs for *%s* from our local cache:\n\n%s", role, formatPostings(jobs))
}

func offlineMissAnswer(role string) string {
	return fmt.Sprintf("We couldn't find any jobs for *%s* right now, and our offline cache is empty or doesn't have a match.", role)
}

func offlineUnavailableAnswer(role string) string {
	return fmt.Sprintf("We couldn't find any jobs for *%s* right now, and our offline cache is currently unavailable.", role)
}

// formatPostings renders each posting by its kind and separates them with a blank line.
func formatPostings(jobs []models.JobPosting) string {
	parts := make([]string, 0, len(jobs))
	for _, j := range jobs {
		switch j.Kind {
		case models.JobKindOffline:
			parts = append(parts, formatOfflinePosting(j))
		default:
			parts = append(parts, formatLivePosting(j))
		}
	}
	return strings.Join(parts, "\n\n")
}

func formatLivePosting(j models.JobPosting) string {
	url := j.ApplyURL
	if url == "" || url == models.Unknown {
		url = "#"
	}
	return fmt.Sprintf("**%s** at %s (%s)\nSalary: %s\n[Apply Here](%s)",
		orUnknown(j.Title), orUnknown(j.Company), orUnknown(j.Location), orUnknown(j.SalaryRange), url)
}

func formatOfflinePosting(j models.JobPosting) string {
	return fmt.Sprintf("**%s** at %s\nMatched Skills: %s",
		orUnknown(j.Title), orUnknown(j.Company), strings.Join(j.MatchedSkills, ", "))
}

func orUnknown(s string) string {
	if s == "" {
		return models.Unknown
	}
	return s
}

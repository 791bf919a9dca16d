package router

import "strings"

// Route is the answer path chosen for a question.
type Route string

const (
	RouteJob       Route = "job"
	RouteKnowledge Route = "knowledge"
)

const (
	DefaultRole     = "engineer"
	DefaultLocation = "India"
)

// jobKeywords match as case-insensitive substrings anywhere in the question.
// There is no word-boundary check: "artwork" matches "work". Known and kept.
var jobKeywords = []string{
	"job", "jobs", "career", "position", "opening", "vacancy",
	"employment", "hiring", "recruit", "work", "role",
}

// roleBoilerplate is stripped from the role clause, longest phrase first.
var roleBoilerplate = []string{"show me jobs for", "jobs for", "jobs"}

// Classify sends a question to the job path when it contains any job keyword.
func Classify(question string) Route {
	q := strings.ToLower(question)
	for _, k := range jobKeywords {
		if strings.Contains(q, k) {
			return RouteJob
		}
	}
	return RouteKnowledge
}

// ExtractRoleLocation parses "jobs for <role> in <location>" style questions
// with the default role and location.
func ExtractRoleLocation(question string) (role, location string) {
	return extractRoleLocation(question, DefaultRole, DefaultLocation)
}

// extractRoleLocation lower-cases the question and splits it on " in ": the
// clause before the first separator is the role, the one after it is the
// location. Anything past a second separator is ignored.
func extractRoleLocation(question, defaultRole, defaultLocation string) (string, string) {
	parts := strings.Split(strings.ToLower(question), " in ")
	roleClause := parts[0]
	location := defaultLocation
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		location = strings.TrimSpace(parts[1])
	}
	for _, phrase := range roleBoilerplate {
		roleClause = strings.ReplaceAll(roleClause, phrase, "")
	}
	role := strings.Join(strings.Fields(roleClause), " ")
	if role == "" {
		role = defaultRole
	}
	return role, location
}

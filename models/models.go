package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Unknown is substituted for any job field the upstream payload omits.
const Unknown = "unknown"

// ErrInvalidTurn is returned when a chat turn is missing its session or carries an unknown role.
var ErrInvalidTurn = errors.New("invalid chat turn")

// Role identifies who produced a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAssistant }

// ChatTurn is a single persisted message of a session. Immutable once written.
type ChatTurn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (t ChatTurn) Validate() error {
	if strings.TrimSpace(t.SessionID) == "" {
		return fmt.Errorf("%w: session id required", ErrInvalidTurn)
	}
	if !t.Role.Valid() {
		return fmt.Errorf("%w: role %q", ErrInvalidTurn, t.Role)
	}
	return nil
}

// JobKind discriminates the two job posting variants. A response never mixes them.
type JobKind string

const (
	JobKindLive    JobKind = "live"
	JobKindOffline JobKind = "offline"
)

// JobPosting is a normalized job listing. Live postings carry SalaryRange and
// ApplyURL, offline postings carry MatchedSkills.
type JobPosting struct {
	Kind          JobKind  `json:"kind"`
	Title         string   `json:"title"`
	Company       string   `json:"company"`
	Location      string   `json:"location,omitempty"`
	SalaryRange   string   `json:"salary_range,omitempty"`
	ApplyURL      string   `json:"apply_url,omitempty"`
	MatchedSkills []string `json:"matched_skills,omitempty"`
}

// KnowledgeChunk is a retrieved unit of corpus text with its provenance.
type KnowledgeChunk struct {
	Text     string `json:"text"`
	Source   string `json:"source"`
	Filename string `json:"filename"`
}

// SourceRef renders the chunk provenance as "source/filename".
func (c KnowledgeChunk) SourceRef() string {
	src := c.Source
	if src == "" {
		src = Unknown
	}
	name := c.Filename
	if name == "" {
		name = Unknown
	}
	return src + "/" + name
}

// RouterResult is what a query produces. Sources is empty for job answers.
type RouterResult struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

package models

import (
	"errors"
	"testing"
)

func TestChatTurnValidate(t *testing.T) {
	cases := []struct {
		name string
		turn ChatTurn
		ok   bool
	}{
		{"user", ChatTurn{SessionID: "s1", Role: RoleUser}, true},
		{"assistant", ChatTurn{SessionID: "s1", Role: RoleAssistant}, true},
		{"missing session", ChatTurn{Role: RoleUser}, false},
		{"blank session", ChatTurn{SessionID: "  ", Role: RoleUser}, false},
		{"system role", ChatTurn{SessionID: "s1", Role: "system"}, false},
	}
	for _, tc := range cases {
		err := tc.turn.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidTurn) {
			t.Fatalf("%s: expected ErrInvalidTurn, got %v", tc.name, err)
		}
	}
}

func TestKnowledgeChunkSourceRef(t *testing.T) {
	c := KnowledgeChunk{Source: "resumes", Filename: "john_doe.pdf"}
	if got := c.SourceRef(); got != "resumes/john_doe.pdf" {
		t.Fatalf("unexpected ref %q", got)
	}
	if got := (KnowledgeChunk{}).SourceRef(); got != "unknown/unknown" {
		t.Fatalf("unexpected ref for empty chunk %q", got)
	}
}

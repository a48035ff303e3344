package vote

import (
	"fmt"

	"github.com/kailas-cloud/agora/internal/domain"
)

// Value is a user's vote on a question.
type Value string

// Vote values. None stands for both a "none" request and an absent record.
const (
	None Value = "none"
	Up   Value = "up"
	Down Value = "down"
)

// Parse validates a requested vote value. An empty string is rejected.
func Parse(s string) (Value, error) {
	v := Value(s)
	if !v.IsValid() {
		return "", fmt.Errorf("vote must be one of up, down, none, got %q: %w", s, domain.ErrInvalidRequest)
	}
	return v, nil
}

// IsValid checks if the value is one of the supported votes.
func (v Value) IsValid() bool {
	return v == None || v == Up || v == Down
}

// IsNone reports whether v is the absent vote.
func (v Value) IsNone() bool {
	return v == None || v == ""
}

// Normalize maps the empty value to None.
func (v Value) Normalize() Value {
	if v == "" {
		return None
	}
	return v
}

// Ptr returns nil for an absent vote and a pointer to the value otherwise.
func (v Value) Ptr() *string {
	if v.IsNone() {
		return nil
	}
	s := string(v)
	return &s
}

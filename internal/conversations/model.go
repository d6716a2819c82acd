package conversations

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no record exists for a conversation ID.
	ErrNotFound = errors.New("conversations: record not found")

	// ErrMissingConversationID is returned when a record lacks its natural key.
	ErrMissingConversationID = errors.New("conversations: conversation_id is required")

	// ErrNegativeDuration is returned for a record with a negative call duration.
	ErrNegativeDuration = errors.New("conversations: call duration must be non-negative")
)

// Interest levels attached upstream by the voice-agent platform.
// Anything else (including absent) falls into the unknown bucket.
const (
	InterestHigh   = "high"
	InterestMedium = "medium"
	InterestLow    = "low"
	InterestNone   = "none"
)

// TranscriptTurn is one ordered entry of a conversation transcript.
type TranscriptTurn struct {
	Role           string `json:"role"`
	Message        string `json:"message"`
	TimeInCallSecs int    `json:"time_in_call_secs"`
}

// Record is a completed voice-agent conversation as persisted from the
// platform webhook. Contact fields are empty strings when the agent
// did not collect them. Records are never mutated after creation.
type Record struct {
	ConversationID   string           `json:"conversation_id"`
	Name             string           `json:"name,omitempty"`
	Email            string           `json:"email,omitempty"`
	Company          string           `json:"company,omitempty"`
	Phone            string           `json:"phone,omitempty"`
	InterestLevel    string           `json:"interest_level,omitempty"`
	BudgetRange      string           `json:"budget_range,omitempty"`
	Timeline         string           `json:"timeline,omitempty"`
	SpecificInterest string           `json:"specific_interest,omitempty"`
	PageSection      string           `json:"page_section,omitempty"`
	CallDurationSecs int              `json:"call_duration_secs"`
	MainLanguage     string           `json:"main_language,omitempty"`
	CallSuccessful   bool             `json:"call_successful"`
	Transcript       []TranscriptTurn `json:"transcript,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Validate checks the invariants a record must satisfy before storage.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.ConversationID) == "" {
		return ErrMissingConversationID
	}
	if r.CallDurationSecs < 0 {
		return ErrNegativeDuration
	}
	return nil
}

// HasEmail reports whether the agent collected an email on this call.
func (r *Record) HasEmail() bool {
	return strings.TrimSpace(r.Email) != ""
}

package core

import (
	"time"
)

// Email represents a single message fetched from the mail provider.
// Absent fields default to the empty string; the classifier never
// requires any of them to be present.
type Email struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId,omitempty"`
	Sender   string   `json:"sender"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	Snippet  string   `json:"snippet,omitempty"`
	Date     string   `json:"date,omitempty"`
	Labels   []string `json:"labels,omitempty"`
}

// Action is the suggested disposition for a classified email.
type Action string

const (
	ActionShow    Action = "show"
	ActionArchive Action = "archive"
	ActionDelete  Action = "delete"
)

// PromotionalLabel is the provider label that marks promotional mail.
const PromotionalLabel = "CATEGORY_PROMOTIONS"

// Verdict is the result of classifying a single email. ImportanceScore
// is not clamped; rule accumulation can push it below zero.
type Verdict struct {
	ShowToUser       bool    `json:"show_to_user"`
	ImportanceScore  float64 `json:"importance_score"`
	Action           Action  `json:"action"`
	RequiresResponse bool    `json:"requires_response"`
}

// Assessment is the structured estimate returned by the LLM advisor.
// A nil *Assessment means the advisor was disabled or failed.
type Assessment struct {
	ImportanceScore  float64 `json:"importance_score"`
	RequiresResponse bool    `json:"requires_response"`
	Action           string  `json:"action"`
}

// KeywordSets holds the keyword lists matched against subject+body.
type KeywordSets struct {
	Important []string `json:"important"`
	Spam      []string `json:"spam"`
}

// Preferences is the durable user-configuration document. All seven
// top-level keys are always present after load; missing keys are filled
// with the defaults from DefaultPreferences.
//
// Sender and keyword matching is plain substring containment, so an
// empty string in any of the lists matches every email.
type Preferences struct {
	ImportantSenders        []string    `json:"important_senders"`
	BlockedSenders          []string    `json:"blocked_senders"`
	Keywords                KeywordSets `json:"keywords"`
	AutoArchivePatterns     []string    `json:"auto_archive_patterns"`
	ShowPromotional         bool        `json:"show_promotional"`
	MinimumImportanceScore  float64     `json:"minimum_importance_score"`
	EnableLLMClassification bool        `json:"enable_llm_classification"`
}

// DefaultPreferences returns the documented default document.
func DefaultPreferences() Preferences {
	return Preferences{
		ImportantSenders: []string{},
		BlockedSenders:   []string{},
		Keywords: KeywordSets{
			Important: []string{},
			Spam:      []string{},
		},
		AutoArchivePatterns:     []string{},
		ShowPromotional:         false,
		MinimumImportanceScore:  0.6,
		EnableLLMClassification: true,
	}
}

// AssessmentEntry is a cached advisor assessment for a message.
type AssessmentEntry struct {
	MessageID        string
	ImportanceScore  float64
	RequiresResponse bool
	Action           string
	AssessedAt       time.Time
	ExpiresAt        time.Time
}

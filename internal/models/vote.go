package models

import (
	"time"
)

// Vote choice tags.
const (
	ChoiceA = "a"
	ChoiceB = "b"
)

// ValidChoices defines the allowed vote values
var ValidChoices = map[string]bool{
	ChoiceA: true,
	ChoiceB: true,
}

// Vote is one voter's choice for one question. At most one vote exists
// per (question_id, voter_id); resubmission updates the row in place.
type Vote struct {
	ID         string    `json:"_id,omitempty"`
	QuestionID string    `json:"question_id"`
	VoterID    string    `json:"voter_id"`
	Vote       string    `json:"vote"`
	Domain     string    `json:"domain,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// VoteQuestion is a polling prompt. Static catalog entries shadow
// persisted rows with the same id.
type VoteQuestion struct {
	ID        string    `json:"_id" yaml:"id"`
	Question  string    `json:"question" yaml:"question"`
	OptionA   string    `json:"option_a" yaml:"option_a"`
	OptionB   string    `json:"option_b" yaml:"option_b"`
	Context   string    `json:"context,omitempty" yaml:"context"`
	Domain    string    `json:"domain,omitempty" yaml:"domain"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"-"`
}

// SubmitVoteRequest is the typed input for a vote submission.
type SubmitVoteRequest struct {
	QuestionID string `json:"question_id"`
	VoterID    string `json:"voter_id"`
	Vote       string `json:"vote"`
	Domain     string `json:"domain,omitempty"`
}

// VoteResult is the aggregate snapshot for one question. Percentages are
// rounded to the nearest integer and are 0 when no votes exist.
type VoteResult struct {
	QuestionID string `json:"question_id"`
	CountA     int    `json:"count_a"`
	CountB     int    `json:"count_b"`
	Total      int    `json:"total"`
	PercentA   int    `json:"percent_a"`
	PercentB   int    `json:"percent_b"`
	Question   string `json:"question,omitempty"`
	OptionA    string `json:"option_a,omitempty"`
	OptionB    string `json:"option_b,omitempty"`
}

// SubmitResult is the snapshot returned right after a submission so the
// client can render results without a second round trip.
type SubmitResult struct {
	VoteResult
	AlreadyVoted bool `json:"already_voted"`
}

// VoteCheck reports whether a voter has already voted on a question.
type VoteCheck struct {
	QuestionID string `json:"question_id"`
	Voted      bool   `json:"voted"`
	Vote       string `json:"vote,omitempty"`
}

// TrendPoint is one day's aggregate within a trend window. Days with no
// votes produce no point.
type TrendPoint struct {
	Date     string `json:"date"`
	CountA   int    `json:"count_a"`
	CountB   int    `json:"count_b"`
	Total    int    `json:"total"`
	PercentA int    `json:"percent_a"`
}

// TrendResult is the per-day series for one domain, ascending by date.
type TrendResult struct {
	Domain     string       `json:"domain"`
	Days       int          `json:"days"`
	Trend      []TrendPoint `json:"trend"`
	TotalVotes int          `json:"total_votes"`
}

// QuestionStats pairs a question with its current aggregate snapshot.
type QuestionStats struct {
	VoteQuestion
	Result VoteResult `json:"result"`
}

// StatsResult covers every known question, static catalog entries first.
type StatsResult struct {
	Questions []QuestionStats `json:"questions"`
}

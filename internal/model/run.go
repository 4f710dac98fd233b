package model

import (
	"strings"
	"time"
)

// RunStatus represents the current state of a planning run.
type RunStatus string

const (
	RunStatusQueued       RunStatus = "queued"
	RunStatusExtracting   RunStatus = "extracting"
	RunStatusLookingUp    RunStatus = "looking_up"
	RunStatusRecommending RunStatus = "recommending"
	RunStatusComplete     RunStatus = "complete"
	RunStatusFailed       RunStatus = "failed"
)

// PlanRequest is a student's scheduling request.
type PlanRequest struct {
	Courses           []string `json:"courses"`
	Quarter           string   `json:"quarter"`
	DaysOfWeek        []string `json:"days_of_week"`
	TimePreference    string   `json:"time_preference"`
	TeacherPreference string   `json:"teacher_preference"`
}

// Keywords joins the requested courses into the comma-separated keyword
// string accepted by the section filter.
func (r PlanRequest) Keywords() string {
	return strings.Join(r.Courses, ",")
}

// PlanResult is the outcome of a completed run.
type PlanResult struct {
	RunID           string                 `json:"run_id,omitempty"`
	Degraded        bool                   `json:"degraded"`
	SectionCount    int                    `json:"section_count"`
	Records         []SectionRecord        `json:"records"`
	Comparison      Comparison             `json:"comparison"`
	Recommendations []RecommendationRecord `json:"recommendations"`
	Warnings        []Warning              `json:"warnings,omitempty"`
	Usage           TokenUsage             `json:"usage"`
}

// Run is a persisted planning run.
type Run struct {
	ID        string      `json:"id"`
	Request   PlanRequest `json:"request"`
	Status    RunStatus   `json:"status"`
	Result    *PlanResult `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TokenUsage tracks model token consumption for a run.
type TokenUsage struct {
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

// Add merges token usage from another instance.
func (t *TokenUsage) Add(other TokenUsage) {
	t.InputTokens += other.InputTokens
	t.OutputTokens += other.OutputTokens
	t.Cost += other.Cost
}

// CalendarEntry is one event to place on the student's calendar. Start and
// End are RFC 3339 timestamps or zone-less ISO datetimes.
type CalendarEntry struct {
	Summary     string   `json:"summary"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Recurrence  []string `json:"recurrence,omitempty"`
}

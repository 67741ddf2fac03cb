package core

import (
	"context"
	"time"
)

// Query represents a raw research request from a user
type Query struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	UserID     string    `json:"user_id,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// Entity is a single resolved entity with an optional resolution fault.
// Fault is non-empty when the resolver had to fall back to a heuristic
// guess instead of a confident match.
type Entity struct {
	Value string `json:"value"`
	Fault string `json:"fault,omitempty"`
}

// Entities holds everything extracted from a query text
type Entities struct {
	Company Entity `json:"company"`
	Market  Entity `json:"market"`
}

// PlanStep is a single operation invocation in a research plan
type PlanStep struct {
	Operation   string                 `json:"operation"`
	Description string                 `json:"description"`
	Params      map[string]interface{} `json:"params,omitempty"`
}

// Plan is an ordered list of operations to execute for a query
type Plan struct {
	Steps     []PlanStep `json:"steps"`
	Rationale string     `json:"rationale,omitempty"`
}

// OperationResult represents the outcome of one executed plan step.
// Exactly one of Payload or Error is meaningful depending on Success.
type OperationResult struct {
	Operation string                 `json:"operation"`
	Params    map[string]interface{} `json:"params"`
	Success   bool                   `json:"success"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Duration  time.Duration          `json:"duration"`
	Timestamp time.Time              `json:"timestamp"`
}

// InsightSection is one block of the synthesized findings
type InsightSection struct {
	Heading string   `json:"heading"`
	Lines   []string `json:"lines"`
}

// Insights is the synthesized view over all operation results,
// in a fixed section order
type Insights struct {
	Sections []InsightSection `json:"sections"`
}

// ResearchRun is the full record of a processed query
type ResearchRun struct {
	ID          string            `json:"id"`
	Query       Query             `json:"query"`
	Entities    Entities          `json:"entities"`
	Plan        Plan              `json:"plan"`
	Results     []OperationResult `json:"results"`
	Insights    Insights          `json:"insights"`
	Response    string            `json:"response"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
	Duration    time.Duration     `json:"duration"`
	Success     bool              `json:"success"`
	Error       string            `json:"error,omitempty"`
}

// Planner turns a query and its entities into an executable plan
type Planner interface {
	Plan(ctx context.Context, query Query, entities Entities) (Plan, error)
}

// Operation is an executable registry entry. It receives the bound
// parameters for one plan step and returns a structured payload.
type Operation func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error)

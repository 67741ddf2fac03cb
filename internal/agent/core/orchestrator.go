package core

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/marketscout/marketscout/internal/agent/telemetry"
)

// Pipeline phases reported through RunStatus.
const (
	PhaseExtracting   = "extracting"
	PhasePlanning     = "planning"
	PhaseExecuting    = "executing"
	PhaseSynthesizing = "synthesizing"
	PhaseFormatting   = "formatting"
	PhaseCompleted    = "completed"
	PhaseFailed       = "failed"
)

// RunStatus is the externally visible progress of one research run.
type RunStatus struct {
	ID        string    `json:"id"`
	Phase     string    `json:"phase"`
	Query     string    `json:"query"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Error     string    `json:"error,omitempty"`
}

// ResultStore receives completed runs. Implementations decide their
// own retention; the orchestrator only ever overwrites.
type ResultStore interface {
	SaveLatest(ctx context.Context, run ResearchRun) error
}

// Orchestrator runs the full research pipeline: entity extraction and
// planning, plan execution, synthesis and formatting. Each run owns
// its ResearchRun exclusively; the only cross-run state is the status
// map and the optional result store.
type Orchestrator struct {
	planner   Planner
	executor  *Executor
	telemetry *telemetry.Telemetry
	store     ResultStore
	logger    *log.Logger
	agentName string

	semaphore chan struct{}

	mu        sync.RWMutex
	statuses  map[string]RunStatus
	cancels   map[string]context.CancelFunc
	finished  []string
	statusCap int
}

// defaultStatusRetention bounds how many finished run statuses stay
// queryable. In-flight runs are never evicted.
const defaultStatusRetention = 256

// NewOrchestrator wires the pipeline. store may be nil, in which case
// completed runs are simply returned to the caller.
func NewOrchestrator(planner Planner, executor *Executor, tel *telemetry.Telemetry, store ResultStore, agentName string, maxConcurrent int, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Orchestrator{
		planner:   planner,
		executor:  executor,
		telemetry: tel,
		store:     store,
		logger:    logger,
		agentName: agentName,
		semaphore: make(chan struct{}, maxConcurrent),
		statuses:  make(map[string]RunStatus),
		cancels:   make(map[string]context.CancelFunc),
		statusCap: defaultStatusRetention,
	}
}

// Research processes one query end to end and returns the completed
// run. Per-operation failures surface inside the run's results, never
// as a returned error; the error return covers cancellation only.
func (o *Orchestrator) Research(ctx context.Context, text, userID string) (ResearchRun, error) {
	tracer := otel.Tracer("orchestrator")
	ctx, span := tracer.Start(ctx, "orchestrator.research",
		trace.WithAttributes(attribute.Int("query.len", len(text))))
	defer span.End()

	select {
	case o.semaphore <- struct{}{}:
		defer func() { <-o.semaphore }()
	case <-ctx.Done():
		return ResearchRun{}, ctx.Err()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := ResearchRun{
		ID: uuid.NewString(),
		Query: Query{
			ID:         uuid.NewString(),
			Text:       text,
			UserID:     userID,
			ReceivedAt: time.Now().UTC(),
		},
		StartedAt: time.Now().UTC(),
	}
	span.SetAttributes(attribute.String("run.id", run.ID))

	o.mu.Lock()
	o.cancels[run.ID] = cancel
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.cancels, run.ID)
		o.mu.Unlock()
	}()

	o.logger.Printf("starting research run %s: %q", run.ID, text)

	o.updateStatus(run, PhaseExtracting, "")
	run.Entities = ExtractEntities(text)
	if run.Entities.Company.Fault != "" {
		o.logger.Printf("run %s: subject fallback: %s", run.ID, run.Entities.Company.Fault)
	}

	o.updateStatus(run, PhasePlanning, "")
	plan, err := o.planner.Plan(ctx, run.Query, run.Entities)
	if err != nil || len(plan.Steps) == 0 {
		// Planners are total by contract; treat a violation as a bug
		// and recover with the default plan rather than failing the run.
		o.logger.Printf("run %s: planner violated its contract (err=%v), using default plan", run.ID, err)
		plan = Plan{Steps: append([]PlanStep(nil), defaultPlanSteps...), Rationale: "default plan, planner fault"}
	}
	run.Plan = plan

	o.updateStatus(run, PhaseExecuting, "")
	if err := ctx.Err(); err != nil {
		return o.finish(ctx, run, err)
	}
	run.Results = o.executor.Execute(ctx, plan, run.Entities)

	o.updateStatus(run, PhaseSynthesizing, "")
	run.Insights = Synthesize(run.Results)

	o.updateStatus(run, PhaseFormatting, "")
	run.Response = FormatResponse(run.Query, run.Insights, o.agentName)

	return o.finish(ctx, run, nil)
}

func (o *Orchestrator) finish(ctx context.Context, run ResearchRun, err error) (ResearchRun, error) {
	run.CompletedAt = time.Now().UTC()
	run.Duration = run.CompletedAt.Sub(run.StartedAt)
	run.Success = err == nil
	if err != nil {
		run.Error = err.Error()
		o.updateStatus(run, PhaseFailed, err.Error())
	} else {
		o.updateStatus(run, PhaseCompleted, "")
	}
	if o.telemetry != nil {
		o.telemetry.RecordRun(run.Duration, run.Success)
	}
	if o.store != nil && err == nil {
		if serr := o.store.SaveLatest(context.WithoutCancel(ctx), run); serr != nil {
			o.logger.Printf("run %s: storing result: %v", run.ID, serr)
		}
	}
	if err != nil {
		return run, fmt.Errorf("research run %s: %w", run.ID, err)
	}
	o.logger.Printf("run %s completed in %s (%d operations)", run.ID, run.Duration, len(run.Results))
	return run, nil
}

func (o *Orchestrator) updateStatus(run ResearchRun, phase, errMsg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.statuses[run.ID]
	if s.ID == "" {
		s = RunStatus{ID: run.ID, Query: run.Query.Text, StartedAt: run.StartedAt}
	}
	s.Phase = phase
	s.Error = errMsg
	s.UpdatedAt = time.Now().UTC()
	o.statuses[run.ID] = s

	if phase == PhaseCompleted || phase == PhaseFailed {
		o.finished = append(o.finished, run.ID)
		for len(o.finished) > o.statusCap {
			delete(o.statuses, o.finished[0])
			o.finished = o.finished[1:]
		}
	}
}

// GetStatus returns the status of a run by ID.
func (o *Orchestrator) GetStatus(id string) (RunStatus, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s, ok := o.statuses[id]
	return s, ok
}

// CancelRun cancels an in-flight run. Returns false when the run is
// unknown or already finished.
func (o *Orchestrator) CancelRun(id string) bool {
	o.mu.RLock()
	cancel, ok := o.cancels[id]
	o.mu.RUnlock()
	if ok {
		cancel()
	}
	return ok
}

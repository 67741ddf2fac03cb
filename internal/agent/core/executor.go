package core

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/marketscout/marketscout/internal/agent/telemetry"
)

// Executor walks a plan, resolves each step through the registry and
// invokes it with parameters bound from the extracted entities.
type Executor struct {
	registry  *Registry
	telemetry *telemetry.Telemetry
	logger    *log.Logger
	opTimeout time.Duration
}

// NewExecutor creates an executor over an immutable registry.
func NewExecutor(registry *Registry, tel *telemetry.Telemetry, opTimeout time.Duration, logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.New(log.Writer(), "[EXECUTOR] ", log.LstdFlags)
	}
	return &Executor{registry: registry, telemetry: tel, logger: logger, opTimeout: opTimeout}
}

// Execute runs every plan step in order and returns exactly one result
// per step. A failing step never aborts the remaining steps: its slot
// carries the error and execution continues.
func (e *Executor) Execute(ctx context.Context, plan Plan, entities Entities) []OperationResult {
	results := make([]OperationResult, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		results = append(results, e.executeStep(ctx, step, entities))
	}
	return results
}

func (e *Executor) executeStep(ctx context.Context, step PlanStep, entities Entities) (result OperationResult) {
	started := time.Now()
	result = OperationResult{Operation: step.Operation}
	// Every slot carries the completion time, error slots included.
	defer func() { result.Timestamp = time.Now().UTC() }()

	desc, err := e.registry.Describe(step.Operation)
	if err != nil {
		result.Error = fmt.Sprintf("resolving operation: %v", err)
		result.Duration = time.Since(started)
		e.logger.Printf("plan references unknown operation %q", step.Operation)
		e.record(step.Operation, result.Duration, false)
		return result
	}
	op, err := e.registry.Resolve(step.Operation)
	if err != nil {
		result.Error = fmt.Sprintf("resolving operation: %v", err)
		result.Duration = time.Since(started)
		e.record(step.Operation, result.Duration, false)
		return result
	}

	params := e.bindParams(desc, entities, step.Params)
	result.Params = params

	payload, err := e.invoke(ctx, op, params)
	result.Duration = time.Since(started)
	if err != nil {
		result.Error = err.Error()
		e.logger.Printf("operation %s failed: %v", step.Operation, err)
		e.record(step.Operation, result.Duration, false)
		return result
	}
	if status, _ := payload["status"].(string); status != "success" {
		// Contract violation or a soft failure reported by the
		// operation itself. Either way it lands in the error slot.
		if msg, ok := payload["message"].(string); ok && msg != "" {
			result.Error = msg
		} else {
			result.Error = fmt.Sprintf("operation %s returned status %q", step.Operation, status)
		}
		e.record(step.Operation, result.Duration, false)
		return result
	}

	result.Success = true
	result.Payload = payload
	e.record(step.Operation, result.Duration, true)
	return result
}

// invoke calls the operation, converting a panic into an error so one
// misbehaving operation cannot take down the run.
func (e *Executor) invoke(ctx context.Context, op Operation, params map[string]interface{}) (payload map[string]interface{}, err error) {
	if e.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			payload = nil
			err = fmt.Errorf("operation panicked: %v", r)
		}
	}()
	return op(ctx, params)
}

// bindParams sources each declared parameter from the entity the
// descriptor names, falling back to the declared default. Explicit
// step params win over both.
func (e *Executor) bindParams(desc Descriptor, entities Entities, overrides map[string]interface{}) map[string]interface{} {
	params := make(map[string]interface{}, len(desc.Parameters))
	for name, spec := range desc.Parameters {
		switch spec.Source {
		case BindSubject:
			params[name] = entities.Company.Value
		case BindScope:
			params[name] = entities.Market.Value
		default:
			if spec.Default != nil {
				params[name] = spec.Default
			}
		}
	}
	for name, value := range overrides {
		params[name] = value
	}
	return params
}

func (e *Executor) record(operation string, d time.Duration, success bool) {
	if e.telemetry != nil {
		e.telemetry.RecordOperation(operation, d, success)
	}
}

package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// TextGenerator is the model backend contract the LLM planner needs.
type TextGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// LLMPlanner asks a model backend for a plan and falls back to the
// rule planner whenever the model output cannot be used. It honours
// the same contract as RulePlanner: the returned plan is never empty
// and contains no duplicate operations.
type LLMPlanner struct {
	gen      TextGenerator
	fallback *RulePlanner
	registry *Registry
	logger   *log.Logger
}

// NewLLMPlanner creates a model-backed planner. registry bounds the
// operation names the model may emit.
func NewLLMPlanner(gen TextGenerator, registry *Registry, logger *log.Logger) *LLMPlanner {
	if logger == nil {
		logger = log.New(log.Writer(), "[PLANNER] ", log.LstdFlags)
	}
	return &LLMPlanner{gen: gen, fallback: NewRulePlanner(logger), registry: registry, logger: logger}
}

const plannerSystemPrompt = `You are a market research planning assistant.
Given a research request, select which operations to run, in order.
Respond with a single JSON object of the form:
{"steps": [{"operation": "<name>", "description": "<short step description>"}], "rationale": "<one sentence>"}
Use only the operation names provided. Do not include any other text.`

// Plan requests a plan from the model, validates it and falls back to
// keyword evidence on any failure.
func (p *LLMPlanner) Plan(ctx context.Context, query Query, entities Entities) (Plan, error) {
	var sb strings.Builder
	sb.WriteString("Available operations:\n")
	for _, name := range p.registry.List() {
		desc, err := p.registry.Describe(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "- %s: %s\n", name, desc.Description)
	}
	fmt.Fprintf(&sb, "\nResearch request: %s\nSubject: %s\nScope: %s\n",
		query.Text, entities.Company.Value, entities.Market.Value)

	raw, err := p.gen.Generate(ctx, plannerSystemPrompt, sb.String())
	if err != nil {
		p.logger.Printf("model planning failed, falling back to rules: %v", err)
		return p.fallback.Plan(ctx, query, entities)
	}

	plan, err := p.parsePlan(raw)
	if err != nil {
		p.logger.Printf("model plan rejected, falling back to rules: %v", err)
		return p.fallback.Plan(ctx, query, entities)
	}
	return plan, nil
}

func (p *LLMPlanner) parsePlan(raw string) (Plan, error) {
	obj, err := extractJSONObject(raw)
	if err != nil {
		return Plan{}, err
	}
	var plan Plan
	if err := json.Unmarshal([]byte(obj), &plan); err != nil {
		return Plan{}, fmt.Errorf("unmarshalling plan: %w", err)
	}
	if len(plan.Steps) == 0 {
		return Plan{}, fmt.Errorf("model returned an empty plan")
	}
	seen := map[string]bool{}
	deduped := plan.Steps[:0]
	for _, step := range plan.Steps {
		if _, err := p.registry.Describe(step.Operation); err != nil {
			return Plan{}, fmt.Errorf("model referenced unknown operation %q", step.Operation)
		}
		if seen[step.Operation] {
			continue
		}
		seen[step.Operation] = true
		deduped = append(deduped, step)
	}
	plan.Steps = deduped
	return plan, nil
}

// extractJSONObject returns the first balanced JSON object in s,
// tolerating prose or markdown fences around it.
func extractJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in model output")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in model output")
}

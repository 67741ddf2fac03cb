package core

import (
	"context"
	"log"
	"strings"
)

// triggerEntry maps a set of evidence keywords to one operation.
// Any keyword matching as a substring of the lower-cased query selects
// the operation. Table order is the plan order.
type triggerEntry struct {
	operation   string
	description string
	keywords    []string
}

// gateVerbs must appear in the query before any trigger entry is
// considered. Without one of them the default plan is returned.
var gateVerbs = []string{"research", "analyze"}

var triggerTable = []triggerEntry{
	{
		operation:   OpSearchCompanyInfo,
		description: "Search for company information",
		keywords:    []string{"company", "apple", "google", "microsoft", "amazon", "tesla", "meta", "netflix"},
	},
	{
		operation:   OpAnalyzeMarketTrends,
		description: "Analyze market trends",
		keywords:    []string{"market trends", "trends", "industry"},
	},
	{
		operation:   OpSearchCompetitorAnalysis,
		description: "Analyze competitors",
		keywords:    []string{"competitor", "competition"},
	},
	{
		operation:   OpSearchLatestNews,
		description: "Search for latest news",
		keywords:    []string{"news", "latest", "recent"},
	},
	{
		operation:   OpGenerateMarketReport,
		description: "Generate comprehensive report",
		keywords:    []string{"report", "generate", "create"},
	},
}

// defaultPlanSteps is returned whenever the query yields no evidence.
// A plan is never empty.
var defaultPlanSteps = []PlanStep{
	{Operation: OpSearchCompanyInfo, Description: "Search for company information"},
	{Operation: OpAnalyzeMarketTrends, Description: "Analyze market trends"},
	{Operation: OpSearchLatestNews, Description: "Search for latest news"},
	{Operation: OpGenerateMarketReport, Description: "Generate comprehensive report"},
}

// RulePlanner derives a plan from fixed keyword evidence. It performs
// no I/O and never fails.
type RulePlanner struct {
	logger *log.Logger
}

// NewRulePlanner creates a deterministic keyword-evidence planner.
func NewRulePlanner(logger *log.Logger) *RulePlanner {
	if logger == nil {
		logger = log.New(log.Writer(), "[PLANNER] ", log.LstdFlags)
	}
	return &RulePlanner{logger: logger}
}

// Plan maps query text to an ordered, deduplicated list of operations.
func (p *RulePlanner) Plan(_ context.Context, query Query, _ Entities) (Plan, error) {
	lower := strings.ToLower(query.Text)

	gated := false
	for _, verb := range gateVerbs {
		if strings.Contains(lower, verb) {
			gated = true
			break
		}
	}

	var steps []PlanStep
	if gated {
		seen := map[string]bool{}
		for _, entry := range triggerTable {
			if seen[entry.operation] {
				continue
			}
			for _, kw := range entry.keywords {
				if strings.Contains(lower, kw) {
					steps = append(steps, PlanStep{Operation: entry.operation, Description: entry.description})
					seen[entry.operation] = true
					break
				}
			}
		}
	}

	if len(steps) == 0 {
		steps = append(steps, defaultPlanSteps...)
		p.logger.Printf("no evidence matched for query %q, using default plan", query.Text)
		return Plan{Steps: steps, Rationale: "default plan, no evidence matched"}, nil
	}
	return Plan{Steps: steps, Rationale: "keyword evidence"}, nil
}

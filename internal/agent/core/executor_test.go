package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func successEntry(name string) Entry {
	return Entry{
		Descriptor: Descriptor{
			Name:        name,
			Version:     "1.0.0",
			Description: "always succeeds",
			Parameters: map[string]ParamSpec{
				"subject": {Type: "string", Source: BindSubject},
			},
		},
		Invoke: func(_ context.Context, params map[string]interface{}) (map[string]interface{}, error) {
			return map[string]interface{}{"status": "success", "subject": params["subject"]}, nil
		},
	}
}

func failingEntry(name string) Entry {
	e := successEntry(name)
	e.Invoke = func(_ context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
		return nil, errors.New("backend unavailable")
	}
	return e
}

func panickingEntry(name string) Entry {
	e := successEntry(name)
	e.Invoke = func(_ context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
		panic("boom")
	}
	return e
}

func planFor(names ...string) Plan {
	var p Plan
	for _, n := range names {
		p.Steps = append(p.Steps, PlanStep{Operation: n})
	}
	return p
}

func testEntities() Entities {
	return Entities{
		Company: Entity{Value: "Apple"},
		Market:  Entity{Value: "smartphone market"},
	}
}

func TestExecuteCompleteness(t *testing.T) {
	r, err := NewRegistry([]Entry{successEntry("a"), successEntry("b"), successEntry("c")}, "", nil)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	e := NewExecutor(r, nil, 0, nil)

	plan := planFor("a", "b", "c")
	results := e.Execute(context.Background(), plan, testEntities())
	if len(results) != len(plan.Steps) {
		t.Fatalf("expected %d results, got %d", len(plan.Steps), len(results))
	}
	for i, res := range results {
		if res.Operation != plan.Steps[i].Operation {
			t.Fatalf("result %d: expected operation %s, got %s", i, plan.Steps[i].Operation, res.Operation)
		}
		if !res.Success {
			t.Fatalf("operation %s unexpectedly failed: %s", res.Operation, res.Error)
		}
	}
}

func TestExecuteFailureIsolation(t *testing.T) {
	r, err := NewRegistry([]Entry{
		successEntry("a"), successEntry("b"), failingEntry("c"), successEntry("d"), successEntry("e"),
	}, "", nil)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	e := NewExecutor(r, nil, 0, nil)

	results := e.Execute(context.Background(), planFor("a", "b", "c", "d", "e"), testEntities())
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Operation == "c" {
			if res.Success {
				t.Fatal("failing operation reported success")
			}
			if res.Error == "" {
				t.Fatal("failing operation has no error description")
			}
			continue
		}
		if !res.Success {
			t.Fatalf("sibling %s aborted by another operation's failure: %s", res.Operation, res.Error)
		}
	}
}

func TestExecuteRecoversPanic(t *testing.T) {
	r, err := NewRegistry([]Entry{panickingEntry("a"), successEntry("b")}, "", nil)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	e := NewExecutor(r, nil, 0, nil)

	results := e.Execute(context.Background(), planFor("a", "b"), testEntities())
	if results[0].Success {
		t.Fatal("panicking operation reported success")
	}
	if results[0].Error == "" {
		t.Fatal("panicking operation has no error description")
	}
	if !results[1].Success {
		t.Fatalf("sibling aborted by panic: %s", results[1].Error)
	}
}

func TestExecuteStampsResultTimestamps(t *testing.T) {
	r, err := NewRegistry([]Entry{successEntry("a"), failingEntry("b")}, "", nil)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	e := NewExecutor(r, nil, 0, nil)

	results := e.Execute(context.Background(), planFor("a", "b", "missing"), testEntities())
	for _, res := range results {
		if res.Timestamp.IsZero() {
			t.Fatalf("result for %s has no timestamp", res.Operation)
		}
	}
}

func TestExecuteUnknownOperation(t *testing.T) {
	r, err := NewRegistry([]Entry{successEntry("a")}, "", nil)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	e := NewExecutor(r, nil, 0, nil)

	results := e.Execute(context.Background(), planFor("a", "ghost"), testEntities())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Success {
		t.Fatal("unresolvable operation reported success")
	}
	if results[1].Error == "" {
		t.Fatal("unresolvable operation has no error description")
	}
	if !results[0].Success {
		t.Fatal("sibling aborted by resolution failure")
	}
}

func TestExecuteMalformedPayloadIsError(t *testing.T) {
	malformed := successEntry("a")
	malformed.Invoke = func(_ context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
		return map[string]interface{}{"data": "no status field"}, nil
	}
	r, err := NewRegistry([]Entry{malformed}, "", nil)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	e := NewExecutor(r, nil, 0, nil)

	results := e.Execute(context.Background(), planFor("a"), testEntities())
	if results[0].Success {
		t.Fatal("payload without status must be treated as an error")
	}
}

func TestExecuteBindsParamsFromDescriptor(t *testing.T) {
	var got map[string]interface{}
	entry := Entry{
		Descriptor: Descriptor{
			Name:        "bound",
			Version:     "1.0.0",
			Description: "records params",
			Parameters: map[string]ParamSpec{
				"company_name": {Type: "string", Source: BindSubject},
				"market":       {Type: "string", Source: BindScope},
				"timeframe":    {Type: "string", Source: BindDefault, Default: "1_year"},
			},
		},
		Invoke: func(_ context.Context, params map[string]interface{}) (map[string]interface{}, error) {
			got = params
			return map[string]interface{}{"status": "success"}, nil
		},
	}
	r, err := NewRegistry([]Entry{entry}, "", nil)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	e := NewExecutor(r, nil, 0, nil)

	e.Execute(context.Background(), planFor("bound"), testEntities())
	if got["company_name"] != "Apple" {
		t.Fatalf("expected subject binding Apple, got %v", got["company_name"])
	}
	if got["market"] != "smartphone market" {
		t.Fatalf("expected scope binding, got %v", got["market"])
	}
	if got["timeframe"] != "1_year" {
		t.Fatalf("expected default binding, got %v", got["timeframe"])
	}
}

func TestExecuteStepOverridesWin(t *testing.T) {
	var got map[string]interface{}
	entry := successEntry("a")
	entry.Invoke = func(_ context.Context, params map[string]interface{}) (map[string]interface{}, error) {
		got = params
		return map[string]interface{}{"status": "success"}, nil
	}
	r, err := NewRegistry([]Entry{entry}, "", nil)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	e := NewExecutor(r, nil, 0, nil)

	plan := Plan{Steps: []PlanStep{{
		Operation: "a",
		Params:    map[string]interface{}{"subject": "Override Corp"},
	}}}
	e.Execute(context.Background(), plan, testEntities())
	if fmt.Sprint(got["subject"]) != "Override Corp" {
		t.Fatalf("expected explicit step param to win, got %v", got["subject"])
	}
}

package telemetry

import (
	"testing"
	"time"
)

func TestSnapshotAggregation(t *testing.T) {
	tel := NewTelemetry(true, false, nil)
	defer tel.Stop()

	tel.RecordRun(100*time.Millisecond, true)
	tel.RecordRun(200*time.Millisecond, false)
	tel.RecordOperation("search_company_info", 10*time.Millisecond, true)
	tel.RecordOperation("search_company_info", 30*time.Millisecond, true)
	tel.RecordOperation("generate_market_report", 5*time.Millisecond, false)

	s := tel.Snapshot()
	if s.Runs != 2 || s.RunErrors != 1 {
		t.Fatalf("expected 2 runs with 1 error, got %d/%d", s.Runs, s.RunErrors)
	}
	if s.OperationCalls != 3 {
		t.Fatalf("expected 3 operation calls, got %d", s.OperationCalls)
	}
	stat := s.PerOperation["search_company_info"]
	if stat.Calls != 2 || stat.Errors != 0 {
		t.Fatalf("unexpected stats %+v", stat)
	}
	if stat.AverageTime != 20*time.Millisecond {
		t.Fatalf("expected 20ms average, got %s", stat.AverageTime)
	}
	if s.PerOperation["generate_market_report"].Errors != 1 {
		t.Fatal("expected one recorded error")
	}
}

func TestDisabledTelemetryRecordsNothing(t *testing.T) {
	tel := NewTelemetry(false, false, nil)
	defer tel.Stop()

	tel.RecordRun(time.Millisecond, true)
	tel.RecordOperation("x", time.Millisecond, true)

	s := tel.Snapshot()
	if s.Runs != 0 || s.OperationCalls != 0 {
		t.Fatalf("disabled telemetry must not record, got %+v", s)
	}
}

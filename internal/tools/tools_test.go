package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/marketscout/marketscout/config"
	"github.com/marketscout/marketscout/internal/agent/core"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func entryByName(t *testing.T, name string) core.Entry {
	t.Helper()
	for _, e := range Entries(config.EmailConfig{Recipient: "team@example.com"}, fixedClock) {
		if e.Descriptor.Name == name {
			return e
		}
	}
	t.Fatalf("no entry named %s", name)
	return core.Entry{}
}

func TestEntriesCoverAllOperations(t *testing.T) {
	want := []string{
		core.OpSearchCompanyInfo,
		core.OpAnalyzeMarketTrends,
		core.OpSearchCompetitorAnalysis,
		core.OpSearchLatestNews,
		core.OpGenerateMarketReport,
		core.OpSendEmailReport,
	}
	entries := Entries(config.EmailConfig{}, fixedClock)
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, name := range want {
		if entries[i].Descriptor.Name != name {
			t.Fatalf("entry %d: expected %s, got %s", i, name, entries[i].Descriptor.Name)
		}
		if entries[i].Descriptor.Description == "" {
			t.Fatalf("entry %s has no description", name)
		}
		if entries[i].Invoke == nil {
			t.Fatalf("entry %s has no implementation", name)
		}
	}
}

func TestCompanyInfoPayloadShape(t *testing.T) {
	e := entryByName(t, core.OpSearchCompanyInfo)
	payload, err := e.Invoke(context.Background(), map[string]interface{}{"company_name": "Apple"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload["status"] != "success" {
		t.Fatalf("expected success status, got %v", payload["status"])
	}
	data, ok := payload["data"].(map[string]interface{})
	if !ok {
		t.Fatal("payload missing data map")
	}
	for _, key := range []string{"founded", "headquarters", "employees", "industry", "market_cap"} {
		if _, ok := data[key]; !ok {
			t.Fatalf("data missing %s", key)
		}
	}
	if data["website"] != "https://www.apple.com" {
		t.Fatalf("expected derived website, got %v", data["website"])
	}
}

func TestMarketTrendsPayloadShape(t *testing.T) {
	e := entryByName(t, core.OpAnalyzeMarketTrends)
	payload, err := e.Invoke(context.Background(), map[string]interface{}{"market": "smartphone market", "timeframe": "1_year"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data := payload["data"].(map[string]interface{})
	trends, ok := data["key_trends"].([]interface{})
	if !ok || len(trends) == 0 {
		t.Fatal("expected non-empty key_trends list")
	}
	if payload["market"] != "smartphone market" {
		t.Fatalf("expected market echoed back, got %v", payload["market"])
	}
}

func TestLatestNewsMentionsQuery(t *testing.T) {
	e := entryByName(t, core.OpSearchLatestNews)
	payload, err := e.Invoke(context.Background(), map[string]interface{}{"query": "Tesla"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	articles := payload["articles"].([]interface{})
	if len(articles) != 3 {
		t.Fatalf("expected 3 canned articles, got %d", len(articles))
	}
	first := articles[0].(map[string]interface{})
	if !strings.HasPrefix(first["title"].(string), "Tesla") {
		t.Fatalf("article title should mention the query, got %v", first["title"])
	}
	if payload["article_count"] != 3 {
		t.Fatalf("expected article_count 3, got %v", payload["article_count"])
	}
}

func TestMarketReportUsesClock(t *testing.T) {
	e := entryByName(t, core.OpGenerateMarketReport)
	payload, err := e.Invoke(context.Background(), map[string]interface{}{"company": "Apple", "market": "smartphone market"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report := payload["report"].(map[string]interface{})
	if report["title"] != "Market Analysis Report: Apple" {
		t.Fatalf("unexpected title %v", report["title"])
	}
	if report["date"] != "2026-03-01" {
		t.Fatalf("expected clock-derived date, got %v", report["date"])
	}
	if payload["timestamp"] != "2026-03-01T12:00:00Z" {
		t.Fatalf("expected clock-derived timestamp, got %v", payload["timestamp"])
	}
}

func TestSendEmailValidatesRecipient(t *testing.T) {
	e := entryByName(t, core.OpSendEmailReport)

	ok, err := e.Invoke(context.Background(), map[string]interface{}{"recipient_email": "team@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok["status"] != "success" {
		t.Fatalf("expected success, got %v (%v)", ok["status"], ok["message"])
	}

	bad, err := e.Invoke(context.Background(), map[string]interface{}{"recipient_email": "not-an-address"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bad["status"] != "error" {
		t.Fatalf("expected error status for invalid address, got %v", bad["status"])
	}
	if bad["message"] != "Invalid email address" {
		t.Fatalf("unexpected message %v", bad["message"])
	}
}

func TestEmailDescriptorDefaultsToConfiguredRecipient(t *testing.T) {
	e := entryByName(t, core.OpSendEmailReport)
	spec, ok := e.Descriptor.Parameters["recipient_email"]
	if !ok {
		t.Fatal("descriptor missing recipient_email parameter")
	}
	if spec.Default != "team@example.com" {
		t.Fatalf("expected configured recipient as default, got %v", spec.Default)
	}
}

func TestDescriptorsSignAndVerify(t *testing.T) {
	const secret = "registry-secret"
	entries := Entries(config.EmailConfig{}, fixedClock)
	for i := range entries {
		if err := core.SignDescriptor(&entries[i].Descriptor, secret); err != nil {
			t.Fatalf("signing %s: %v", entries[i].Descriptor.Name, err)
		}
	}
	if _, err := core.NewRegistry(entries, secret, []string{core.OpSearchCompanyInfo, core.OpGenerateMarketReport}); err != nil {
		t.Fatalf("signed entries rejected: %v", err)
	}
}

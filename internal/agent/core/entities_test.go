package core

import "testing"

func TestExtractEntitiesKnownCompany(t *testing.T) {
	e := ExtractEntities("Research Apple Inc and generate a market report")
	if e.Company.Value != "Apple" {
		t.Fatalf("expected subject Apple, got %q", e.Company.Value)
	}
	if e.Company.Fault != "" {
		t.Fatalf("known company should not record a fault, got %q", e.Company.Fault)
	}
	if e.Market.Value != "Apple market" {
		t.Fatalf("expected scope \"Apple market\", got %q", e.Market.Value)
	}
}

func TestExtractEntitiesExplicitMarket(t *testing.T) {
	e := ExtractEntities("analyze the smartphone market trends for Apple")
	if e.Market.Value != "smartphone market" {
		t.Fatalf("expected scope \"smartphone market\", got %q", e.Market.Value)
	}
	if e.Market.Fault != "" {
		t.Fatalf("explicit market term should not record a fault, got %q", e.Market.Fault)
	}
}

// The last-token fallback is a documented degenerate heuristic: with
// no recognized company the subject can be an arbitrary query word.
func TestExtractEntitiesLastTokenFallback(t *testing.T) {
	e := ExtractEntities("tell me about Foobar")
	if e.Company.Value != "Foobar" {
		t.Fatalf("expected last-token fallback Foobar, got %q", e.Company.Value)
	}
	if e.Company.Fault == "" {
		t.Fatal("fallback subject must record a resolution fault")
	}
	if e.Market.Value != "Foobar market" {
		t.Fatalf("expected derived scope \"Foobar market\", got %q", e.Market.Value)
	}
}

func TestExtractEntitiesEmptyQuery(t *testing.T) {
	e := ExtractEntities("   ")
	if e.Company.Value != "Company" {
		t.Fatalf("expected generic placeholder, got %q", e.Company.Value)
	}
	if e.Company.Fault == "" {
		t.Fatal("placeholder subject must record a resolution fault")
	}
	if e.Market.Value != "Company market" {
		t.Fatalf("expected \"Company market\", got %q", e.Market.Value)
	}
}

func TestExtractEntitiesFirstListMatchWins(t *testing.T) {
	e := ExtractEntities("research how Google compares to Tesla")
	if e.Company.Value != "Google" {
		t.Fatalf("expected first reference-list match Google, got %q", e.Company.Value)
	}
}

func TestExtractEntitiesStopwordNeverQualifiesMarket(t *testing.T) {
	e := ExtractEntities("Research Microsoft and the market outlook")
	if e.Market.Value != "Microsoft market" {
		t.Fatalf("expected fallback scope, got %q", e.Market.Value)
	}
}

package core

import "strings"

// knownCompanies is the reference list scanned before falling back to
// the last-token heuristic. Order matters: first match wins.
var knownCompanies = []string{"Apple", "Google", "Microsoft", "Amazon", "Tesla", "Meta", "Netflix"}

// scopeStopwords are tokens that never qualify a market on their own.
var scopeStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "this": {}, "that": {},
	"of": {}, "for": {}, "in": {}, "and": {}, "or": {}, "to": {},
}

// ExtractEntities resolves the subject company and market scope from a
// raw query. It is a total function: it always returns a best-effort
// pair, recording a fault on entries produced by a heuristic guess.
func ExtractEntities(query string) Entities {
	company := extractCompany(query)
	market := extractMarket(query, company.Value)
	return Entities{Company: company, Market: market}
}

func extractCompany(query string) Entity {
	lower := strings.ToLower(query)
	for _, name := range knownCompanies {
		if strings.Contains(lower, strings.ToLower(name)) {
			return Entity{Value: name}
		}
	}
	words := strings.Fields(query)
	if len(words) == 0 {
		return Entity{Value: "Company", Fault: "empty query, used generic placeholder"}
	}
	// Known-degenerate fallback: the last token can be an arbitrary
	// word when the query names no recognized company.
	return Entity{Value: strings.Trim(words[len(words)-1], ".,!?"), Fault: "no known company matched, used last query token"}
}

func extractMarket(query, company string) Entity {
	tokens := strings.Fields(strings.ToLower(query))
	for i, tok := range tokens {
		if strings.Trim(tok, ".,!?") != "market" || i == 0 {
			continue
		}
		qualifier := strings.Trim(tokens[i-1], ".,!?")
		if _, stop := scopeStopwords[qualifier]; stop || qualifier == "" {
			break
		}
		return Entity{Value: qualifier + " market"}
	}
	return Entity{Value: company + " market", Fault: "no explicit market term, derived scope from subject"}
}

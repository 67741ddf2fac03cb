package core

import "fmt"

const notAvailable = "not available"

// maxListedItems caps list-valued payload fields in the summary.
const maxListedItems = 3

// Synthesize reduces operation results into fixed, ordered insight
// sections. Sections for operations that are absent or errored are
// omitted, never substituted with failures. Presentation order is
// fixed regardless of plan execution order.
func Synthesize(results []OperationResult) Insights {
	byOp := make(map[string]OperationResult, len(results))
	for _, r := range results {
		if r.Success {
			byOp[r.Operation] = r
		}
	}

	var insights Insights
	if r, ok := byOp[OpSearchCompanyInfo]; ok {
		insights.Sections = append(insights.Sections, companySection(r.Payload))
	}
	if r, ok := byOp[OpAnalyzeMarketTrends]; ok {
		insights.Sections = append(insights.Sections, trendsSection(r.Payload))
	}
	if r, ok := byOp[OpSearchLatestNews]; ok {
		insights.Sections = append(insights.Sections, newsSection(r.Payload))
	}
	if r, ok := byOp[OpGenerateMarketReport]; ok {
		insights.Sections = append(insights.Sections, reportSection(r.Payload))
	}
	return insights
}

func companySection(payload map[string]interface{}) InsightSection {
	data := subMap(payload, "data")
	return InsightSection{
		Heading: "COMPANY OVERVIEW",
		Lines: []string{
			"Founded: " + field(data, "founded"),
			"Headquarters: " + field(data, "headquarters"),
			"Employees: " + field(data, "employees"),
			"Industry: " + field(data, "industry"),
			"Market Cap: " + field(data, "market_cap"),
		},
	}
}

func trendsSection(payload map[string]interface{}) InsightSection {
	data := subMap(payload, "data")
	lines := []string{
		"Growth Rate: " + field(data, "growth_rate"),
		"Market Size: " + field(data, "market_size"),
	}
	trends := subList(data, "key_trends")
	if len(trends) > 0 {
		lines = append(lines, "Key Trends:")
		for i, trend := range trends {
			if i == maxListedItems {
				break
			}
			lines = append(lines, "  - "+fmt.Sprint(trend))
		}
	}
	return InsightSection{Heading: "MARKET TRENDS", Lines: lines}
}

func newsSection(payload map[string]interface{}) InsightSection {
	articles := subList(payload, "articles")
	section := InsightSection{
		Heading: fmt.Sprintf("LATEST NEWS (%d articles)", len(articles)),
	}
	for i, raw := range articles {
		if i == maxListedItems {
			break
		}
		article, _ := raw.(map[string]interface{})
		section.Lines = append(section.Lines,
			fmt.Sprintf("%s (%s)", field(article, "title"), field(article, "source")))
	}
	return section
}

func reportSection(payload map[string]interface{}) InsightSection {
	report := subMap(payload, "report")
	return InsightSection{
		Heading: "REPORT GENERATED",
		Lines: []string{
			"Title: " + field(report, "title"),
			"Date: " + field(report, "date"),
		},
	}
}

func field(m map[string]interface{}, key string) string {
	if m == nil {
		return notAvailable
	}
	v, ok := m[key]
	if !ok || v == nil {
		return notAvailable
	}
	s := fmt.Sprint(v)
	if s == "" {
		return notAvailable
	}
	return s
}

func subMap(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	sub, _ := m[key].(map[string]interface{})
	return sub
}

func subList(m map[string]interface{}, key string) []interface{} {
	if m == nil {
		return nil
	}
	list, _ := m[key].([]interface{})
	return list
}

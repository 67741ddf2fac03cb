package core

import (
	"strings"
	"time"
)

const bannerRule = "============================================================"

// FormatResponse renders the final report text. Output is a pure
// function of its inputs: the same query, timestamp and insights
// always produce byte-identical text.
func FormatResponse(query Query, insights Insights, agentName string) string {
	var b strings.Builder
	b.WriteString("MARKET RESEARCH AGENT REPORT\n")
	b.WriteString(bannerRule + "\n\n")
	b.WriteString("Research Request: " + query.Text + "\n")
	b.WriteString("Timestamp: " + query.ReceivedAt.Format(time.RFC3339) + "\n")
	b.WriteString("Agent: " + agentName + "\n\n")
	b.WriteString(renderInsights(insights))
	b.WriteString("\nResearch completed successfully.\n")
	return b.String()
}

func renderInsights(insights Insights) string {
	var b strings.Builder
	b.WriteString("RESEARCH INSIGHTS:\n")
	b.WriteString(bannerRule + "\n\n")
	for _, section := range insights.Sections {
		b.WriteString(section.Heading + ":\n")
		for _, line := range section.Lines {
			b.WriteString("  * " + line + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(bannerRule + "\n")
	return b.String()
}

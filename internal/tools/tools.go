// Package tools provides the built-in data-gathering operations. Each
// returns a fixed-shape payload standing in for a real retrieval
// backend; swapping in live data sources only requires replacing the
// implementations here, the pipeline never looks past the contract.
package tools

import (
	"context"
	"strings"
	"time"

	"github.com/marketscout/marketscout/config"
	"github.com/marketscout/marketscout/internal/agent/core"
)

// Clock supplies timestamps for payloads. Injectable for tests.
type Clock func() time.Time

// Entries returns all built-in operations in registration order.
// Descriptors come back unsigned; the caller signs them when a
// signing secret is configured.
func Entries(email config.EmailConfig, now Clock) []core.Entry {
	if now == nil {
		now = time.Now
	}
	return []core.Entry{
		companyInfoEntry(now),
		marketTrendsEntry(now),
		competitorAnalysisEntry(now),
		latestNewsEntry(now),
		marketReportEntry(now),
		emailReportEntry(email, now),
	}
}

func stamp(now Clock) string {
	return now().UTC().Format(time.RFC3339)
}

func strParam(params map[string]interface{}, key string) string {
	s, _ := params[key].(string)
	return s
}

func companyInfoEntry(now Clock) core.Entry {
	return core.Entry{
		Descriptor: core.Descriptor{
			Name:    core.OpSearchCompanyInfo,
			Version: "1.0.0",
			Description: "Search for comprehensive information about a company including " +
				"founding, headquarters, employees, industry, market cap, and key products.",
			Parameters: map[string]core.ParamSpec{
				"company_name": {Type: "string", Description: "Name of the company to research", Source: core.BindSubject},
			},
		},
		Invoke: func(_ context.Context, params map[string]interface{}) (map[string]interface{}, error) {
			company := strParam(params, "company_name")
			return map[string]interface{}{
				"company": company,
				"status":  "success",
				"data": map[string]interface{}{
					"founded":      "2001",
					"headquarters": "Cupertino, California",
					"employees":    "161,000+",
					"industry":     "Technology",
					"sectors":      []interface{}{"Consumer Electronics", "Software", "Services"},
					"market_cap":   "$3.2 Trillion",
					"key_products": []interface{}{"iPhone", "Mac", "iPad", "Apple Watch"},
					"website":      "https://www." + strings.ToLower(company) + ".com",
				},
				"timestamp": stamp(now),
			}, nil
		},
	}
}

func marketTrendsEntry(now Clock) core.Entry {
	return core.Entry{
		Descriptor: core.Descriptor{
			Name:    core.OpAnalyzeMarketTrends,
			Version: "1.0.0",
			Description: "Analyze trends in a specific market or industry including market size, " +
				"growth rate, key trends, growth drivers, and challenges.",
			Parameters: map[string]core.ParamSpec{
				"market":    {Type: "string", Description: "Market or industry to analyze (e.g., 'smartphone market', 'AI sector')", Source: core.BindScope},
				"timeframe": {Type: "string", Description: "Time period to analyze (1_year, 5_year, 10_year)", Source: core.BindDefault, Default: "1_year"},
			},
		},
		Invoke: func(_ context.Context, params map[string]interface{}) (map[string]interface{}, error) {
			return map[string]interface{}{
				"market":    strParam(params, "market"),
				"timeframe": strParam(params, "timeframe"),
				"status":    "success",
				"data": map[string]interface{}{
					"market_size": "$500 Billion",
					"growth_rate": "12% CAGR",
					"key_trends": []interface{}{
						"AI integration in all products",
						"Shift to cloud-based services",
						"Increased focus on sustainability",
						"Premium market expansion",
					},
					"growth_drivers": []interface{}{
						"Emerging markets expansion",
						"5G adoption",
						"IoT proliferation",
					},
					"challenges": []interface{}{
						"Supply chain disruptions",
						"Regulatory pressure",
						"Competition intensification",
					},
				},
				"timestamp": stamp(now),
			}, nil
		},
	}
}

func competitorAnalysisEntry(now Clock) core.Entry {
	return core.Entry{
		Descriptor: core.Descriptor{
			Name:    core.OpSearchCompetitorAnalysis,
			Version: "1.0.0",
			Description: "Analyze competitor performance, strategy, strengths, weaknesses, " +
				"opportunities, and threats (SWOT analysis).",
			Parameters: map[string]core.ParamSpec{
				"competitor_name": {Type: "string", Description: "Name of competitor to analyze", Source: core.BindSubject},
				"metrics": {Type: "array", Description: "Specific metrics to research (revenue, market_share, growth_rate, etc.)",
					Source: core.BindDefault, Default: []interface{}{"revenue", "market_share", "growth_rate"}},
			},
		},
		Invoke: func(_ context.Context, params map[string]interface{}) (map[string]interface{}, error) {
			metrics, _ := params["metrics"].([]interface{})
			return map[string]interface{}{
				"competitor":       strParam(params, "competitor_name"),
				"metrics_analyzed": metrics,
				"status":           "success",
				"data": map[string]interface{}{
					"annual_revenue":  "$394.3 Billion",
					"market_share":    "15.2%",
					"growth_rate":     "8.5% YoY",
					"market_position": "Leader",
					"key_strengths": []interface{}{
						"Strong brand recognition",
						"Loyal customer base",
						"Vertical integration",
					},
					"weaknesses": []interface{}{
						"Limited ecosystem flexibility",
						"High price point",
						"Service gaps",
					},
					"opportunities": []interface{}{
						"Emerging markets",
						"New categories",
						"Services expansion",
					},
					"threats": []interface{}{
						"Regulatory scrutiny",
						"Intense competition",
						"Tech disruption",
					},
				},
				"timestamp": stamp(now),
			}, nil
		},
	}
}

func latestNewsEntry(now Clock) core.Entry {
	return core.Entry{
		Descriptor: core.Descriptor{
			Name:    core.OpSearchLatestNews,
			Version: "1.0.0",
			Description: "Search for the latest news, announcements, and developments " +
				"related to a company or topic.",
			Parameters: map[string]core.ParamSpec{
				"query":     {Type: "string", Description: "Search query (company name, topic, etc.)", Source: core.BindSubject},
				"days_back": {Type: "integer", Description: "Number of days to look back", Source: core.BindDefault, Default: 30},
			},
		},
		Invoke: func(_ context.Context, params map[string]interface{}) (map[string]interface{}, error) {
			query := strParam(params, "query")
			articles := []interface{}{
				map[string]interface{}{
					"title":   query + " announces new AI features",
					"source":  "TechCrunch",
					"date":    "2024-02-20",
					"summary": "Revolutionary AI integration announced",
					"url":     "https://example.com/article1",
				},
				map[string]interface{}{
					"title":   query + " expands into new market",
					"source":  "Reuters",
					"date":    "2024-02-19",
					"summary": "Strategic expansion initiative launched",
					"url":     "https://example.com/article2",
				},
				map[string]interface{}{
					"title":   query + " Q4 earnings beat estimates",
					"source":  "Bloomberg",
					"date":    "2024-02-18",
					"summary": "Strong financial performance reported",
					"url":     "https://example.com/article3",
				},
			}
			return map[string]interface{}{
				"query":         query,
				"days_back":     params["days_back"],
				"status":        "success",
				"articles":      articles,
				"article_count": len(articles),
				"timestamp":     stamp(now),
			}, nil
		},
	}
}

func marketReportEntry(now Clock) core.Entry {
	return core.Entry{
		Descriptor: core.Descriptor{
			Name:    core.OpGenerateMarketReport,
			Version: "1.0.0",
			Description: "Generate a comprehensive market analysis report with executive summary, " +
				"market overview, competitive analysis, opportunities, threats, and recommendations.",
			Parameters: map[string]core.ParamSpec{
				"company": {Type: "string", Description: "Company being researched", Source: core.BindSubject},
				"market":  {Type: "string", Description: "Market being analyzed", Source: core.BindScope},
			},
		},
		Invoke: func(_ context.Context, params map[string]interface{}) (map[string]interface{}, error) {
			company := strParam(params, "company")
			market := strParam(params, "market")
			return map[string]interface{}{
				"company": company,
				"market":  market,
				"status":  "success",
				"report": map[string]interface{}{
					"title": "Market Analysis Report: " + company,
					"date":  now().UTC().Format("2006-01-02"),
					"sections": map[string]interface{}{
						"executive_summary": company + " operates in a dynamic " + market + " with significant growth potential. " +
							"The company maintains a strong market position with innovative products and services.",
						"market_overview": "The " + market + " is experiencing rapid transformation driven by technological advancement " +
							"and changing consumer preferences. Market growth is projected at 12% CAGR.",
						"competitive_landscape": company + " faces intense competition but maintains differentiation through brand strength " +
							"and innovation.",
						"opportunities": []interface{}{
							"Emerging market expansion",
							"New product categories",
							"Services diversification",
							"Geographic expansion",
						},
						"threats": []interface{}{
							"Regulatory changes",
							"Market saturation",
							"Intense competition",
							"Supply chain risks",
						},
						"recommendations": []interface{}{
							"Invest in AI and machine learning capabilities",
							"Expand into high-growth emerging markets",
							"Strengthen ecosystem partnerships",
							"Enhance sustainability initiatives",
						},
					},
					"data_sources": []interface{}{
						"Company filings and reports",
						"Industry research databases",
						"News and media sources",
						"Competitive intelligence",
						"Market research firms",
					},
				},
				"timestamp": stamp(now),
			}, nil
		},
	}
}

func emailReportEntry(email config.EmailConfig, now Clock) core.Entry {
	return core.Entry{
		Descriptor: core.Descriptor{
			Name:        core.OpSendEmailReport,
			Version:     "1.0.0",
			Description: "Send the research report to a recipient via email.",
			Parameters: map[string]core.ParamSpec{
				"recipient_email": {Type: "string", Description: "Email address of recipient", Source: core.BindDefault, Default: email.Recipient},
				"subject":         {Type: "string", Description: "Email subject line", Source: core.BindDefault, Default: "Market Research Report"},
				"body":            {Type: "string", Description: "Email body content", Source: core.BindDefault, Default: "Your market research report is attached."},
			},
		},
		Invoke: func(_ context.Context, params map[string]interface{}) (map[string]interface{}, error) {
			recipient := strParam(params, "recipient_email")
			status := "success"
			message := "Email sent successfully"
			if !strings.Contains(recipient, "@") {
				status = "error"
				message = "Invalid email address"
			}
			return map[string]interface{}{
				"status":    status,
				"recipient": recipient,
				"subject":   strParam(params, "subject"),
				"message":   message,
				"timestamp": stamp(now),
			}, nil
		},
	}
}

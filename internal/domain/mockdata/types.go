// Package mockdata synthesizes the demo metrics served to the marketing frontend.
package mockdata

// Win is a simulated revenue gain attributed to a brand.
type Win struct {
	Brand        string  `json:"brand"`
	DeltaRevenue float64 `json:"delta_revenue"`
	// Timestamp is Unix seconds; nil when the catalog does not model timestamps.
	Timestamp *float64 `json:"timestamp,omitempty"`
}

// BeforeAfter is a simulated catalog-quality correction.
type BeforeAfter struct {
	Title  string `json:"title,omitempty" yaml:"title"`
	Before string `json:"before" yaml:"before"`
	After  string `json:"after" yaml:"after"`
}

// TrialSignup is a simulated anonymized trial signup.
type TrialSignup struct {
	AnonID     string `json:"anon_id"`
	MinutesAgo int    `json:"minutes_ago"`
	Market     string `json:"market"`
}

// MetricsResponse aggregates the marketing-site headline numbers.
type MetricsResponse struct {
	TotalExtraRevenueMonth float64       `json:"total_extra_revenue_month"`
	Wins                   []Win         `json:"wins"`
	BeforeAfter            []BeforeAfter `json:"before_after"`
}

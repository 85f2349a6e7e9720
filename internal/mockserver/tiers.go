package mockserver

// tierSpec 是订阅档位的功能与限额定义，-1 表示不限。
type tierSpec struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	MaxDocuments     int      `json:"max_documents"`
	MaxQueriesPerMo  int      `json:"max_queries_per_month"`
	MaxEmployees     int      `json:"max_employees"`
	AnalyticsEnabled bool     `json:"analytics_enabled"`
	CustomBranding   bool     `json:"custom_branding"`
	PrioritySupport  bool     `json:"priority_support"`
	PriceMonthly     *float64 `json:"price_monthly"`
	PriceDisplay     string   `json:"price_display"`
}

func price(v float64) *float64 { return &v }

// builtinTiers 返回内置的档位表，数值对齐生产后端的配置。
func builtinTiers() map[string]tierSpec {
	return map[string]tierSpec{
		"starter": {
			Name:            "Starter",
			Description:     "Perfect for small firms and startups",
			MaxDocuments:    20,
			MaxQueriesPerMo: 5000,
			MaxEmployees:    50,
			PriceMonthly:    price(4000),
			PriceDisplay:    "₹4,000/month",
		},
		"professional": {
			Name:             "Professional",
			Description:      "Ideal for growing mid-size companies",
			MaxDocuments:     100,
			MaxQueriesPerMo:  25000,
			MaxEmployees:     200,
			AnalyticsEnabled: true,
			PrioritySupport:  true,
			PriceMonthly:     price(12000),
			PriceDisplay:     "₹12,000/month",
		},
		"enterprise": {
			Name:             "Enterprise",
			Description:      "Complete solution for large organizations",
			MaxDocuments:     -1,
			MaxQueriesPerMo:  -1,
			MaxEmployees:     -1,
			AnalyticsEnabled: true,
			CustomBranding:   true,
			PrioritySupport:  true,
			PriceDisplay:     "Custom Pricing",
		},
	}
}

package woocommerce

import "time"

// Customers lists customers in ascending order.
func Customers() Query {
	return Query{
		Endpoint: "/wc/v2/customers",
		Context:  "view",
		Page:     1,
		PerPage:  DefaultPerPage,
		Order:    "asc",
		Role:     "customer",
	}
}

// Orders lists orders of any status, newest first.
func Orders() Query {
	return Query{
		Endpoint: "/wc/v2/orders",
		Context:  "view",
		Page:     1,
		PerPage:  DefaultPerPage,
		Order:    "desc",
		OrderBy:  "date",
		Status:   "any",
	}
}

// Products lists products of any status, newest first.
func Products() Query {
	return Query{
		Endpoint: "/wc/v2/products",
		Context:  "view",
		Page:     1,
		PerPage:  DefaultPerPage,
		Order:    "desc",
		OrderBy:  "date",
		Status:   "any",
	}
}

func ReportsSales() Query {
	return Query{Endpoint: "/wc/v2/reports/sales", Context: "view"}
}

func ShippingZones() Query {
	return Query{Endpoint: "/wc/v2/shipping/zones"}
}

// Analytics fetches the wc-analytics index.
func Analytics() Query {
	return Query{Endpoint: "/wc-analytics", Context: "view", Namespace: "wc-analytics"}
}

// AnalyticsCoupons covers coupons used in the lookback window ending at now.
func AnalyticsCoupons(now time.Time, lookback time.Duration) Query {
	return analyticsWindow("/wc-analytics/coupons", now, lookback)
}

// AnalyticsOrders covers orders placed in the lookback window ending at now.
func AnalyticsOrders(now time.Time, lookback time.Duration) Query {
	return analyticsWindow("/wc-analytics/orders", now, lookback)
}

func analyticsWindow(endpoint string, now time.Time, lookback time.Duration) Query {
	return Query{
		Endpoint: endpoint,
		Context:  "view",
		Page:     1,
		PerPage:  DefaultPerPage,
		Order:    "asc",
		OrderBy:  "date",
		After:    now.Add(-lookback),
	}
}

// AnalyticsProducts lists product analytics. overrides are merged over the
// defaults, e.g. after, before or category.
func AnalyticsProducts(overrides map[string]string) Query {
	return Query{
		Endpoint:  "/wc-analytics/products",
		Context:   "view",
		Page:      1,
		PerPage:   DefaultPerPage,
		Order:     "asc",
		Overrides: overrides,
	}
}

// DefaultResources returns the fixed extraction sequence run by the extractor.
func DefaultResources(now time.Time, lookback time.Duration) []Query {
	return []Query{
		Customers(),
		Orders(),
		Products(),
		ReportsSales(),
		ShippingZones(),
		Analytics(),
		AnalyticsCoupons(now, lookback),
		AnalyticsOrders(now, lookback),
		AnalyticsProducts(map[string]string{
			"after":    "2023-01-01T00:00:00",
			"before":   "2024-01-01T00:00:00",
			"category": "1",
		}),
	}
}

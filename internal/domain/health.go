package domain

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual upstream.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// DialogMetrics is returned by GET /v1/metrics/dialogs.
type DialogMetrics struct {
	DepositSubmits      int64   `json:"depositSubmits"`
	ProvisioningSubmits int64   `json:"provisioningSubmits"`
	SubmitFailures      int64   `json:"submitFailures"`
	UserSearches        int64   `json:"userSearches"`
	ErrorRate           float64 `json:"errorRate"`
	CacheHitRate        float64 `json:"cacheHitRate"`
	Period              string  `json:"period"`
}

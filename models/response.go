package models

// HarvestResponse is the response for POST /api/v1/harvest.
type HarvestResponse struct {
	// Success indicates whether the run completed without a hard failure.
	// Interrupted and exhausted runs still succeed.
	Success bool `json:"success"`

	// RunID identifies the run in logs and webhook events.
	RunID string `json:"run_id,omitempty"`

	// Site is the registered site the URL resolved to.
	Site string `json:"site,omitempty"`

	// ProductID is the product identifier captured from the URL.
	ProductID string `json:"product_id,omitempty"`

	// Count is the number of reviews collected.
	Count int `json:"count"`

	// Reviews holds the collection in harvest order.
	Reviews []Review `json:"reviews,omitempty"`

	// OutputPath is the CSV file written on the server, if any.
	OutputPath string `json:"output_path,omitempty"`

	Stats HarvestStats `json:"stats"`

	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// HarvestStats reports how the extraction loop ended.
type HarvestStats struct {
	Passes      int  `json:"passes"`
	Advances    int  `json:"advances"`
	Skipped     int  `json:"skipped"`
	Exhausted   bool `json:"exhausted"`
	Interrupted bool `json:"interrupted"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// HarvestMs covers navigation, panel entry and the extraction loop.
	HarvestMs int64 `json:"harvest_ms"`

	// ExportMs is the time spent writing the CSV file.
	ExportMs int64 `json:"export_ms"`
}

// SiteInfo describes one registered site for GET /api/v1/sites.
type SiteInfo struct {
	Name     string `json:"name"`
	Pattern  string `json:"pattern"`
	InFrame  bool   `json:"in_frame"`
	Timezone string `json:"timezone"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}

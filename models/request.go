package models

// HarvestRequest is the payload for POST /api/v1/harvest.
type HarvestRequest struct {
	// URL is the product page whose reviews are harvested. Required.
	// A missing scheme is tolerated; "https://" is assumed.
	URL string `json:"url" binding:"required"`

	// MaxCount is the number of reviews to collect before stopping.
	// The run also stops earlier when the panel has no more pages.
	MaxCount int `json:"max_count" binding:"required,min=1,max=5000"`

	// Timeout is the maximum duration in seconds for the whole run
	// (navigation + every scan pass + every page advance).
	// Default: 120. Max: 600.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=600"`

	// Export writes the collected reviews to a CSV file on the server.
	// Default: true.
	Export *bool `json:"export,omitempty"`

	// IncludeReviews returns the collected reviews in the response body.
	// Default: true.
	IncludeReviews *bool `json:"include_reviews,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *HarvestRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 120
	}
	if r.Export == nil {
		t := true
		r.Export = &t
	}
	if r.IncludeReviews == nil {
		t := true
		r.IncludeReviews = &t
	}
}

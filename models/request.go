package models

// TrackRequest is the payload for POST /api/v1/products.
type TrackRequest struct {
	// URL is the product page to track. Required.
	URL string `json:"url" binding:"required,url"`

	// TargetPrice triggers an alert when a refresh finds a price at or
	// below it. Optional.
	TargetPrice *int `json:"target_price,omitempty" binding:"omitempty,min=1"`
}

// UpdateTargetRequest is the payload for PATCH /api/v1/products/:id.
// A null target_price clears the alert threshold.
type UpdateTargetRequest struct {
	TargetPrice *int `json:"target_price" binding:"omitempty,min=1"`
}

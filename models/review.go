package models

import "time"

// Review is a single harvested review record. Score keeps the source's own
// notation (star count, "5", ...) because sites disagree on the scale.
type Review struct {
	Author    string    `json:"author"`
	Score     string    `json:"score"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

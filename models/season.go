package models

import "time"

// Season partitions matches, fixtures and standings of one sport by time
// period. At most one season per sport is active at a time.
type Season struct {
	ID        string    `json:"id"`
	SportID   string    `json:"sport_id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

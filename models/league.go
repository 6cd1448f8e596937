package models

import "time"

// GeneralGroupName is the name of the implicit group created for leagues
// that disable grouping, so group-scoped storage paths stay uniform.
const GeneralGroupName = "General"

type League struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	SportID     string    `json:"sport_id"`
	SportName   string    `json:"sport_name"`
	SportType   SportType `json:"sport_type"`
	Description *string   `json:"description,omitempty"`
	HasGroups   bool      `json:"has_groups"`
	CreatedAt   time.Time `json:"created_at"`

	// Populated on detail reads, not stored on the league row.
	Groups []Group `json:"groups,omitempty"`
	Sport  *Sport  `json:"sport,omitempty"`
}

package models

import "time"

type StageType string

const (
	StageTypeKnockout   StageType = "knockout"
	StageTypeRoundRobin StageType = "round_robin"
)

type Stage struct {
	ID            string    `json:"id"`
	LeagueID      string    `json:"league_id"`
	GroupID       string    `json:"group_id"`
	Name          string    `json:"name"`
	Type          StageType `json:"type"`
	Order         int       `json:"order"` // breaks ties among siblings
	ParentStageID *string   `json:"parent_stage_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

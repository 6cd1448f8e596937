package models

import "time"

type SportType string

const (
	SportTypeTeam       SportType = "team"
	SportTypeIndividual SportType = "individual"
)

type Sport struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      SportType `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

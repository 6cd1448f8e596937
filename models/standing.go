package models

import "time"

// Points awarded per resolved match.
const (
	PointsWin  = 3
	PointsDraw = 1
	PointsLoss = 0
)

// PointsTableEntry is one row of the running standings table, keyed per
// (league, group, ref). Totals are accumulated, never recomputed from
// match history.
type PointsTableEntry struct {
	LeagueID    string    `json:"league_id"`
	GroupID     string    `json:"group_id"`
	RefID       string    `json:"ref_id"`
	Name        string    `json:"name"`
	Points      int       `json:"points"`
	GamesPlayed int       `json:"games_played"`
	Wins        int       `json:"wins"`
	Draws       int       `json:"draws"`
	Losses      int       `json:"losses"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StandingDelta is the signed contribution of one match outcome to one row
// of the points table. Negative values reverse a previous contribution.
type StandingDelta struct {
	RefID  string
	Name   string
	Points int
	Games  int
	Wins   int
	Draws  int
	Losses int
}

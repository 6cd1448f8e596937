package models

import "time"

type FixtureStatus string

const (
	FixtureStatusScheduled FixtureStatus = "scheduled"
	FixtureStatusLive      FixtureStatus = "live"
	FixtureStatusCompleted FixtureStatus = "completed"
	FixtureStatusPostponed FixtureStatus = "postponed"
)

type FixtureType string

const (
	FixtureTypeLeague   FixtureType = "league"
	FixtureTypeFriendly FixtureType = "friendly"
)

type FixtureScore struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

type GoalTiming struct {
	TeamID string `json:"team_id"`
	Minute int    `json:"minute"`
	Scorer string `json:"scorer,omitempty"`
}

// Fixture is the public-facing contest record. A league fixture is linked to
// a tournament-structure match via MatchID; a friendly stands alone.
type Fixture struct {
	ID             string        `json:"id"`
	MatchID        *string       `json:"match_id,omitempty"`
	HomeTeamID     string        `json:"home_team_id"`
	AwayTeamID     string        `json:"away_team_id"`
	HomeTeamName   string        `json:"home_team_name"`
	AwayTeamName   string        `json:"away_team_name"`
	Sport          string        `json:"sport"`
	ScheduledAt    time.Time     `json:"scheduled_at"`
	Venue          *string       `json:"venue,omitempty"`
	Status         FixtureStatus `json:"status"`
	Score          *FixtureScore `json:"score,omitempty"`
	PointsAdded    *FixtureScore `json:"points_added,omitempty"`
	PointsDeducted *FixtureScore `json:"points_deducted,omitempty"`
	GoalTimings    []GoalTiming  `json:"goal_timings,omitempty"`
	Type           FixtureType   `json:"type"`
	LeagueID       *string       `json:"league_id,omitempty"`
	SeasonID       *string       `json:"season_id,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

package models

import "time"

type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusOngoing   MatchStatus = "ongoing"
	MatchStatusCompleted MatchStatus = "completed"
)

type ParticipantRefType string

const (
	ParticipantRefTeam       ParticipantRefType = "team"
	ParticipantRefIndividual ParticipantRefType = "individual"
)

// Participant is an entrant embedded in a match. Score defaults to 0 until
// the match is scored.
type Participant struct {
	RefType ParticipantRefType `json:"ref_type"`
	RefID   string             `json:"ref_id"`
	Name    string             `json:"name"`
	Score   float64            `json:"score"`
}

type Match struct {
	ID           string        `json:"id"`
	LeagueID     string        `json:"league_id"`
	GroupID      string        `json:"group_id"`
	StageID      string        `json:"stage_id"`
	MatchNumber  int           `json:"match_number"`        // display ordering within a stage, not globally unique
	Date         time.Time     `json:"date"`
	Venue        *string       `json:"venue,omitempty"`
	Status       MatchStatus   `json:"status"`
	Participants []Participant `json:"participants"`
	WinnerID     *string       `json:"winner_id,omitempty"` // set iff completed and not a draw
	SeasonID     *string       `json:"season_id,omitempty"`

	// Knockout wiring: when this match resolves decisively, the winner is
	// written into participant slot TargetSlot (0 or 1) of the match
	// NextMatchID.
	NextMatchID *string `json:"next_match_id,omitempty"`
	TargetSlot  *int    `json:"target_slot,omitempty"`

	// PointsApplied records whether this match has already contributed to
	// the points table, so re-scoring reverses before re-applying.
	PointsApplied bool      `json:"points_applied"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsDraw reports whether a completed match ended without a winner.
func (m *Match) IsDraw() bool {
	return m.Status == MatchStatusCompleted && m.WinnerID == nil
}

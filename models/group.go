package models

import "time"

type Group struct {
	ID            string    `json:"id"`
	LeagueID      string    `json:"league_id"`
	Name          string    `json:"name"`
	ParentGroupID *string   `json:"parent_group_id,omitempty"` // one level of nesting only
	CreatedAt     time.Time `json:"created_at"`
}

// GroupRef addresses a group within a league without threading a sentinel
// string through the storage layer: either an explicit group id, or
// "ungrouped", which resolves to the league's implicit General group.
type GroupRef struct {
	id        string
	ungrouped bool
}

func ExplicitGroup(id string) GroupRef {
	return GroupRef{id: id}
}

func Ungrouped() GroupRef {
	return GroupRef{ungrouped: true}
}

func (r GroupRef) Ungrouped() bool {
	return r.ungrouped
}

// ID returns the explicit group id. Only valid when !Ungrouped().
func (r GroupRef) ID() string {
	return r.id
}

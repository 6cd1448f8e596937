package brackets

import (
	"errors"
	"fmt"
)

var (
	ErrSlotOutOfRange    = errors.New("target slot must be 0 or 1")
	ErrWiringIncomplete  = errors.New("next match id and target slot must be set together")
	ErrSelfFeed          = errors.New("match cannot advance its winner into itself")
	ErrDanglingSuccessor = errors.New("next match id does not refer to a known match")
	ErrDuplicateSlotFeed = errors.New("two matches feed the same slot of one successor")
	ErrWiringCycle       = errors.New("bracket wiring contains a cycle")
)

// WiringEntry is the advancement wiring of one match, independent of the
// rest of the match document.
type WiringEntry struct {
	ID          string
	NextMatchID *string
	TargetSlot  *int
}

// ValidateWiring checks that a set of matches forms a consistent bracket:
// every successor reference resolves within the set, no slot is fed twice,
// no match feeds itself, and following winners never loops.
func ValidateWiring(entries []WiringEntry) error {
	known := make(map[string]*WiringEntry, len(entries))
	for i := range entries {
		known[entries[i].ID] = &entries[i]
	}

	type slotKey struct {
		matchID string
		slot    int
	}
	fedSlots := make(map[slotKey]string)

	for _, e := range entries {
		if (e.NextMatchID == nil) != (e.TargetSlot == nil) {
			return fmt.Errorf("%w: match %s", ErrWiringIncomplete, e.ID)
		}
		if e.NextMatchID == nil {
			continue
		}
		if *e.TargetSlot != 0 && *e.TargetSlot != 1 {
			return fmt.Errorf("%w: match %s has slot %d", ErrSlotOutOfRange, e.ID, *e.TargetSlot)
		}
		if *e.NextMatchID == e.ID {
			return fmt.Errorf("%w: match %s", ErrSelfFeed, e.ID)
		}
		if _, ok := known[*e.NextMatchID]; !ok {
			return fmt.Errorf("%w: match %s -> %s", ErrDanglingSuccessor, e.ID, *e.NextMatchID)
		}
		key := slotKey{matchID: *e.NextMatchID, slot: *e.TargetSlot}
		if feeder, taken := fedSlots[key]; taken {
			return fmt.Errorf("%w: matches %s and %s both feed slot %d of %s",
				ErrDuplicateSlotFeed, feeder, e.ID, *e.TargetSlot, *e.NextMatchID)
		}
		fedSlots[key] = e.ID
	}

	// Follow successor links from every node; revisiting a match on the
	// current walk means the wiring loops.
	const (
		unvisited = 0
		inWalk    = 1
		done      = 2
	)
	state := make(map[string]int, len(entries))

	var walk func(id string) error
	walk = func(id string) error {
		switch state[id] {
		case inWalk:
			return fmt.Errorf("%w: at match %s", ErrWiringCycle, id)
		case done:
			return nil
		}
		state[id] = inWalk
		if next := known[id].NextMatchID; next != nil {
			if err := walk(*next); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	for _, e := range entries {
		if err := walk(e.ID); err != nil {
			return err
		}
	}
	return nil
}

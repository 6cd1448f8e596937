package brackets

import (
	"errors"
	"fmt"
	"math"

	"github.com/campuscup/league-service/models"
)

var ErrNotEnoughEntrants = errors.New("not enough entrants to plan a knockout bracket (minimum 2)")

// Entrant is a seed going into a knockout bracket.
type Entrant struct {
	RefType models.ParticipantRefType
	RefID   string
	Name    string
}

// PlannedMatch is one node of a knockout plan before persistence. NextIndex
// and TargetSlot point at the successor match within the same plan; the
// storage layer translates indices into match ids after creation.
type PlannedMatch struct {
	Round        int
	OrderInRound int
	Entrant1     *Entrant // nil when the slot is fed by an earlier match
	Entrant2     *Entrant
	NextIndex    *int
	TargetSlot   *int // 0 or 1
}

type node struct {
	entrant     *Entrant
	sourceIndex *int // index of the plan match whose winner occupies this node
	isBye       bool
}

// PlanKnockout pairs entrants into a full single elimination tree. Entrants
// beyond a power of two receive first-round byes and pass straight through;
// a bracket of n entrants always plans exactly n-1 matches.
func PlanKnockout(entrants []Entrant) ([]PlannedMatch, error) {
	n := len(entrants)
	if n < 2 {
		return nil, ErrNotEnoughEntrants
	}

	numRounds := int(math.Ceil(math.Log2(float64(n))))
	bracketSize := 1 << uint(numRounds)
	numByes := bracketSize - n

	// Interleave byes against the first seeds so a bye never meets a bye.
	currentRound := make([]*node, 0, bracketSize)
	for i := 0; i < numByes; i++ {
		e := entrants[i]
		currentRound = append(currentRound, &node{entrant: &e}, &node{isBye: true})
	}
	for i := numByes; i < n; i++ {
		e := entrants[i]
		currentRound = append(currentRound, &node{entrant: &e})
	}

	plan := make([]PlannedMatch, 0, bracketSize-1)

	for r := 1; r <= numRounds; r++ {
		nextRound := make([]*node, 0, len(currentRound)/2)
		orderInRound := 0

		for i := 0; i < len(currentRound); i += 2 {
			node1, node2 := currentRound[i], currentRound[i+1]

			// A bye passes its entrant through without a match.
			if node2.isBye {
				nextRound = append(nextRound, &node{entrant: node1.entrant, sourceIndex: node1.sourceIndex})
				continue
			}
			if node1.isBye {
				nextRound = append(nextRound, &node{entrant: node2.entrant, sourceIndex: node2.sourceIndex})
				continue
			}

			orderInRound++
			matchIndex := len(plan)
			pm := PlannedMatch{
				Round:        r,
				OrderInRound: orderInRound,
				Entrant1:     node1.entrant,
				Entrant2:     node2.entrant,
			}
			plan = append(plan, pm)

			wireChild(plan, node1, matchIndex, 0)
			wireChild(plan, node2, matchIndex, 1)

			nextRound = append(nextRound, &node{sourceIndex: &matchIndex})
		}
		currentRound = nextRound
	}

	if len(currentRound) != 1 {
		return nil, fmt.Errorf("knockout plan for %d entrants did not converge to a single winner node", n)
	}
	return plan, nil
}

func wireChild(plan []PlannedMatch, child *node, successorIndex, slot int) {
	if child.sourceIndex == nil {
		return
	}
	s := slot
	next := successorIndex
	plan[*child.sourceIndex].NextIndex = &next
	plan[*child.sourceIndex].TargetSlot = &s
}

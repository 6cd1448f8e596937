package brackets

import (
	"fmt"
	"testing"

	"github.com/campuscup/league-service/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntrants(n int) []Entrant {
	out := make([]Entrant, n)
	for i := range out {
		out[i] = Entrant{
			RefType: models.ParticipantRefTeam,
			RefID:   fmt.Sprintf("team-%d", i),
			Name:    fmt.Sprintf("Team %d", i),
		}
	}
	return out
}

func TestPlanKnockoutTooFewEntrants(t *testing.T) {
	_, err := PlanKnockout(nil)
	assert.ErrorIs(t, err, ErrNotEnoughEntrants)

	_, err = PlanKnockout(testEntrants(1))
	assert.ErrorIs(t, err, ErrNotEnoughEntrants)
}

func TestPlanKnockoutFourEntrants(t *testing.T) {
	plan, err := PlanKnockout(testEntrants(4))
	require.NoError(t, err)
	require.Len(t, plan, 3)

	// Two round one matches, fully seeded.
	for i := 0; i < 2; i++ {
		assert.Equal(t, 1, plan[i].Round)
		require.NotNil(t, plan[i].Entrant1)
		require.NotNil(t, plan[i].Entrant2)
		require.NotNil(t, plan[i].NextIndex)
		assert.Equal(t, 2, *plan[i].NextIndex)
		require.NotNil(t, plan[i].TargetSlot)
		assert.Equal(t, i, *plan[i].TargetSlot)
	}

	final := plan[2]
	assert.Equal(t, 2, final.Round)
	assert.Nil(t, final.Entrant1)
	assert.Nil(t, final.Entrant2)
	assert.Nil(t, final.NextIndex)
}

func TestPlanKnockoutMatchCountIsAlwaysNMinusOne(t *testing.T) {
	for n := 2; n <= 33; n++ {
		plan, err := PlanKnockout(testEntrants(n))
		require.NoError(t, err, "n=%d", n)
		assert.Len(t, plan, n-1, "n=%d", n)
	}
}

func TestPlanKnockoutByesNeverMeet(t *testing.T) {
	for _, n := range []int{3, 5, 6, 7, 11, 13} {
		plan, err := PlanKnockout(testEntrants(n))
		require.NoError(t, err, "n=%d", n)

		seen := make(map[string]bool)
		for i, pm := range plan {
			// A slot is either a seeded entrant or fed by an earlier match,
			// never an empty pairing left over from a bye-versus-bye.
			slot1Fed, slot2Fed := false, false
			for _, other := range plan {
				if other.NextIndex != nil && *other.NextIndex == i {
					require.NotNil(t, other.TargetSlot)
					if *other.TargetSlot == 0 {
						slot1Fed = true
					} else {
						slot2Fed = true
					}
				}
			}
			assert.True(t, pm.Entrant1 != nil || slot1Fed, "n=%d match=%d slot 0 unfillable", n, i)
			assert.True(t, pm.Entrant2 != nil || slot2Fed, "n=%d match=%d slot 1 unfillable", n, i)

			if pm.Entrant1 != nil {
				assert.False(t, seen[pm.Entrant1.RefID], "entrant seeded twice")
				seen[pm.Entrant1.RefID] = true
			}
			if pm.Entrant2 != nil {
				assert.False(t, seen[pm.Entrant2.RefID], "entrant seeded twice")
				seen[pm.Entrant2.RefID] = true
			}
		}
	}
}

func TestPlanKnockoutWiringIsValid(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 8, 9, 16, 21} {
		plan, err := PlanKnockout(testEntrants(n))
		require.NoError(t, err, "n=%d", n)

		entries := make([]WiringEntry, len(plan))
		ids := make([]string, len(plan))
		for i := range plan {
			ids[i] = fmt.Sprintf("m%d", i)
		}
		for i, pm := range plan {
			entries[i] = WiringEntry{ID: ids[i]}
			if pm.NextIndex != nil {
				entries[i].NextMatchID = &ids[*pm.NextIndex]
				entries[i].TargetSlot = pm.TargetSlot
			}
		}
		assert.NoError(t, ValidateWiring(entries), "n=%d", n)
	}
}

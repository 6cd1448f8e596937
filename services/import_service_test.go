package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/campuscup/league-service/metrics"
	"github.com/campuscup/league-service/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImportEnv(t *testing.T) (ImportService, *matchEnv) {
	t.Helper()
	env := newMatchEnv(t, 0)
	env.seedMatch(t, "m1", 1, nil, nil)
	env.seedMatch(t, "m2", 2, nil, nil)

	groups := newFakeGroupRepo()
	require.NoError(t, groups.Create(context.Background(), nil, &models.Group{
		ID: testGroupID, LeagueID: testLeagueID, Name: models.GeneralGroupName,
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewImportService(env.matches, env.service, groups, metrics.Noop{}, logger)
	return service, env
}

func TestImportScoresCSV(t *testing.T) {
	service, env := newImportEnv(t)

	csvBody := strings.Join([]string{
		"match_number,home_score,away_score",
		"1,3,1",
		"2,2,2",
	}, "\n")

	summary, err := service.ImportScoresCSV(context.Background(), testLeagueID, models.Ungrouped(), testStageID,
		strings.NewReader(csvBody))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Zero(t, summary.Failed)

	m1, err := env.matches.GetByGlobalID(context.Background(), nil, "m1")
	require.NoError(t, err)
	require.NotNil(t, m1.WinnerID)
	assert.Equal(t, "team-a", *m1.WinnerID)

	m2, err := env.matches.GetByGlobalID(context.Background(), nil, "m2")
	require.NoError(t, err)
	assert.True(t, m2.IsDraw())
}

func TestImportScoresCSVRowFailuresAreIsolated(t *testing.T) {
	service, env := newImportEnv(t)

	// Row 2 targets an unknown match number and row 3 carries a malformed
	// score; both must fail without blocking the rows around them.
	csvBody := strings.Join([]string{
		"1,3,1",
		"99,2,0",
		"2,x,0",
		"2,1,0",
	}, "\n")

	summary, err := service.ImportScoresCSV(context.Background(), testLeagueID, models.Ungrouped(), testStageID,
		strings.NewReader(csvBody))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, summary.Failed)
	require.Len(t, summary.RowErrors, 2)
	assert.Equal(t, 2, summary.RowErrors[0].Line)
	assert.Equal(t, 3, summary.RowErrors[1].Line)

	m2, err := env.matches.GetByGlobalID(context.Background(), nil, "m2")
	require.NoError(t, err)
	require.NotNil(t, m2.WinnerID)
	assert.Equal(t, "team-a", *m2.WinnerID)
}

func TestImportScoresCSVUnknownGroup(t *testing.T) {
	service, _ := newImportEnv(t)

	_, err := service.ImportScoresCSV(context.Background(), testLeagueID, models.ExplicitGroup("missing"), testStageID,
		strings.NewReader("1,1,0"))
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

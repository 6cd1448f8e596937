package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/campuscup/league-service/metrics"
	"github.com/campuscup/league-service/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testLeagueID = "league-1"
	testGroupID  = "group-general"
	testStageID  = "stage-1"
)

type matchEnv struct {
	service   MatchService
	matches   *fakeMatchRepo
	standings *fakeStandingRepo
}

func newMatchEnv(t *testing.T, dedupeWindow time.Duration) *matchEnv {
	t.Helper()
	ctx := context.Background()

	groups := newFakeGroupRepo()
	require.NoError(t, groups.Create(ctx, nil, &models.Group{
		ID: testGroupID, LeagueID: testLeagueID, Name: models.GeneralGroupName,
	}))

	stages := newFakeStageRepo()
	require.NoError(t, stages.Create(ctx, nil, &models.Stage{
		ID: testStageID, LeagueID: testLeagueID, GroupID: testGroupID,
		Name: "Group Stage", Type: models.StageTypeRoundRobin, Order: 1,
	}))

	matches := newFakeMatchRepo()
	standings := newFakeStandingRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewMatchService(fakeTxManager{}, matches, stages, standings, groups,
		dedupeWindow, metrics.Noop{}, logger)

	return &matchEnv{service: service, matches: matches, standings: standings}
}

func (e *matchEnv) seedMatch(t *testing.T, id string, number int, nextMatchID *string, targetSlot *int) {
	t.Helper()
	require.NoError(t, e.matches.Create(context.Background(), nil, &models.Match{
		ID:          id,
		LeagueID:    testLeagueID,
		GroupID:     testGroupID,
		StageID:     testStageID,
		MatchNumber: number,
		Status:      models.MatchStatusScheduled,
		Participants: []models.Participant{
			{RefType: models.ParticipantRefTeam, RefID: "team-a", Name: "Falcons"},
			{RefType: models.ParticipantRefTeam, RefID: "team-b", Name: "Badgers"},
		},
		NextMatchID: nextMatchID,
		TargetSlot:  targetSlot,
	}))
}

func TestUpdateScoresDeterminesWinner(t *testing.T) {
	env := newMatchEnv(t, 0)
	env.seedMatch(t, "m1", 1, nil, nil)

	match, err := env.service.UpdateScores(context.Background(), testLeagueID, models.Ungrouped(), testStageID, "m1",
		[]ScoreUpdate{{RefID: "team-a", Score: 3}, {RefID: "team-b", Score: 1}})
	require.NoError(t, err)

	assert.Equal(t, models.MatchStatusCompleted, match.Status)
	require.NotNil(t, match.WinnerID)
	assert.Equal(t, "team-a", *match.WinnerID)
	assert.True(t, match.PointsApplied)
	assert.False(t, match.IsDraw())
}

func TestUpdateScoresDraw(t *testing.T) {
	env := newMatchEnv(t, 0)
	env.seedMatch(t, "m1", 1, nil, nil)

	match, err := env.service.UpdateScores(context.Background(), testLeagueID, models.Ungrouped(), testStageID, "m1",
		[]ScoreUpdate{{RefID: "team-a", Score: 2}, {RefID: "team-b", Score: 2}})
	require.NoError(t, err)

	assert.Nil(t, match.WinnerID)
	assert.True(t, match.IsDraw())

	table, err := env.standings.ListByGroup(context.Background(), testLeagueID, testGroupID)
	require.NoError(t, err)
	require.Len(t, table, 2)
	for _, entry := range table {
		assert.Equal(t, models.PointsDraw, entry.Points)
		assert.Equal(t, 1, entry.Draws)
		assert.Equal(t, 1, entry.GamesPlayed)
	}
}

func TestUpdateScoresAccumulatesStandings(t *testing.T) {
	env := newMatchEnv(t, 0)
	env.seedMatch(t, "m1", 1, nil, nil)

	_, err := env.service.UpdateScores(context.Background(), testLeagueID, models.Ungrouped(), testStageID, "m1",
		[]ScoreUpdate{{RefID: "team-a", Score: 4}, {RefID: "team-b", Score: 0}})
	require.NoError(t, err)

	winner, err := env.standings.GetByRef(context.Background(), nil, testLeagueID, testGroupID, "team-a")
	require.NoError(t, err)
	assert.Equal(t, models.PointsWin, winner.Points)
	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 1, winner.GamesPlayed)
	assert.Equal(t, "Falcons", winner.Name)

	loser, err := env.standings.GetByRef(context.Background(), nil, testLeagueID, testGroupID, "team-b")
	require.NoError(t, err)
	assert.Equal(t, models.PointsLoss, loser.Points)
	assert.Equal(t, 1, loser.Losses)
	assert.Equal(t, 1, loser.GamesPlayed)
}

func TestUpdateScoresRescoreReversesPriorContribution(t *testing.T) {
	env := newMatchEnv(t, 0)
	env.seedMatch(t, "m1", 1, nil, nil)
	ctx := context.Background()

	_, err := env.service.UpdateScores(ctx, testLeagueID, models.Ungrouped(), testStageID, "m1",
		[]ScoreUpdate{{RefID: "team-a", Score: 3}, {RefID: "team-b", Score: 1}})
	require.NoError(t, err)

	// A correction flips the result; the first contribution must not linger.
	_, err = env.service.UpdateScores(ctx, testLeagueID, models.Ungrouped(), testStageID, "m1",
		[]ScoreUpdate{{RefID: "team-a", Score: 1}, {RefID: "team-b", Score: 3}})
	require.NoError(t, err)

	a, err := env.standings.GetByRef(ctx, nil, testLeagueID, testGroupID, "team-a")
	require.NoError(t, err)
	assert.Equal(t, 0, a.Points)
	assert.Equal(t, 1, a.GamesPlayed)
	assert.Equal(t, 0, a.Wins)
	assert.Equal(t, 1, a.Losses)

	b, err := env.standings.GetByRef(ctx, nil, testLeagueID, testGroupID, "team-b")
	require.NoError(t, err)
	assert.Equal(t, models.PointsWin, b.Points)
	assert.Equal(t, 1, b.GamesPlayed)
	assert.Equal(t, 1, b.Wins)
}

func TestUpdateScoresAdvancesWinner(t *testing.T) {
	env := newMatchEnv(t, 0)
	ctx := context.Background()

	require.NoError(t, env.matches.Create(ctx, nil, &models.Match{
		ID: "m2", LeagueID: testLeagueID, GroupID: testGroupID, StageID: testStageID,
		MatchNumber: 2, Status: models.MatchStatusPending,
		Participants: []models.Participant{{Name: "TBD"}, {Name: "TBD"}},
	}))
	env.seedMatch(t, "m1", 1, strPtr("m2"), intPtr(0))

	_, err := env.service.UpdateScores(ctx, testLeagueID, models.Ungrouped(), testStageID, "m1",
		[]ScoreUpdate{{RefID: "team-a", Score: 2}, {RefID: "team-b", Score: 0}})
	require.NoError(t, err)

	successor, err := env.matches.GetByGlobalID(ctx, nil, "m2")
	require.NoError(t, err)
	assert.Equal(t, "team-a", successor.Participants[0].RefID)
	assert.Equal(t, "Falcons", successor.Participants[0].Name)
	assert.Zero(t, successor.Participants[0].Score)
	assert.Equal(t, "TBD", successor.Participants[1].Name)
}

func TestUpdateScoresDrawDoesNotAdvance(t *testing.T) {
	env := newMatchEnv(t, 0)
	ctx := context.Background()

	require.NoError(t, env.matches.Create(ctx, nil, &models.Match{
		ID: "m2", LeagueID: testLeagueID, GroupID: testGroupID, StageID: testStageID,
		MatchNumber: 2, Status: models.MatchStatusPending,
		Participants: []models.Participant{{Name: "TBD"}, {Name: "TBD"}},
	}))
	env.seedMatch(t, "m1", 1, strPtr("m2"), intPtr(1))

	_, err := env.service.UpdateScores(ctx, testLeagueID, models.Ungrouped(), testStageID, "m1",
		[]ScoreUpdate{{RefID: "team-a", Score: 1}, {RefID: "team-b", Score: 1}})
	require.NoError(t, err)

	successor, err := env.matches.GetByGlobalID(ctx, nil, "m2")
	require.NoError(t, err)
	assert.Empty(t, successor.Participants[1].RefID)
	assert.Equal(t, "TBD", successor.Participants[1].Name)
}

func TestUpdateScoresMissingSuccessorIsNonFatal(t *testing.T) {
	env := newMatchEnv(t, 0)
	env.seedMatch(t, "m1", 1, strPtr("gone"), intPtr(0))

	match, err := env.service.UpdateScores(context.Background(), testLeagueID, models.Ungrouped(), testStageID, "m1",
		[]ScoreUpdate{{RefID: "team-a", Score: 2}, {RefID: "team-b", Score: 0}})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, match.Status)
}

func TestUpdateScoresValidation(t *testing.T) {
	env := newMatchEnv(t, 0)
	env.seedMatch(t, "m1", 1, nil, nil)
	ctx := context.Background()

	_, err := env.service.UpdateScores(ctx, testLeagueID, models.Ungrouped(), testStageID, "m1",
		[]ScoreUpdate{{RefID: "team-a", Score: -1}, {RefID: "team-b", Score: 0}})
	assert.ErrorIs(t, err, ErrNegativeScore)

	_, err = env.service.UpdateScores(ctx, testLeagueID, models.Ungrouped(), testStageID, "m1",
		[]ScoreUpdate{{RefID: "team-x", Score: 1}})
	assert.ErrorIs(t, err, ErrParticipantUnknown)

	_, err = env.service.UpdateScores(ctx, testLeagueID, models.Ungrouped(), testStageID, "missing",
		[]ScoreUpdate{{RefID: "team-a", Score: 1}})
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestUpdateScoresDuplicateSubmissionRejected(t *testing.T) {
	env := newMatchEnv(t, time.Minute)
	env.seedMatch(t, "m1", 1, nil, nil)
	ctx := context.Background()

	scores := []ScoreUpdate{{RefID: "team-a", Score: 3}, {RefID: "team-b", Score: 1}}
	_, err := env.service.UpdateScores(ctx, testLeagueID, models.Ungrouped(), testStageID, "m1", scores)
	require.NoError(t, err)

	_, err = env.service.UpdateScores(ctx, testLeagueID, models.Ungrouped(), testStageID, "m1", scores)
	assert.ErrorIs(t, err, ErrDuplicateSubmission)

	// A different score set is a correction, not a duplicate.
	_, err = env.service.UpdateScores(ctx, testLeagueID, models.Ungrouped(), testStageID, "m1",
		[]ScoreUpdate{{RefID: "team-a", Score: 3}, {RefID: "team-b", Score: 2}})
	assert.NoError(t, err)
}

func TestUpdateScoresFailedAttemptAllowsRetry(t *testing.T) {
	ctx := context.Background()

	groups := newFakeGroupRepo()
	require.NoError(t, groups.Create(ctx, nil, &models.Group{
		ID: testGroupID, LeagueID: testLeagueID, Name: models.GeneralGroupName,
	}))
	stages := newFakeStageRepo()
	require.NoError(t, stages.Create(ctx, nil, &models.Stage{
		ID: testStageID, LeagueID: testLeagueID, GroupID: testGroupID,
		Name: "Group Stage", Type: models.StageTypeRoundRobin, Order: 1,
	}))
	matches := newFakeMatchRepo()
	flaky := &flakyMatchRepo{fakeMatchRepo: matches, failures: 1}
	standings := newFakeStandingRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewMatchService(fakeTxManager{}, flaky, stages, standings, groups,
		time.Minute, metrics.Noop{}, logger)

	require.NoError(t, matches.Create(ctx, nil, &models.Match{
		ID: "m1", LeagueID: testLeagueID, GroupID: testGroupID, StageID: testStageID,
		MatchNumber: 1, Status: models.MatchStatusScheduled,
		Participants: []models.Participant{
			{RefType: models.ParticipantRefTeam, RefID: "team-a", Name: "Falcons"},
			{RefType: models.ParticipantRefTeam, RefID: "team-b", Name: "Badgers"},
		},
	}))

	scores := []ScoreUpdate{{RefID: "team-a", Score: 3}, {RefID: "team-b", Score: 1}}

	// The first attempt dies mid-transaction; nothing was committed, so the
	// same payload submitted again must go through, not be flagged duplicate.
	_, err := service.UpdateScores(ctx, testLeagueID, models.Ungrouped(), testStageID, "m1", scores)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateSubmission)

	_, err = service.UpdateScores(ctx, testLeagueID, models.Ungrouped(), testStageID, "m1", scores)
	require.NoError(t, err)

	_, err = service.UpdateScores(ctx, testLeagueID, models.Ungrouped(), testStageID, "m1", scores)
	assert.ErrorIs(t, err, ErrDuplicateSubmission)
}

func TestUpdateScoresRescoreToDrawRetractsAdvancement(t *testing.T) {
	env := newMatchEnv(t, 0)
	ctx := context.Background()

	require.NoError(t, env.matches.Create(ctx, nil, &models.Match{
		ID: "m2", LeagueID: testLeagueID, GroupID: testGroupID, StageID: testStageID,
		MatchNumber: 2, Status: models.MatchStatusPending,
		Participants: []models.Participant{{Name: "TBD"}, {Name: "TBD"}},
	}))
	env.seedMatch(t, "m1", 1, strPtr("m2"), intPtr(0))

	_, err := env.service.UpdateScores(ctx, testLeagueID, models.Ungrouped(), testStageID, "m1",
		[]ScoreUpdate{{RefID: "team-a", Score: 2}, {RefID: "team-b", Score: 0}})
	require.NoError(t, err)

	successor, err := env.matches.GetByGlobalID(ctx, nil, "m2")
	require.NoError(t, err)
	require.Equal(t, "team-a", successor.Participants[0].RefID)

	// The correction makes it a draw; the earlier advancement must come back
	// out of the successor slot.
	_, err = env.service.UpdateScores(ctx, testLeagueID, models.Ungrouped(), testStageID, "m1",
		[]ScoreUpdate{{RefID: "team-a", Score: 2}, {RefID: "team-b", Score: 2}})
	require.NoError(t, err)

	successor, err = env.matches.GetByGlobalID(ctx, nil, "m2")
	require.NoError(t, err)
	assert.Empty(t, successor.Participants[0].RefID)
	assert.Equal(t, "TBD", successor.Participants[0].Name)
}

func TestUpdateScoresRescoreNewWinnerReplacesSlot(t *testing.T) {
	env := newMatchEnv(t, 0)
	ctx := context.Background()

	require.NoError(t, env.matches.Create(ctx, nil, &models.Match{
		ID: "m2", LeagueID: testLeagueID, GroupID: testGroupID, StageID: testStageID,
		MatchNumber: 2, Status: models.MatchStatusPending,
		Participants: []models.Participant{{Name: "TBD"}, {Name: "TBD"}},
	}))
	env.seedMatch(t, "m1", 1, strPtr("m2"), intPtr(0))

	_, err := env.service.UpdateScores(ctx, testLeagueID, models.Ungrouped(), testStageID, "m1",
		[]ScoreUpdate{{RefID: "team-a", Score: 3}, {RefID: "team-b", Score: 1}})
	require.NoError(t, err)

	_, err = env.service.UpdateScores(ctx, testLeagueID, models.Ungrouped(), testStageID, "m1",
		[]ScoreUpdate{{RefID: "team-a", Score: 1}, {RefID: "team-b", Score: 3}})
	require.NoError(t, err)

	successor, err := env.matches.GetByGlobalID(ctx, nil, "m2")
	require.NoError(t, err)
	assert.Equal(t, "team-b", successor.Participants[0].RefID)
	assert.Equal(t, "Badgers", successor.Participants[0].Name)
}

func TestUpdateScoresMetricsCountCommittedWorkOnce(t *testing.T) {
	ctx := context.Background()

	groups := newFakeGroupRepo()
	require.NoError(t, groups.Create(ctx, nil, &models.Group{
		ID: testGroupID, LeagueID: testLeagueID, Name: models.GeneralGroupName,
	}))
	stages := newFakeStageRepo()
	require.NoError(t, stages.Create(ctx, nil, &models.Stage{
		ID: testStageID, LeagueID: testLeagueID, GroupID: testGroupID,
		Name: "Knockout", Type: models.StageTypeKnockout, Order: 1,
	}))
	matches := newFakeMatchRepo()
	flaky := &flakyMatchRepo{fakeMatchRepo: matches, failures: 1}
	standings := newFakeStandingRepo()
	recorder := &countingRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewMatchService(&retryingTxManager{attempts: 2}, flaky, stages, standings, groups,
		0, recorder, logger)

	require.NoError(t, matches.Create(ctx, nil, &models.Match{
		ID: "m2", LeagueID: testLeagueID, GroupID: testGroupID, StageID: testStageID,
		MatchNumber: 2, Status: models.MatchStatusPending,
		Participants: []models.Participant{{Name: "TBD"}, {Name: "TBD"}},
	}))
	require.NoError(t, matches.Create(ctx, nil, &models.Match{
		ID: "m1", LeagueID: testLeagueID, GroupID: testGroupID, StageID: testStageID,
		MatchNumber: 1, Status: models.MatchStatusScheduled,
		Participants: []models.Participant{
			{RefType: models.ParticipantRefTeam, RefID: "team-a", Name: "Falcons"},
			{RefType: models.ParticipantRefTeam, RefID: "team-b", Name: "Badgers"},
		},
		NextMatchID: strPtr("m2"),
		TargetSlot:  intPtr(0),
	}))

	// The first transaction attempt fails and is retried; only the committed
	// attempt may show up in the counters.
	_, err := service.UpdateScores(ctx, testLeagueID, models.Ungrouped(), testStageID, "m1",
		[]ScoreUpdate{{RefID: "team-a", Score: 2}, {RefID: "team-b", Score: 0}})
	require.NoError(t, err)

	assert.Equal(t, 1, recorder.resolved)
	assert.Equal(t, 0, recorder.draws)
	assert.Equal(t, 2, recorder.standings)
	assert.Equal(t, 1, recorder.advancements)
}

func TestAdvanceWinnerStandalone(t *testing.T) {
	env := newMatchEnv(t, 0)
	ctx := context.Background()

	require.NoError(t, env.matches.Create(ctx, nil, &models.Match{
		ID: "final", LeagueID: testLeagueID, GroupID: testGroupID, StageID: testStageID,
		MatchNumber: 3, Status: models.MatchStatusPending,
		Participants: []models.Participant{{Name: "TBD"}, {Name: "TBD"}},
	}))

	require.NoError(t, env.service.AdvanceWinner(ctx, "team-a", "Falcons", "final", 1))

	final, err := env.matches.GetByGlobalID(ctx, nil, "final")
	require.NoError(t, err)
	assert.Equal(t, "team-a", final.Participants[1].RefID)

	assert.NoError(t, env.service.AdvanceWinner(ctx, "team-a", "Falcons", "", 0))
	assert.ErrorIs(t, env.service.AdvanceWinner(ctx, "team-a", "Falcons", "final", 2), ErrTargetSlotInvalid)
	assert.ErrorIs(t, env.service.AdvanceWinner(ctx, "team-a", "Falcons", "missing", 0), ErrMatchNotFound)
}

func TestCreateMatchWiringValidation(t *testing.T) {
	env := newMatchEnv(t, 0)
	ctx := context.Background()

	participants := []models.Participant{
		{RefType: models.ParticipantRefTeam, RefID: "team-c", Name: "Otters"},
		{RefType: models.ParticipantRefTeam, RefID: "team-d", Name: "Herons"},
	}

	_, err := env.service.CreateMatch(ctx, testLeagueID, models.Ungrouped(), testStageID, CreateMatchInput{
		MatchNumber: 1, Participants: participants[:1],
	})
	assert.ErrorIs(t, err, ErrTooFewParticipants)

	_, err = env.service.CreateMatch(ctx, testLeagueID, models.Ungrouped(), testStageID, CreateMatchInput{
		MatchNumber: 1, Participants: participants, NextMatchID: strPtr("nowhere"), TargetSlot: intPtr(0),
	})
	assert.ErrorIs(t, err, ErrMatchNotFound)

	created, err := env.service.CreateMatch(ctx, testLeagueID, models.Ungrouped(), testStageID, CreateMatchInput{
		MatchNumber: 1, Participants: participants,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusPending, created.Status)

	_, err = env.service.CreateMatch(ctx, testLeagueID, models.Ungrouped(), testStageID, CreateMatchInput{
		MatchNumber: 2, Participants: participants, NextMatchID: &created.ID, TargetSlot: intPtr(2),
	})
	assert.ErrorIs(t, err, ErrTargetSlotInvalid)
}

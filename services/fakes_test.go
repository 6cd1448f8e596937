package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/campuscup/league-service/models"
	"github.com/campuscup/league-service/repositories"
)

// In-memory repository fakes. WithinTx runs the callback with a nil executor;
// the fakes ignore it.

type fakeTxManager struct{}

func (fakeTxManager) WithinTx(_ context.Context, fn func(repositories.SQLExecutor) error) error {
	return fn(nil)
}

// retryingTxManager re-runs the callback after a failure, the way the real
// manager retries serialization conflicts.
type retryingTxManager struct {
	attempts int
}

func (m *retryingTxManager) WithinTx(_ context.Context, fn func(repositories.SQLExecutor) error) error {
	var err error
	for i := 0; i < m.attempts; i++ {
		if err = fn(nil); err == nil {
			return nil
		}
	}
	return err
}

// flakyMatchRepo fails UpdateResolution a set number of times before
// delegating, to exercise transient-failure paths.
type flakyMatchRepo struct {
	*fakeMatchRepo
	failures int
}

func (r *flakyMatchRepo) UpdateResolution(ctx context.Context, exec repositories.SQLExecutor, id string, participants []models.Participant, status models.MatchStatus, winnerID *string, pointsApplied bool) error {
	if r.failures > 0 {
		r.failures--
		return errors.New("connection reset by peer")
	}
	return r.fakeMatchRepo.UpdateResolution(ctx, exec, id, participants, status, winnerID, pointsApplied)
}

// countingRecorder tallies metric calls for assertions.
type countingRecorder struct {
	resolved     int
	draws        int
	standings    int
	advancements int
	importOK     int
	importFailed int
}

func (r *countingRecorder) IncMatchesResolved()  { r.resolved++ }
func (r *countingRecorder) IncDraws()            { r.draws++ }
func (r *countingRecorder) IncStandingsUpdates() { r.standings++ }
func (r *countingRecorder) IncAdvancements()     { r.advancements++ }

func (r *countingRecorder) IncImportRows(ok bool) {
	if ok {
		r.importOK++
	} else {
		r.importFailed++
	}
}

func (r *countingRecorder) ObserveResolutionDuration(float64) {}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

type fakeGroupRepo struct {
	groups map[string]*models.Group
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{groups: make(map[string]*models.Group)}
}

func (r *fakeGroupRepo) Create(_ context.Context, _ repositories.SQLExecutor, group *models.Group) error {
	cp := *group
	r.groups[group.ID] = &cp
	return nil
}

func (r *fakeGroupRepo) GetByID(_ context.Context, leagueID, id string) (*models.Group, error) {
	g, ok := r.groups[id]
	if !ok || g.LeagueID != leagueID {
		return nil, repositories.ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *fakeGroupRepo) ListByLeague(_ context.Context, leagueID string) ([]*models.Group, error) {
	var out []*models.Group
	for _, g := range r.groups {
		if g.LeagueID == leagueID {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeGroupRepo) GetGeneral(_ context.Context, _ repositories.SQLExecutor, leagueID string) (*models.Group, error) {
	for _, g := range r.groups {
		if g.LeagueID == leagueID && g.Name == models.GeneralGroupName && g.ParentGroupID == nil {
			cp := *g
			return &cp, nil
		}
	}
	return nil, repositories.ErrGroupNotFound
}

func (r *fakeGroupRepo) UpdateName(_ context.Context, leagueID, id, name string) error {
	g, ok := r.groups[id]
	if !ok || g.LeagueID != leagueID {
		return repositories.ErrGroupNotFound
	}
	g.Name = name
	return nil
}

type fakeStageRepo struct {
	stages map[string]*models.Stage
}

func newFakeStageRepo() *fakeStageRepo {
	return &fakeStageRepo{stages: make(map[string]*models.Stage)}
}

func (r *fakeStageRepo) Create(_ context.Context, _ repositories.SQLExecutor, stage *models.Stage) error {
	cp := *stage
	r.stages[stage.ID] = &cp
	return nil
}

func (r *fakeStageRepo) GetByID(_ context.Context, leagueID, groupID, id string) (*models.Stage, error) {
	s, ok := r.stages[id]
	if !ok || s.LeagueID != leagueID || s.GroupID != groupID {
		return nil, repositories.ErrStageNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStageRepo) ListByGroup(_ context.Context, leagueID, groupID string) ([]*models.Stage, error) {
	var out []*models.Stage
	for _, s := range r.stages {
		if s.LeagueID == leagueID && s.GroupID == groupID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeStageRepo) ListChildren(_ context.Context, _ repositories.SQLExecutor, parentStageID string) ([]*models.Stage, error) {
	var out []*models.Stage
	for _, s := range r.stages {
		if s.ParentStageID != nil && *s.ParentStageID == parentStageID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeStageRepo) Delete(_ context.Context, _ repositories.SQLExecutor, leagueID, groupID, id string) error {
	s, ok := r.stages[id]
	if !ok || s.LeagueID != leagueID || s.GroupID != groupID {
		return repositories.ErrStageNotFound
	}
	delete(r.stages, id)
	return nil
}

type fakeMatchRepo struct {
	matches map[string]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[string]*models.Match)}
}

func cloneMatch(m *models.Match) *models.Match {
	cp := *m
	cp.Participants = append([]models.Participant(nil), m.Participants...)
	return &cp
}

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	r.matches[match.ID] = cloneMatch(match)
	return nil
}

func (r *fakeMatchRepo) inScope(m *models.Match, leagueID, groupID, stageID string) bool {
	return m.LeagueID == leagueID && m.GroupID == groupID && m.StageID == stageID
}

func (r *fakeMatchRepo) GetByID(_ context.Context, leagueID, groupID, stageID, id string) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok || !r.inScope(m, leagueID, groupID, stageID) {
		return nil, repositories.ErrMatchNotFound
	}
	return cloneMatch(m), nil
}

func (r *fakeMatchRepo) GetByGlobalID(_ context.Context, _ repositories.SQLExecutor, id string) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return cloneMatch(m), nil
}

func (r *fakeMatchRepo) GetForUpdate(_ context.Context, _ repositories.SQLExecutor, leagueID, groupID, stageID, id string) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok || !r.inScope(m, leagueID, groupID, stageID) {
		return nil, repositories.ErrMatchNotFound
	}
	return cloneMatch(m), nil
}

func (r *fakeMatchRepo) GetByMatchNumber(_ context.Context, leagueID, groupID, stageID string, matchNumber int) (*models.Match, error) {
	for _, m := range r.matches {
		if r.inScope(m, leagueID, groupID, stageID) && m.MatchNumber == matchNumber {
			return cloneMatch(m), nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) ListByStage(_ context.Context, leagueID, groupID, stageID string) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.matches {
		if r.inScope(m, leagueID, groupID, stageID) {
			out = append(out, cloneMatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchNumber < out[j].MatchNumber })
	return out, nil
}

func (r *fakeMatchRepo) ListFeeders(_ context.Context, _ repositories.SQLExecutor, nextMatchID string) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.matches {
		if m.NextMatchID != nil && *m.NextMatchID == nextMatchID {
			out = append(out, cloneMatch(m))
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) UpdateResolution(_ context.Context, _ repositories.SQLExecutor, id string, participants []models.Participant, status models.MatchStatus, winnerID *string, pointsApplied bool) error {
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Participants = append([]models.Participant(nil), participants...)
	m.Status = status
	m.WinnerID = winnerID
	m.PointsApplied = pointsApplied
	return nil
}

func (r *fakeMatchRepo) UpdateParticipants(_ context.Context, _ repositories.SQLExecutor, id string, participants []models.Participant) error {
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Participants = append([]models.Participant(nil), participants...)
	return nil
}

func (r *fakeMatchRepo) UpdateWiring(_ context.Context, _ repositories.SQLExecutor, id string, nextMatchID *string, targetSlot *int) error {
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.NextMatchID = nextMatchID
	m.TargetSlot = targetSlot
	return nil
}

func (r *fakeMatchRepo) DeleteByStage(_ context.Context, _ repositories.SQLExecutor, stageID string) error {
	for id, m := range r.matches {
		if m.StageID == stageID {
			delete(r.matches, id)
		}
	}
	return nil
}

type fakeStandingRepo struct {
	entries map[string]*models.PointsTableEntry
}

func newFakeStandingRepo() *fakeStandingRepo {
	return &fakeStandingRepo{entries: make(map[string]*models.PointsTableEntry)}
}

func standingKey(leagueID, groupID, refID string) string {
	return strings.Join([]string{leagueID, groupID, refID}, "|")
}

func (r *fakeStandingRepo) ApplyDelta(_ context.Context, _ repositories.SQLExecutor, leagueID, groupID string, delta models.StandingDelta) error {
	key := standingKey(leagueID, groupID, delta.RefID)
	e, ok := r.entries[key]
	if !ok {
		e = &models.PointsTableEntry{LeagueID: leagueID, GroupID: groupID, RefID: delta.RefID}
		r.entries[key] = e
	}
	if delta.Name != "" {
		e.Name = delta.Name
	}
	e.Points += delta.Points
	e.GamesPlayed += delta.Games
	e.Wins += delta.Wins
	e.Draws += delta.Draws
	e.Losses += delta.Losses
	return nil
}

func (r *fakeStandingRepo) GetByRef(_ context.Context, _ repositories.SQLExecutor, leagueID, groupID, refID string) (*models.PointsTableEntry, error) {
	e, ok := r.entries[standingKey(leagueID, groupID, refID)]
	if !ok {
		return nil, repositories.ErrStandingNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeStandingRepo) ListByGroup(_ context.Context, leagueID, groupID string) ([]*models.PointsTableEntry, error) {
	var out []*models.PointsTableEntry
	for _, e := range r.entries {
		if e.LeagueID == leagueID && e.GroupID == groupID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].RefID < out[j].RefID
	})
	return out, nil
}

func (r *fakeStandingRepo) DeleteByGroup(_ context.Context, _ repositories.SQLExecutor, leagueID, groupID string) error {
	for key, e := range r.entries {
		if e.LeagueID == leagueID && e.GroupID == groupID {
			delete(r.entries, key)
		}
	}
	return nil
}

type fakeLeagueRepo struct {
	leagues map[string]*models.League
}

func newFakeLeagueRepo() *fakeLeagueRepo {
	return &fakeLeagueRepo{leagues: make(map[string]*models.League)}
}

func (r *fakeLeagueRepo) Create(_ context.Context, _ repositories.SQLExecutor, league *models.League) error {
	cp := *league
	r.leagues[league.ID] = &cp
	return nil
}

func (r *fakeLeagueRepo) GetByID(_ context.Context, id string) (*models.League, error) {
	l, ok := r.leagues[id]
	if !ok {
		return nil, repositories.ErrLeagueNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLeagueRepo) List(_ context.Context, sportID *string) ([]*models.League, error) {
	var out []*models.League
	for _, l := range r.leagues {
		if sportID != nil && l.SportID != *sportID {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeLeagueRepo) UpdateName(_ context.Context, id, name string) error {
	l, ok := r.leagues[id]
	if !ok {
		return repositories.ErrLeagueNotFound
	}
	l.Name = name
	return nil
}

type fakeSportRepo struct {
	sports map[string]*models.Sport
}

func newFakeSportRepo() *fakeSportRepo {
	return &fakeSportRepo{sports: make(map[string]*models.Sport)}
}

func (r *fakeSportRepo) Create(_ context.Context, sport *models.Sport) error {
	for _, s := range r.sports {
		if s.Name == sport.Name {
			return repositories.ErrSportNameConflict
		}
	}
	cp := *sport
	r.sports[sport.ID] = &cp
	return nil
}

func (r *fakeSportRepo) GetByID(_ context.Context, id string) (*models.Sport, error) {
	s, ok := r.sports[id]
	if !ok {
		return nil, repositories.ErrSportNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSportRepo) List(_ context.Context) ([]*models.Sport, error) {
	var out []*models.Sport
	for _, s := range r.sports {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

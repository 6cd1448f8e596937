package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/campuscup/league-service/models"
	"github.com/campuscup/league-service/repositories"
	"github.com/google/uuid"
)

type CreateFixtureInput struct {
	MatchID      *string            `json:"match_id,omitempty"`
	HomeTeamID   string             `json:"home_team_id"`
	AwayTeamID   string             `json:"away_team_id"`
	HomeTeamName string             `json:"home_team_name"`
	AwayTeamName string             `json:"away_team_name"`
	Sport        string             `json:"sport"`
	ScheduledAt  time.Time          `json:"scheduled_at"`
	Venue        *string            `json:"venue,omitempty"`
	Type         models.FixtureType `json:"type"`
	LeagueID     *string            `json:"league_id,omitempty"`
	SeasonID     *string            `json:"season_id,omitempty"`
}

type FinalizeResultInput struct {
	Score       models.FixtureScore `json:"score"`
	GoalTimings []models.GoalTiming `json:"goal_timings,omitempty"`
}

type FixtureService interface {
	CreateFixture(ctx context.Context, input CreateFixtureInput) (*models.Fixture, error)
	GetFixture(ctx context.Context, id string) (*models.Fixture, error)
	ListFixtures(ctx context.Context, filter repositories.FixtureFilter) ([]*models.Fixture, error)
	UpdateFixtureStatus(ctx context.Context, id string, status models.FixtureStatus) error
	// FinalizeResult records the final score and, for a fixture linked to a
	// tournament match, resolves that match so the points table and bracket
	// follow along.
	FinalizeResult(ctx context.Context, id string, input FinalizeResultInput) (*models.Fixture, error)
}

type fixtureService struct {
	fixtureRepo  repositories.FixtureRepository
	matchRepo    repositories.MatchRepository
	matchService MatchService
	guard        *submissionGuard
	logger       *slog.Logger
}

func NewFixtureService(
	fixtureRepo repositories.FixtureRepository,
	matchRepo repositories.MatchRepository,
	matchService MatchService,
	dedupeWindow time.Duration,
	logger *slog.Logger,
) FixtureService {
	return &fixtureService{
		fixtureRepo:  fixtureRepo,
		matchRepo:    matchRepo,
		matchService: matchService,
		guard:        newSubmissionGuard(dedupeWindow),
		logger:       logger,
	}
}

func (s *fixtureService) CreateFixture(ctx context.Context, input CreateFixtureInput) (*models.Fixture, error) {
	if input.HomeTeamID == "" || input.AwayTeamID == "" {
		return nil, fmt.Errorf("%w: both team ids are required", ErrValidationFailed)
	}
	if input.HomeTeamID == input.AwayTeamID {
		return nil, ErrSameTeamFixture
	}
	if input.Sport == "" {
		return nil, ErrSportRequired
	}
	if input.Type != models.FixtureTypeLeague && input.Type != models.FixtureTypeFriendly {
		return nil, fmt.Errorf("%w: fixture type must be league or friendly", ErrValidationFailed)
	}
	if input.Type == models.FixtureTypeLeague && input.LeagueID == nil {
		return nil, fmt.Errorf("%w: a league fixture requires a league id", ErrValidationFailed)
	}

	if input.MatchID != nil {
		if _, err := s.matchRepo.GetByGlobalID(ctx, nil, *input.MatchID); err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return nil, ErrMatchNotFound
			}
			return nil, err
		}
	}

	fixture := &models.Fixture{
		ID:           uuid.NewString(),
		MatchID:      input.MatchID,
		HomeTeamID:   input.HomeTeamID,
		AwayTeamID:   input.AwayTeamID,
		HomeTeamName: input.HomeTeamName,
		AwayTeamName: input.AwayTeamName,
		Sport:        input.Sport,
		ScheduledAt:  input.ScheduledAt,
		Venue:        input.Venue,
		Status:       models.FixtureStatusScheduled,
		Type:         input.Type,
		LeagueID:     input.LeagueID,
		SeasonID:     input.SeasonID,
	}
	if err := s.fixtureRepo.Create(ctx, nil, fixture); err != nil {
		if errors.Is(err, repositories.ErrFixtureLinkInvalid) {
			return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		return nil, fmt.Errorf("failed to create fixture: %w", err)
	}

	s.logger.Info("fixture created",
		slog.String("fixture_id", fixture.ID),
		slog.String("sport", fixture.Sport),
		slog.String("type", string(fixture.Type)))
	return fixture, nil
}

func (s *fixtureService) GetFixture(ctx context.Context, id string) (*models.Fixture, error) {
	fixture, err := s.fixtureRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrFixtureNotFound) {
			return nil, ErrFixtureNotFound
		}
		return nil, err
	}
	return fixture, nil
}

func (s *fixtureService) ListFixtures(ctx context.Context, filter repositories.FixtureFilter) ([]*models.Fixture, error) {
	fixtures, err := s.fixtureRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list fixtures: %w", err)
	}
	return fixtures, nil
}

func (s *fixtureService) UpdateFixtureStatus(ctx context.Context, id string, status models.FixtureStatus) error {
	switch status {
	case models.FixtureStatusScheduled, models.FixtureStatusLive,
		models.FixtureStatusCompleted, models.FixtureStatusPostponed:
	default:
		return fmt.Errorf("%w: unknown fixture status %q", ErrValidationFailed, status)
	}
	err := s.fixtureRepo.UpdateStatus(ctx, id, status)
	if errors.Is(err, repositories.ErrFixtureNotFound) {
		return ErrFixtureNotFound
	}
	return err
}

func (s *fixtureService) FinalizeResult(ctx context.Context, id string, input FinalizeResultInput) (*models.Fixture, error) {
	if input.Score.Home < 0 || input.Score.Away < 0 {
		return nil, ErrNegativeScore
	}
	key := []string{"fixture", id, strconv.Itoa(input.Score.Home), strconv.Itoa(input.Score.Away)}
	if err := s.guard.Check(key...); err != nil {
		return nil, err
	}

	fixture, err := s.GetFixture(ctx, id)
	if err != nil {
		return nil, err
	}
	if fixture.Status == models.FixtureStatusCompleted {
		return nil, ErrFixtureAlreadyFinal
	}

	// Resolve the linked tournament match first; its transaction carries the
	// standings and advancement, and a failure there must not leave the
	// fixture looking final.
	if fixture.MatchID != nil {
		if err := s.resolveLinkedMatch(ctx, fixture, input.Score); err != nil {
			return nil, err
		}
	}

	fixture.Score = &models.FixtureScore{Home: input.Score.Home, Away: input.Score.Away}
	fixture.GoalTimings = input.GoalTimings
	fixture.Status = models.FixtureStatusCompleted

	if err := s.fixtureRepo.UpdateResult(ctx, nil, fixture); err != nil {
		if errors.Is(err, repositories.ErrFixtureNotFound) {
			return nil, ErrFixtureNotFound
		}
		return nil, fmt.Errorf("failed to store fixture result: %w", err)
	}
	s.guard.Mark(key...)

	s.logger.Info("fixture result finalized",
		slog.String("fixture_id", fixture.ID),
		slog.Int("home_score", input.Score.Home),
		slog.Int("away_score", input.Score.Away),
		slog.Bool("linked_match", fixture.MatchID != nil))
	return fixture, nil
}

func (s *fixtureService) resolveLinkedMatch(ctx context.Context, fixture *models.Fixture, score models.FixtureScore) error {
	match, err := s.matchRepo.GetByGlobalID(ctx, nil, *fixture.MatchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return fmt.Errorf("%w: linked match %s", ErrMatchNotFound, *fixture.MatchID)
		}
		return err
	}

	scores := []ScoreUpdate{
		{RefID: fixture.HomeTeamID, Score: float64(score.Home)},
		{RefID: fixture.AwayTeamID, Score: float64(score.Away)},
	}
	_, err = s.matchService.UpdateScores(ctx,
		match.LeagueID, models.ExplicitGroup(match.GroupID), match.StageID, match.ID, scores)
	if err != nil && !errors.Is(err, ErrDuplicateSubmission) {
		return err
	}
	return nil
}

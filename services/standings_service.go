package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/campuscup/league-service/models"
	"github.com/campuscup/league-service/repositories"
)

type StandingsService interface {
	// GetPointsTable returns the accumulated table of one group, ordered by
	// points, then wins, then ref id for a stable presentation.
	GetPointsTable(ctx context.Context, leagueID string, groupRef models.GroupRef) ([]*models.PointsTableEntry, error)
	GetStanding(ctx context.Context, leagueID string, groupRef models.GroupRef, refID string) (*models.PointsTableEntry, error)
	// ResetPointsTable wipes a group's table, typically before a season
	// restart.
	ResetPointsTable(ctx context.Context, leagueID string, groupRef models.GroupRef) error
}

type standingsService struct {
	groupResolver
	txManager    repositories.TxManager
	standingRepo repositories.StandingRepository
	logger       *slog.Logger
}

func NewStandingsService(
	txManager repositories.TxManager,
	standingRepo repositories.StandingRepository,
	groupRepo repositories.GroupRepository,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		groupResolver: groupResolver{groupRepo: groupRepo},
		txManager:     txManager,
		standingRepo:  standingRepo,
		logger:        logger,
	}
}

func (s *standingsService) GetPointsTable(ctx context.Context, leagueID string, groupRef models.GroupRef) ([]*models.PointsTableEntry, error) {
	group, err := s.resolveGroup(ctx, leagueID, groupRef)
	if err != nil {
		return nil, err
	}
	entries, err := s.standingRepo.ListByGroup(ctx, leagueID, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load points table for group %s: %w", group.ID, err)
	}
	return entries, nil
}

func (s *standingsService) GetStanding(ctx context.Context, leagueID string, groupRef models.GroupRef, refID string) (*models.PointsTableEntry, error) {
	group, err := s.resolveGroup(ctx, leagueID, groupRef)
	if err != nil {
		return nil, err
	}
	entry, err := s.standingRepo.GetByRef(ctx, nil, leagueID, group.ID, refID)
	if err != nil {
		if errors.Is(err, repositories.ErrStandingNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *standingsService) ResetPointsTable(ctx context.Context, leagueID string, groupRef models.GroupRef) error {
	group, err := s.resolveGroup(ctx, leagueID, groupRef)
	if err != nil {
		return err
	}
	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.standingRepo.DeleteByGroup(ctx, exec, leagueID, group.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to reset points table for group %s: %w", group.ID, err)
	}

	s.logger.Info("points table reset",
		slog.String("league_id", leagueID),
		slog.String("group_id", group.ID))
	return nil
}

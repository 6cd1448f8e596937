package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/campuscup/league-service/models"
	"github.com/campuscup/league-service/repositories"
	"github.com/google/uuid"
)

type CreateSeasonInput struct {
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type CreateSportInput struct {
	Name string           `json:"name"`
	Type models.SportType `json:"type"`
}

type SeasonService interface {
	CreateSport(ctx context.Context, input CreateSportInput) (*models.Sport, error)
	ListSports(ctx context.Context) ([]*models.Sport, error)

	CreateSeason(ctx context.Context, sportID string, input CreateSeasonInput) (*models.Season, error)
	ListSeasons(ctx context.Context, sportID string) ([]*models.Season, error)
	GetActiveSeason(ctx context.Context, sportID string) (*models.Season, error)
	// SetActiveSeason makes the season the only active one for its sport.
	SetActiveSeason(ctx context.Context, sportID, seasonID string) error
}

type seasonService struct {
	txManager  repositories.TxManager
	seasonRepo repositories.SeasonRepository
	sportRepo  repositories.SportRepository
	logger     *slog.Logger
}

func NewSeasonService(
	txManager repositories.TxManager,
	seasonRepo repositories.SeasonRepository,
	sportRepo repositories.SportRepository,
	logger *slog.Logger,
) SeasonService {
	return &seasonService{
		txManager:  txManager,
		seasonRepo: seasonRepo,
		sportRepo:  sportRepo,
		logger:     logger,
	}
}

func (s *seasonService) CreateSport(ctx context.Context, input CreateSportInput) (*models.Sport, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrSportNameRequired
	}
	if input.Type != models.SportTypeTeam && input.Type != models.SportTypeIndividual {
		return nil, fmt.Errorf("%w: sport type must be team or individual", ErrValidationFailed)
	}

	sport := &models.Sport{
		ID:   uuid.NewString(),
		Name: strings.TrimSpace(input.Name),
		Type: input.Type,
	}
	if err := s.sportRepo.Create(ctx, sport); err != nil {
		if errors.Is(err, repositories.ErrSportNameConflict) {
			return nil, ErrSportNameConflict
		}
		return nil, fmt.Errorf("failed to create sport: %w", err)
	}

	s.logger.Info("sport created",
		slog.String("sport_id", sport.ID),
		slog.String("type", string(sport.Type)))
	return sport, nil
}

func (s *seasonService) ListSports(ctx context.Context) ([]*models.Sport, error) {
	return s.sportRepo.List(ctx)
}

func (s *seasonService) CreateSeason(ctx context.Context, sportID string, input CreateSeasonInput) (*models.Season, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrSeasonNameRequired
	}
	if _, err := s.sportRepo.GetByID(ctx, sportID); err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrSportNotFound
		}
		return nil, err
	}

	season := &models.Season{
		ID:       uuid.NewString(),
		SportID:  sportID,
		Name:     strings.TrimSpace(input.Name),
		IsActive: input.IsActive,
	}

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.seasonRepo.Create(ctx, exec, season); err != nil {
			return err
		}
		if season.IsActive {
			// Only one season per sport may be active at a time.
			return s.seasonRepo.SetActive(ctx, exec, sportID, season.ID)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrSeasonNameConflict):
			return nil, ErrSeasonNameConflict
		case errors.Is(err, repositories.ErrSeasonSportInvalid):
			return nil, ErrSportNotFound
		}
		return nil, fmt.Errorf("failed to create season: %w", err)
	}

	s.logger.Info("season created",
		slog.String("sport_id", sportID),
		slog.String("season_id", season.ID),
		slog.Bool("is_active", season.IsActive))
	return season, nil
}

func (s *seasonService) ListSeasons(ctx context.Context, sportID string) ([]*models.Season, error) {
	seasons, err := s.seasonRepo.ListBySport(ctx, sportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons for sport %s: %w", sportID, err)
	}
	return seasons, nil
}

func (s *seasonService) GetActiveSeason(ctx context.Context, sportID string) (*models.Season, error) {
	season, err := s.seasonRepo.GetActive(ctx, sportID)
	if err != nil {
		if errors.Is(err, repositories.ErrSeasonNotFound) {
			return nil, ErrSeasonNotFound
		}
		return nil, err
	}
	return season, nil
}

func (s *seasonService) SetActiveSeason(ctx context.Context, sportID, seasonID string) error {
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.seasonRepo.SetActive(ctx, exec, sportID, seasonID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrSeasonNotFound) {
			return ErrSeasonNotFound
		}
		return err
	}

	s.logger.Info("active season switched",
		slog.String("sport_id", sportID),
		slog.String("season_id", seasonID))
	return nil
}

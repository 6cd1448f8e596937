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
	"golang.org/x/sync/errgroup"
)

type CreateLeagueInput struct {
	Name        string  `json:"name"`
	SportID     string  `json:"sport_id"`
	Description *string `json:"description,omitempty"`
	HasGroups   bool    `json:"has_groups"`
}

type CreateGroupInput struct {
	Name          string  `json:"name"`
	ParentGroupID *string `json:"parent_group_id,omitempty"`
}

type LeagueService interface {
	CreateLeague(ctx context.Context, input CreateLeagueInput) (*models.League, error)
	GetLeague(ctx context.Context, id string) (*models.League, error)
	ListLeagues(ctx context.Context, sportID *string) ([]*models.League, error)
	RenameLeague(ctx context.Context, id, name string) error
	CreateGroup(ctx context.Context, leagueID string, input CreateGroupInput) (*models.Group, error)
	ListGroups(ctx context.Context, leagueID string) ([]*models.Group, error)
	ResolveGroup(ctx context.Context, leagueID string, ref models.GroupRef) (*models.Group, error)
}

type leagueService struct {
	groupResolver
	txManager  repositories.TxManager
	leagueRepo repositories.LeagueRepository
	groupRepo  repositories.GroupRepository
	sportRepo  repositories.SportRepository
	logger     *slog.Logger
}

func NewLeagueService(
	txManager repositories.TxManager,
	leagueRepo repositories.LeagueRepository,
	groupRepo repositories.GroupRepository,
	sportRepo repositories.SportRepository,
	logger *slog.Logger,
) LeagueService {
	return &leagueService{
		groupResolver: groupResolver{groupRepo: groupRepo},
		txManager:     txManager,
		leagueRepo:    leagueRepo,
		groupRepo:     groupRepo,
		sportRepo:     sportRepo,
		logger:        logger,
	}
}

// CreateLeague creates the league row and, when grouping is disabled, the
// implicit General group in the same transaction so group-scoped addressing
// is valid immediately after creation.
func (s *leagueService) CreateLeague(ctx context.Context, input CreateLeagueInput) (*models.League, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrLeagueNameRequired
	}
	if input.SportID == "" {
		return nil, ErrSportRequired
	}

	sport, err := s.sportRepo.GetByID(ctx, input.SportID)
	if err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrSportNotFound
		}
		return nil, fmt.Errorf("failed to load sport %s: %w", input.SportID, err)
	}

	league := &models.League{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(input.Name),
		SportID:     sport.ID,
		SportName:   sport.Name,
		SportType:   sport.Type,
		Description: input.Description,
		HasGroups:   input.HasGroups,
	}

	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.leagueRepo.Create(ctx, exec, league); err != nil {
			return fmt.Errorf("failed to create league: %w", err)
		}
		if !league.HasGroups {
			general := &models.Group{
				ID:       uuid.NewString(),
				LeagueID: league.ID,
				Name:     models.GeneralGroupName,
			}
			if err := s.groupRepo.Create(ctx, exec, general); err != nil {
				return fmt.Errorf("failed to create implicit general group: %w", err)
			}
			league.Groups = []models.Group{*general}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("league created",
		slog.String("league_id", league.ID),
		slog.String("sport_id", league.SportID),
		slog.Bool("has_groups", league.HasGroups))
	return league, nil
}

func (s *leagueService) GetLeague(ctx context.Context, id string) (*models.League, error) {
	league, err := s.leagueRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		groups, err := s.groupRepo.ListByLeague(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to list groups for league %s: %w", id, err)
		}
		league.Groups = make([]models.Group, len(groups))
		for i, grp := range groups {
			league.Groups[i] = *grp
		}
		return nil
	})

	g.Go(func() error {
		sport, err := s.sportRepo.GetByID(gCtx, league.SportID)
		if err != nil {
			// The denormalized sport name on the league still renders; log
			// and carry on.
			s.logger.Warn("failed to populate sport details",
				slog.String("league_id", id),
				slog.String("sport_id", league.SportID),
				slog.Any("error", err))
			return nil
		}
		league.Sport = sport
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return league, nil
}

func (s *leagueService) ListLeagues(ctx context.Context, sportID *string) ([]*models.League, error) {
	leagues, err := s.leagueRepo.List(ctx, sportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues: %w", err)
	}
	return leagues, nil
}

func (s *leagueService) RenameLeague(ctx context.Context, id, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrLeagueNameRequired
	}
	err := s.leagueRepo.UpdateName(ctx, id, strings.TrimSpace(name))
	if errors.Is(err, repositories.ErrLeagueNotFound) {
		return ErrLeagueNotFound
	}
	return err
}

func (s *leagueService) CreateGroup(ctx context.Context, leagueID string, input CreateGroupInput) (*models.Group, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrGroupNameRequired
	}
	if _, err := s.leagueRepo.GetByID(ctx, leagueID); err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}

	if input.ParentGroupID != nil {
		parent, err := s.groupRepo.GetByID(ctx, leagueID, *input.ParentGroupID)
		if err != nil {
			if errors.Is(err, repositories.ErrGroupNotFound) {
				return nil, ErrGroupNotFound
			}
			return nil, err
		}
		// One level of nesting only.
		if parent.ParentGroupID != nil {
			return nil, ErrSubgroupTooDeep
		}
	}

	group := &models.Group{
		ID:            uuid.NewString(),
		LeagueID:      leagueID,
		Name:          strings.TrimSpace(input.Name),
		ParentGroupID: input.ParentGroupID,
	}
	if err := s.groupRepo.Create(ctx, nil, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	s.logger.Info("group created",
		slog.String("league_id", leagueID),
		slog.String("group_id", group.ID))
	return group, nil
}

func (s *leagueService) ListGroups(ctx context.Context, leagueID string) ([]*models.Group, error) {
	if _, err := s.leagueRepo.GetByID(ctx, leagueID); err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}
	groups, err := s.groupRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups for league %s: %w", leagueID, err)
	}
	return groups, nil
}

func (s *leagueService) ResolveGroup(ctx context.Context, leagueID string, ref models.GroupRef) (*models.Group, error) {
	return s.resolveGroup(ctx, leagueID, ref)
}

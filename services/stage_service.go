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

type CreateStageInput struct {
	Name          string           `json:"name"`
	Type          models.StageType `json:"type"`
	Order         int              `json:"order"` // 0 means append after existing siblings
	ParentStageID *string          `json:"parent_stage_id,omitempty"`
}

type StageService interface {
	CreateStage(ctx context.Context, leagueID string, groupRef models.GroupRef, input CreateStageInput) (*models.Stage, error)
	ListStages(ctx context.Context, leagueID string, groupRef models.GroupRef) ([]*models.Stage, error)
	// DeleteStageRecursive removes the stage, its substages at any depth and
	// all of their matches in one transaction, so no orphan is ever
	// reachable afterwards.
	DeleteStageRecursive(ctx context.Context, leagueID string, groupRef models.GroupRef, stageID string) error
}

type stageService struct {
	groupResolver
	txManager repositories.TxManager
	stageRepo repositories.StageRepository
	matchRepo repositories.MatchRepository
	logger    *slog.Logger
}

func NewStageService(
	txManager repositories.TxManager,
	stageRepo repositories.StageRepository,
	matchRepo repositories.MatchRepository,
	groupRepo repositories.GroupRepository,
	logger *slog.Logger,
) StageService {
	return &stageService{
		groupResolver: groupResolver{groupRepo: groupRepo},
		txManager:     txManager,
		stageRepo:     stageRepo,
		matchRepo:     matchRepo,
		logger:        logger,
	}
}

func (s *stageService) CreateStage(ctx context.Context, leagueID string, groupRef models.GroupRef, input CreateStageInput) (*models.Stage, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrStageNameRequired
	}
	if input.Type != models.StageTypeKnockout && input.Type != models.StageTypeRoundRobin {
		return nil, ErrStageTypeInvalid
	}

	group, err := s.resolveGroup(ctx, leagueID, groupRef)
	if err != nil {
		return nil, err
	}

	if input.ParentStageID != nil {
		// The parent must live in the same league and group; a dangling or
		// cross-group parent would break the stage tree.
		if _, err := s.stageRepo.GetByID(ctx, leagueID, group.ID, *input.ParentStageID); err != nil {
			if errors.Is(err, repositories.ErrStageNotFound) {
				return nil, ErrStageParentMismatch
			}
			return nil, err
		}
	}

	order := input.Order
	if order <= 0 {
		siblings, err := s.stageRepo.ListByGroup(ctx, leagueID, group.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count sibling stages: %w", err)
		}
		order = len(siblings) + 1
	}

	stage := &models.Stage{
		ID:            uuid.NewString(),
		LeagueID:      leagueID,
		GroupID:       group.ID,
		Name:          strings.TrimSpace(input.Name),
		Type:          input.Type,
		Order:         order,
		ParentStageID: input.ParentStageID,
	}
	if err := s.stageRepo.Create(ctx, nil, stage); err != nil {
		return nil, fmt.Errorf("failed to create stage: %w", err)
	}

	s.logger.Info("stage created",
		slog.String("league_id", leagueID),
		slog.String("group_id", group.ID),
		slog.String("stage_id", stage.ID),
		slog.String("type", string(stage.Type)))
	return stage, nil
}

func (s *stageService) ListStages(ctx context.Context, leagueID string, groupRef models.GroupRef) ([]*models.Stage, error) {
	group, err := s.resolveGroup(ctx, leagueID, groupRef)
	if err != nil {
		return nil, err
	}
	stages, err := s.stageRepo.ListByGroup(ctx, leagueID, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages for group %s: %w", group.ID, err)
	}
	return stages, nil
}

func (s *stageService) DeleteStageRecursive(ctx context.Context, leagueID string, groupRef models.GroupRef, stageID string) error {
	group, err := s.resolveGroup(ctx, leagueID, groupRef)
	if err != nil {
		return err
	}
	if _, err := s.stageRepo.GetByID(ctx, leagueID, group.ID, stageID); err != nil {
		if errors.Is(err, repositories.ErrStageNotFound) {
			return ErrStageNotFound
		}
		return err
	}

	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.deleteSubtree(ctx, exec, leagueID, group.ID, stageID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("stage deleted recursively",
		slog.String("league_id", leagueID),
		slog.String("group_id", group.ID),
		slog.String("stage_id", stageID))
	return nil
}

// deleteSubtree removes children depth-first so the FK from substage to
// parent never dangles mid-transaction.
func (s *stageService) deleteSubtree(ctx context.Context, exec repositories.SQLExecutor, leagueID, groupID, stageID string) error {
	children, err := s.stageRepo.ListChildren(ctx, exec, stageID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.deleteSubtree(ctx, exec, leagueID, groupID, child.ID); err != nil {
			return err
		}
	}
	if err := s.matchRepo.DeleteByStage(ctx, exec, stageID); err != nil {
		return fmt.Errorf("failed to delete matches of stage %s: %w", stageID, err)
	}
	if err := s.stageRepo.Delete(ctx, exec, leagueID, groupID, stageID); err != nil {
		return fmt.Errorf("failed to delete stage %s: %w", stageID, err)
	}
	return nil
}

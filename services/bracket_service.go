package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/campuscup/league-service/brackets"
	"github.com/campuscup/league-service/metrics"
	"github.com/campuscup/league-service/models"
	"github.com/campuscup/league-service/repositories"
	"github.com/google/uuid"
)

type GenerateBracketInput struct {
	StageName string             `json:"stage_name"`
	Entrants  []brackets.Entrant `json:"entrants"`
	StartDate time.Time          `json:"start_date"`
	SeasonID  *string            `json:"season_id,omitempty"`
}

// GeneratedBracket is the persisted result of one knockout generation.
type GeneratedBracket struct {
	Stage   *models.Stage   `json:"stage"`
	Matches []*models.Match `json:"matches"`
}

type BracketService interface {
	// GenerateKnockout creates a knockout stage and its full single
	// elimination tree in one transaction, with every non-final match wired
	// to a successor slot.
	GenerateKnockout(ctx context.Context, leagueID string, groupRef models.GroupRef, input GenerateBracketInput) (*GeneratedBracket, error)
}

type bracketService struct {
	groupResolver
	txManager repositories.TxManager
	stageRepo repositories.StageRepository
	matchRepo repositories.MatchRepository
	recorder  metrics.Recorder
	logger    *slog.Logger
}

func NewBracketService(
	txManager repositories.TxManager,
	stageRepo repositories.StageRepository,
	matchRepo repositories.MatchRepository,
	groupRepo repositories.GroupRepository,
	recorder metrics.Recorder,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		groupResolver: groupResolver{groupRepo: groupRepo},
		txManager:     txManager,
		stageRepo:     stageRepo,
		matchRepo:     matchRepo,
		recorder:      recorder,
		logger:        logger,
	}
}

func (s *bracketService) GenerateKnockout(ctx context.Context, leagueID string, groupRef models.GroupRef, input GenerateBracketInput) (*GeneratedBracket, error) {
	if strings.TrimSpace(input.StageName) == "" {
		return nil, ErrStageNameRequired
	}
	if len(input.Entrants) < 2 {
		return nil, ErrTooFewParticipants
	}

	group, err := s.resolveGroup(ctx, leagueID, groupRef)
	if err != nil {
		return nil, err
	}

	plan, err := brackets.PlanKnockout(input.Entrants)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	siblings, err := s.stageRepo.ListByGroup(ctx, leagueID, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sibling stages: %w", err)
	}

	stage := &models.Stage{
		ID:       uuid.NewString(),
		LeagueID: leagueID,
		GroupID:  group.ID,
		Name:     strings.TrimSpace(input.StageName),
		Type:     models.StageTypeKnockout,
		Order:    len(siblings) + 1,
	}

	matches := make([]*models.Match, len(plan))

	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.stageRepo.Create(ctx, exec, stage); err != nil {
			return fmt.Errorf("failed to create knockout stage: %w", err)
		}

		// First pass: persist the matches so every plan index has an id.
		for i, pm := range plan {
			match := &models.Match{
				ID:          uuid.NewString(),
				LeagueID:    leagueID,
				GroupID:     group.ID,
				StageID:     stage.ID,
				MatchNumber: i + 1,
				Date:        input.StartDate,
				Status:      models.MatchStatusPending,
				Participants: []models.Participant{
					participantForSlot(pm.Entrant1),
					participantForSlot(pm.Entrant2),
				},
				SeasonID: input.SeasonID,
			}
			if !input.StartDate.IsZero() {
				match.Status = models.MatchStatusScheduled
			}
			if err := s.matchRepo.Create(ctx, exec, match); err != nil {
				return fmt.Errorf("failed to create bracket match %d: %w", i+1, err)
			}
			matches[i] = match
		}

		// Second pass: translate plan indices into persisted ids.
		entries := make([]brackets.WiringEntry, len(plan))
		for i, pm := range plan {
			if pm.NextIndex != nil {
				nextID := matches[*pm.NextIndex].ID
				slot := *pm.TargetSlot
				if err := s.matchRepo.UpdateWiring(ctx, exec, matches[i].ID, &nextID, &slot); err != nil {
					return fmt.Errorf("failed to wire match %d: %w", i+1, err)
				}
				matches[i].NextMatchID = &nextID
				matches[i].TargetSlot = &slot
			}
			entries[i] = brackets.WiringEntry{
				ID:          matches[i].ID,
				NextMatchID: matches[i].NextMatchID,
				TargetSlot:  matches[i].TargetSlot,
			}
		}

		// The generated tree must be internally consistent before commit.
		if err := brackets.ValidateWiring(entries); err != nil {
			return fmt.Errorf("generated bracket failed wiring validation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("knockout bracket generated",
		slog.String("league_id", leagueID),
		slog.String("group_id", group.ID),
		slog.String("stage_id", stage.ID),
		slog.Int("entrants", len(input.Entrants)),
		slog.Int("matches", len(matches)))
	return &GeneratedBracket{Stage: stage, Matches: matches}, nil
}

// placeholderName fills a bracket slot until advancement decides it.
const placeholderName = "TBD"

// participantForSlot turns a planned entrant into a match participant; a nil
// entrant marks a slot fed by an earlier round and stays a placeholder until
// advancement fills it.
func participantForSlot(e *brackets.Entrant) models.Participant {
	if e == nil {
		return models.Participant{Name: placeholderName}
	}
	return models.Participant{
		RefType: e.RefType,
		RefID:   e.RefID,
		Name:    e.Name,
		Score:   0,
	}
}

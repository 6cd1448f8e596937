package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/campuscup/league-service/metrics"
	"github.com/campuscup/league-service/models"
	"github.com/campuscup/league-service/repositories"
	"github.com/google/uuid"
)

type CreateMatchInput struct {
	MatchNumber  int                  `json:"match_number"`
	Date         time.Time            `json:"date"`
	Venue        *string              `json:"venue,omitempty"`
	Participants []models.Participant `json:"participants"`
	SeasonID     *string              `json:"season_id,omitempty"`
	NextMatchID  *string              `json:"next_match_id,omitempty"`
	TargetSlot   *int                 `json:"target_slot,omitempty"`
}

// ScoreUpdate carries one participant's new score into a resolution.
type ScoreUpdate struct {
	RefID string  `json:"ref_id"`
	Score float64 `json:"score"`
}

type MatchService interface {
	CreateMatch(ctx context.Context, leagueID string, groupRef models.GroupRef, stageID string, input CreateMatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, leagueID string, groupRef models.GroupRef, stageID, matchID string) (*models.Match, error)
	ListMatches(ctx context.Context, leagueID string, groupRef models.GroupRef, stageID string) ([]*models.Match, error)
	// UpdateScores resolves the match from the supplied scores and applies
	// the standings deltas and any bracket advancement in one transaction.
	UpdateScores(ctx context.Context, leagueID string, groupRef models.GroupRef, stageID, matchID string, scores []ScoreUpdate) (*models.Match, error)
	// AdvanceWinner writes a winner into a slot of the successor match. A
	// missing successor id is a silent no-op.
	AdvanceWinner(ctx context.Context, winnerID, winnerName, nextMatchID string, targetSlot int) error
}

type matchService struct {
	groupResolver
	txManager    repositories.TxManager
	matchRepo    repositories.MatchRepository
	stageRepo    repositories.StageRepository
	standingRepo repositories.StandingRepository
	guard        *submissionGuard
	recorder     metrics.Recorder
	logger       *slog.Logger
}

func NewMatchService(
	txManager repositories.TxManager,
	matchRepo repositories.MatchRepository,
	stageRepo repositories.StageRepository,
	standingRepo repositories.StandingRepository,
	groupRepo repositories.GroupRepository,
	dedupeWindow time.Duration,
	recorder metrics.Recorder,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		groupResolver: groupResolver{groupRepo: groupRepo},
		txManager:     txManager,
		matchRepo:     matchRepo,
		stageRepo:     stageRepo,
		standingRepo:  standingRepo,
		guard:         newSubmissionGuard(dedupeWindow),
		recorder:      recorder,
		logger:        logger,
	}
}

func (s *matchService) CreateMatch(ctx context.Context, leagueID string, groupRef models.GroupRef, stageID string, input CreateMatchInput) (*models.Match, error) {
	if len(input.Participants) < 2 {
		return nil, ErrTooFewParticipants
	}
	seen := make(map[string]bool, len(input.Participants))
	for _, p := range input.Participants {
		if p.RefID == "" || seen[p.RefID] {
			return nil, fmt.Errorf("%w: ref ids must be present and unique", ErrValidationFailed)
		}
		seen[p.RefID] = true
	}

	group, err := s.resolveGroup(ctx, leagueID, groupRef)
	if err != nil {
		return nil, err
	}
	if _, err := s.stageRepo.GetByID(ctx, leagueID, group.ID, stageID); err != nil {
		if errors.Is(err, repositories.ErrStageNotFound) {
			return nil, ErrStageNotFound
		}
		return nil, err
	}

	if err := s.validateWiring(ctx, input.NextMatchID, input.TargetSlot); err != nil {
		return nil, err
	}

	// Entrants always start unscored.
	participants := make([]models.Participant, len(input.Participants))
	for i, p := range input.Participants {
		p.Score = 0
		participants[i] = p
	}

	status := models.MatchStatusPending
	if !input.Date.IsZero() {
		status = models.MatchStatusScheduled
	}

	match := &models.Match{
		ID:           uuid.NewString(),
		LeagueID:     leagueID,
		GroupID:      group.ID,
		StageID:      stageID,
		MatchNumber:  input.MatchNumber,
		Date:         input.Date,
		Venue:        input.Venue,
		Status:       status,
		Participants: participants,
		SeasonID:     input.SeasonID,
		NextMatchID:  input.NextMatchID,
		TargetSlot:   input.TargetSlot,
	}
	if err := s.matchRepo.Create(ctx, nil, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	s.logger.Info("match created",
		slog.String("league_id", leagueID),
		slog.String("group_id", group.ID),
		slog.String("stage_id", stageID),
		slog.String("match_id", match.ID))
	return match, nil
}

// validateWiring rejects advancement wiring that points nowhere or would
// feed a successor slot twice. Cycles cannot arise here: nothing points at a
// match that does not exist yet.
func (s *matchService) validateWiring(ctx context.Context, nextMatchID *string, targetSlot *int) error {
	if nextMatchID == nil && targetSlot == nil {
		return nil
	}
	if nextMatchID == nil || targetSlot == nil {
		return fmt.Errorf("%w: next match id and target slot must be set together", ErrValidationFailed)
	}
	if *targetSlot != 0 && *targetSlot != 1 {
		return ErrTargetSlotInvalid
	}
	if _, err := s.matchRepo.GetByGlobalID(ctx, nil, *nextMatchID); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return fmt.Errorf("%w: successor match %s", ErrMatchNotFound, *nextMatchID)
		}
		return err
	}
	feeders, err := s.matchRepo.ListFeeders(ctx, nil, *nextMatchID)
	if err != nil {
		return err
	}
	for _, f := range feeders {
		if f.TargetSlot != nil && *f.TargetSlot == *targetSlot {
			return fmt.Errorf("%w: slot %d of match %s is already fed by match %s",
				ErrValidationFailed, *targetSlot, *nextMatchID, f.ID)
		}
	}
	return nil
}

func (s *matchService) GetMatch(ctx context.Context, leagueID string, groupRef models.GroupRef, stageID, matchID string) (*models.Match, error) {
	group, err := s.resolveGroup(ctx, leagueID, groupRef)
	if err != nil {
		return nil, err
	}
	match, err := s.matchRepo.GetByID(ctx, leagueID, group.ID, stageID, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *matchService) ListMatches(ctx context.Context, leagueID string, groupRef models.GroupRef, stageID string) ([]*models.Match, error) {
	group, err := s.resolveGroup(ctx, leagueID, groupRef)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByStage(ctx, leagueID, group.ID, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for stage %s: %w", stageID, err)
	}
	return matches, nil
}

func (s *matchService) UpdateScores(ctx context.Context, leagueID string, groupRef models.GroupRef, stageID, matchID string, scores []ScoreUpdate) (*models.Match, error) {
	if len(scores) == 0 {
		return nil, fmt.Errorf("%w: no scores supplied", ErrValidationFailed)
	}
	for _, sc := range scores {
		if sc.Score < 0 {
			return nil, ErrNegativeScore
		}
	}

	key := submissionKey(matchID, scores)
	if err := s.guard.Check(key...); err != nil {
		return nil, err
	}

	group, err := s.resolveGroup(ctx, leagueID, groupRef)
	if err != nil {
		return nil, err
	}

	var resolved *models.Match
	standingsWrites := 0
	advanced := false
	started := time.Now()

	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		standingsWrites, advanced = 0, false

		match, err := s.matchRepo.GetForUpdate(ctx, exec, leagueID, group.ID, stageID, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		if len(match.Participants) < 2 {
			return ErrTooFewParticipants
		}

		// Capture the previously applied contribution before the scores are
		// touched, so a re-score reverses exactly what was added.
		var reversal []models.StandingDelta
		var prevWinnerID *string
		if match.Status == models.MatchStatusCompleted && match.PointsApplied {
			reversal = standingsDeltas(match.Participants, match.WinnerID, -1)
			prevWinnerID = match.WinnerID
		}

		byRef := make(map[string]int, len(match.Participants))
		for i, p := range match.Participants {
			byRef[p.RefID] = i
		}
		for _, sc := range scores {
			i, ok := byRef[sc.RefID]
			if !ok {
				return fmt.Errorf("%w: %s", ErrParticipantUnknown, sc.RefID)
			}
			match.Participants[i].Score = sc.Score
		}

		winnerID := resolveOutcome(match.Participants)
		match.WinnerID = winnerID
		match.Status = models.MatchStatusCompleted
		match.PointsApplied = true

		if err := s.matchRepo.UpdateResolution(ctx, exec, match.ID, match.Participants, match.Status, match.WinnerID, true); err != nil {
			return err
		}

		for _, delta := range reversal {
			if err := s.standingRepo.ApplyDelta(ctx, exec, leagueID, group.ID, delta); err != nil {
				return err
			}
			standingsWrites++
		}
		for _, delta := range standingsDeltas(match.Participants, winnerID, 1) {
			if err := s.standingRepo.ApplyDelta(ctx, exec, leagueID, group.ID, delta); err != nil {
				return err
			}
			standingsWrites++
		}

		// A re-score that flips the outcome must pull the old winner back out
		// of the successor slot before (or instead of) the new advancement.
		if prevWinnerID != nil && match.NextMatchID != nil && match.TargetSlot != nil {
			if winnerID == nil || *winnerID != *prevWinnerID {
				if err := s.retractInTx(ctx, exec, *prevWinnerID, *match.NextMatchID, *match.TargetSlot); err != nil {
					return err
				}
			}
		}

		if winnerID != nil && match.NextMatchID != nil && match.TargetSlot != nil {
			winner := match.Participants[byRef[*winnerID]]
			if err := s.advanceInTx(ctx, exec, winner, *match.NextMatchID, *match.TargetSlot); err != nil {
				if errors.Is(err, ErrMatchNotFound) {
					// A cascade delete may have removed the successor; the
					// resolution itself still stands.
					s.logger.Warn("advancement skipped, successor match missing",
						slog.String("match_id", match.ID),
						slog.String("next_match_id", *match.NextMatchID))
				} else {
					return err
				}
			} else {
				advanced = true
			}
		}

		resolved = match
		return nil
	})
	s.recorder.ObserveResolutionDuration(time.Since(started).Seconds())
	if err != nil {
		if errors.Is(err, repositories.ErrTxRetriesExhausted) {
			s.logger.Error("score update conflict retries exhausted",
				slog.String("league_id", leagueID),
				slog.String("match_id", matchID),
				slog.Any("error", err))
			return nil, ErrConflictRetriesExhausted
		}
		return nil, err
	}
	s.guard.Mark(key...)

	for i := 0; i < standingsWrites; i++ {
		s.recorder.IncStandingsUpdates()
	}
	if advanced {
		s.recorder.IncAdvancements()
	}
	s.recorder.IncMatchesResolved()
	if resolved.WinnerID == nil {
		s.recorder.IncDraws()
	}
	s.logger.Info("match resolved",
		slog.String("league_id", leagueID),
		slog.String("match_id", matchID),
		slog.String("winner_id", derefString(resolved.WinnerID)),
		slog.Bool("draw", resolved.WinnerID == nil))
	return resolved, nil
}

func (s *matchService) AdvanceWinner(ctx context.Context, winnerID, winnerName, nextMatchID string, targetSlot int) error {
	if nextMatchID == "" {
		return nil // no successor wiring, nothing to do
	}
	if targetSlot != 0 && targetSlot != 1 {
		return ErrTargetSlotInvalid
	}

	winner := models.Participant{RefID: winnerID, Name: winnerName}
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.advanceInTx(ctx, exec, winner, nextMatchID, targetSlot)
	})
	if err != nil {
		return err
	}
	s.recorder.IncAdvancements()
	s.logger.Info("winner advanced",
		slog.String("winner_id", winnerID),
		slog.String("next_match_id", nextMatchID),
		slog.Int("target_slot", targetSlot))
	return nil
}

func (s *matchService) advanceInTx(ctx context.Context, exec repositories.SQLExecutor, winner models.Participant, nextMatchID string, targetSlot int) error {
	successor, err := s.matchRepo.GetByGlobalID(ctx, exec, nextMatchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return err
	}
	if targetSlot >= len(successor.Participants) {
		return ErrTargetSlotInvalid
	}

	refType := winner.RefType
	if refType == "" {
		refType = successor.Participants[targetSlot].RefType
	}
	successor.Participants[targetSlot] = models.Participant{
		RefType: refType,
		RefID:   winner.RefID,
		Name:    winner.Name,
		Score:   0,
	}

	return s.matchRepo.UpdateParticipants(ctx, exec, successor.ID, successor.Participants)
}

// retractInTx clears a successor slot previously filled by prevWinnerID,
// restoring the placeholder. A missing successor or a slot that no longer
// holds the old winner leaves nothing to undo.
func (s *matchService) retractInTx(ctx context.Context, exec repositories.SQLExecutor, prevWinnerID, nextMatchID string, targetSlot int) error {
	successor, err := s.matchRepo.GetByGlobalID(ctx, exec, nextMatchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil
		}
		return err
	}
	if targetSlot >= len(successor.Participants) {
		return nil
	}
	if successor.Participants[targetSlot].RefID != prevWinnerID {
		return nil
	}
	successor.Participants[targetSlot] = models.Participant{Name: placeholderName}
	return s.matchRepo.UpdateParticipants(ctx, exec, successor.ID, successor.Participants)
}

// resolveOutcome sorts by score descending and compares the top two: equal
// top scores mean a draw, otherwise the highest scorer wins. Ties further
// down the list do not affect the outcome.
func resolveOutcome(participants []models.Participant) *string {
	sorted := make([]models.Participant, len(participants))
	copy(sorted, participants)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if sorted[0].Score == sorted[1].Score {
		return nil
	}
	winner := sorted[0].RefID
	return &winner
}

// standingsDeltas converts one match outcome into signed points table rows:
// 3 points to the winner, 1 point each on a draw, nothing for a loss.
// sign -1 produces the exact reversal of a previous contribution.
func standingsDeltas(participants []models.Participant, winnerID *string, sign int) []models.StandingDelta {
	deltas := make([]models.StandingDelta, 0, len(participants))
	for _, p := range participants {
		d := models.StandingDelta{
			RefID: p.RefID,
			Name:  p.Name,
			Games: sign,
		}
		switch {
		case winnerID == nil:
			d.Points = models.PointsDraw * sign
			d.Draws = sign
		case p.RefID == *winnerID:
			d.Points = models.PointsWin * sign
			d.Wins = sign
		default:
			d.Points = models.PointsLoss * sign
			d.Losses = sign
		}
		deltas = append(deltas, d)
	}
	return deltas
}

func submissionKey(matchID string, scores []ScoreUpdate) []string {
	parts := make([]string, 0, 1+2*len(scores))
	parts = append(parts, matchID)
	sorted := make([]ScoreUpdate, len(scores))
	copy(sorted, scores)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RefID < sorted[j].RefID })
	for _, sc := range sorted {
		parts = append(parts, sc.RefID, strconv.FormatFloat(sc.Score, 'f', -1, 64))
	}
	return parts
}

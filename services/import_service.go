package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/campuscup/league-service/metrics"
	"github.com/campuscup/league-service/models"
	"github.com/campuscup/league-service/repositories"
)

// RowError records why one CSV line was rejected without failing the import.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type ImportSummary struct {
	Processed int        `json:"processed"`
	Failed    int        `json:"failed"`
	RowErrors []RowError `json:"row_errors,omitempty"`
}

type ImportService interface {
	// ImportScoresCSV resolves matches of one stage from CSV rows of the form
	// match_number,home_score,away_score. Rows fail independently; a bad line
	// never aborts the rest of the file.
	ImportScoresCSV(ctx context.Context, leagueID string, groupRef models.GroupRef, stageID string, r io.Reader) (*ImportSummary, error)
}

type importService struct {
	groupResolver
	matchRepo    repositories.MatchRepository
	matchService MatchService
	recorder     metrics.Recorder
	logger       *slog.Logger
}

func NewImportService(
	matchRepo repositories.MatchRepository,
	matchService MatchService,
	groupRepo repositories.GroupRepository,
	recorder metrics.Recorder,
	logger *slog.Logger,
) ImportService {
	return &importService{
		groupResolver: groupResolver{groupRepo: groupRepo},
		matchRepo:     matchRepo,
		matchService:  matchService,
		recorder:      recorder,
		logger:        logger,
	}
}

func (s *importService) ImportScoresCSV(ctx context.Context, leagueID string, groupRef models.GroupRef, stageID string, r io.Reader) (*ImportSummary, error) {
	group, err := s.resolveGroup(ctx, leagueID, groupRef)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	summary := &ImportSummary{}
	line := 0

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			summary.fail(line, err.Error())
			s.recorder.IncImportRows(false)
			continue
		}

		// An optional header line is tolerated.
		if line == 1 {
			if _, convErr := strconv.Atoi(record[0]); convErr != nil {
				continue
			}
		}

		if rowErr := s.importRow(ctx, leagueID, groupRef, group.ID, stageID, record); rowErr != nil {
			summary.fail(line, rowErr.Error())
			s.recorder.IncImportRows(false)
			continue
		}
		summary.Processed++
		s.recorder.IncImportRows(true)
	}

	s.logger.Info("score import finished",
		slog.String("league_id", leagueID),
		slog.String("stage_id", stageID),
		slog.Int("processed", summary.Processed),
		slog.Int("failed", summary.Failed))
	return summary, nil
}

func (s *importService) importRow(ctx context.Context, leagueID string, groupRef models.GroupRef, groupID, stageID string, record []string) error {
	matchNumber, err := strconv.Atoi(record[0])
	if err != nil {
		return fmt.Errorf("invalid match number %q", record[0])
	}
	homeScore, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return fmt.Errorf("invalid home score %q", record[1])
	}
	awayScore, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return fmt.Errorf("invalid away score %q", record[2])
	}

	match, err := s.matchRepo.GetByMatchNumber(ctx, leagueID, groupID, stageID, matchNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return fmt.Errorf("no match with number %d in this stage", matchNumber)
		}
		return err
	}
	if len(match.Participants) < 2 {
		return fmt.Errorf("match %d has fewer than two participants", matchNumber)
	}

	// Scores map positionally onto the stored participant order.
	scores := []ScoreUpdate{
		{RefID: match.Participants[0].RefID, Score: homeScore},
		{RefID: match.Participants[1].RefID, Score: awayScore},
	}
	_, err = s.matchService.UpdateScores(ctx, leagueID, groupRef, stageID, match.ID, scores)
	return err
}

func (s *ImportSummary) fail(line int, message string) {
	s.Failed++
	s.RowErrors = append(s.RowErrors, RowError{Line: line, Message: message})
}

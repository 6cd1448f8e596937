package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/campuscup/league-service/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound     = errors.New("match not found")
	ErrMatchScopeInvalid = errors.New("match league, group or stage conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, leagueID, groupID, stageID, id string) (*models.Match, error)
	// GetByGlobalID looks a match up by id alone: a knockout successor may
	// live in a different stage than its feeder.
	GetByGlobalID(ctx context.Context, exec SQLExecutor, id string) (*models.Match, error)
	// GetForUpdate locks the match row for the duration of the surrounding
	// transaction.
	GetForUpdate(ctx context.Context, exec SQLExecutor, leagueID, groupID, stageID, id string) (*models.Match, error)
	GetByMatchNumber(ctx context.Context, leagueID, groupID, stageID string, matchNumber int) (*models.Match, error)
	ListByStage(ctx context.Context, leagueID, groupID, stageID string) ([]*models.Match, error)
	ListFeeders(ctx context.Context, exec SQLExecutor, nextMatchID string) ([]*models.Match, error)
	UpdateResolution(ctx context.Context, exec SQLExecutor, id string, participants []models.Participant, status models.MatchStatus, winnerID *string, pointsApplied bool) error
	UpdateParticipants(ctx context.Context, exec SQLExecutor, id string, participants []models.Participant) error
	UpdateWiring(ctx context.Context, exec SQLExecutor, id string, nextMatchID *string, targetSlot *int) error
	DeleteByStage(ctx context.Context, exec SQLExecutor, stageID string) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, league_id, group_id, stage_id, match_number, match_date, venue, status,
	participants, winner_id, season_id, next_match_id, target_slot, points_applied, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	participantsJSON, err := json.Marshal(match.Participants)
	if err != nil {
		return fmt.Errorf("failed to marshal participants: %w", err)
	}

	query := `
		INSERT INTO matches
			(id, league_id, group_id, stage_id, match_number, match_date, venue,
			 status, participants, winner_id, season_id, next_match_id, target_slot, points_applied)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at`

	err = executor.QueryRowContext(ctx, query,
		match.ID, match.LeagueID, match.GroupID, match.StageID, match.MatchNumber,
		match.Date, match.Venue, match.Status, participantsJSON, match.WinnerID,
		match.SeasonID, match.NextMatchID, match.TargetSlot, match.PointsApplied,
	).Scan(&match.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "matches_league_id_fkey", "matches_group_id_fkey", "matches_stage_id_fkey":
			return ErrMatchScopeInvalid
		}
	}
	return err
}

func (r *postgresMatchRepository) scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	var participantsJSON []byte
	err := rowScanner.Scan(
		&m.ID, &m.LeagueID, &m.GroupID, &m.StageID, &m.MatchNumber, &m.Date,
		&m.Venue, &m.Status, &participantsJSON, &m.WinnerID, &m.SeasonID,
		&m.NextMatchID, &m.TargetSlot, &m.PointsApplied, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(participantsJSON, &m.Participants); err != nil {
		return nil, fmt.Errorf("failed to unmarshal participants for match %s: %w", m.ID, err)
	}
	return &m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, leagueID, groupID, stageID, id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE league_id = $1 AND group_id = $2 AND stage_id = $3 AND id = $4`
	return r.scanMatch(r.db.QueryRowContext(ctx, query, leagueID, groupID, stageID, id))
}

func (r *postgresMatchRepository) GetByGlobalID(ctx context.Context, exec SQLExecutor, id string) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, leagueID, groupID, stageID, id string) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE league_id = $1 AND group_id = $2 AND stage_id = $3 AND id = $4
		FOR UPDATE`
	return r.scanMatch(executor.QueryRowContext(ctx, query, leagueID, groupID, stageID, id))
}

func (r *postgresMatchRepository) GetByMatchNumber(ctx context.Context, leagueID, groupID, stageID string, matchNumber int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE league_id = $1 AND group_id = $2 AND stage_id = $3 AND match_number = $4
		ORDER BY created_at ASC
		LIMIT 1`
	return r.scanMatch(r.db.QueryRowContext(ctx, query, leagueID, groupID, stageID, matchNumber))
}

func (r *postgresMatchRepository) ListByStage(ctx context.Context, leagueID, groupID, stageID string) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE league_id = $1 AND group_id = $2 AND stage_id = $3
		ORDER BY match_number ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, leagueID, groupID, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for stage %s: %w", stageID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ListFeeders returns every match wired to advance its winner into the given
// successor match.
func (r *postgresMatchRepository) ListFeeders(ctx context.Context, exec SQLExecutor, nextMatchID string) ([]*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE next_match_id = $1`

	rows, err := executor.QueryContext(ctx, query, nextMatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query feeders of match %s: %w", nextMatchID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) UpdateResolution(ctx context.Context, exec SQLExecutor, id string, participants []models.Participant, status models.MatchStatus, winnerID *string, pointsApplied bool) error {
	executor := r.getExecutor(exec)
	participantsJSON, err := json.Marshal(participants)
	if err != nil {
		return fmt.Errorf("failed to marshal participants: %w", err)
	}

	query := `
		UPDATE matches
		SET participants = $1, status = $2, winner_id = $3, points_applied = $4
		WHERE id = $5`
	result, err := executor.ExecContext(ctx, query, participantsJSON, status, winnerID, pointsApplied, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateParticipants(ctx context.Context, exec SQLExecutor, id string, participants []models.Participant) error {
	executor := r.getExecutor(exec)
	participantsJSON, err := json.Marshal(participants)
	if err != nil {
		return fmt.Errorf("failed to marshal participants: %w", err)
	}

	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET participants = $1 WHERE id = $2`, participantsJSON, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateWiring(ctx context.Context, exec SQLExecutor, id string, nextMatchID *string, targetSlot *int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET next_match_id = $1, target_slot = $2 WHERE id = $3`,
		nextMatchID, targetSlot, id)
	if err != nil {
		return fmt.Errorf("failed to update wiring for match %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByStage(ctx context.Context, exec SQLExecutor, stageID string) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM matches WHERE stage_id = $1`, stageID)
	return err
}

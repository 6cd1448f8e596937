package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/campuscup/league-service/models"
)

var ErrStandingNotFound = errors.New("points table entry not found")

type StandingRepository interface {
	// ApplyDelta atomically increments one row of the points table, creating
	// it on first contact. Negative deltas reverse a previous contribution.
	ApplyDelta(ctx context.Context, exec SQLExecutor, leagueID, groupID string, delta models.StandingDelta) error
	GetByRef(ctx context.Context, exec SQLExecutor, leagueID, groupID, refID string) (*models.PointsTableEntry, error)
	ListByGroup(ctx context.Context, leagueID, groupID string) ([]*models.PointsTableEntry, error)
	DeleteByGroup(ctx context.Context, exec SQLExecutor, leagueID, groupID string) error
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStandingRepository) ApplyDelta(ctx context.Context, exec SQLExecutor, leagueID, groupID string, delta models.StandingDelta) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO points_table
			(league_id, group_id, ref_id, name, points, games_played, wins, draws, losses, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (league_id, group_id, ref_id) DO UPDATE SET
			name         = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE points_table.name END,
			points       = points_table.points + EXCLUDED.points,
			games_played = points_table.games_played + EXCLUDED.games_played,
			wins         = points_table.wins + EXCLUDED.wins,
			draws        = points_table.draws + EXCLUDED.draws,
			losses       = points_table.losses + EXCLUDED.losses,
			updated_at   = NOW()`

	_, err := executor.ExecContext(ctx, query,
		leagueID, groupID, delta.RefID, delta.Name,
		delta.Points, delta.Games, delta.Wins, delta.Draws, delta.Losses,
	)
	if err != nil {
		return fmt.Errorf("failed to apply standings delta for ref %s: %w", delta.RefID, err)
	}
	return nil
}

func (r *postgresStandingRepository) scanEntry(rowScanner interface{ Scan(...interface{}) error }) (*models.PointsTableEntry, error) {
	var e models.PointsTableEntry
	err := rowScanner.Scan(
		&e.LeagueID, &e.GroupID, &e.RefID, &e.Name, &e.Points,
		&e.GamesPlayed, &e.Wins, &e.Draws, &e.Losses, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *postgresStandingRepository) GetByRef(ctx context.Context, exec SQLExecutor, leagueID, groupID, refID string) (*models.PointsTableEntry, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT league_id, group_id, ref_id, name, points, games_played, wins, draws, losses, updated_at
		FROM points_table
		WHERE league_id = $1 AND group_id = $2 AND ref_id = $3`
	return r.scanEntry(executor.QueryRowContext(ctx, query, leagueID, groupID, refID))
}

func (r *postgresStandingRepository) ListByGroup(ctx context.Context, leagueID, groupID string) ([]*models.PointsTableEntry, error) {
	query := `
		SELECT league_id, group_id, ref_id, name, points, games_played, wins, draws, losses, updated_at
		FROM points_table
		WHERE league_id = $1 AND group_id = $2
		ORDER BY points DESC, wins DESC, ref_id ASC`

	rows, err := r.db.QueryContext(ctx, query, leagueID, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query points table for group %s: %w", groupID, err)
	}
	defer rows.Close()

	entries := make([]*models.PointsTableEntry, 0)
	for rows.Next() {
		e, scanErr := r.scanEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *postgresStandingRepository) DeleteByGroup(ctx context.Context, exec SQLExecutor, leagueID, groupID string) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx,
		`DELETE FROM points_table WHERE league_id = $1 AND group_id = $2`, leagueID, groupID)
	return err
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/campuscup/league-service/models"
	"github.com/lib/pq"
)

var (
	ErrStageNotFound     = errors.New("stage not found")
	ErrStageScopeInvalid = errors.New("stage league or group conflict or invalid")
)

type StageRepository interface {
	Create(ctx context.Context, exec SQLExecutor, stage *models.Stage) error
	GetByID(ctx context.Context, leagueID, groupID, id string) (*models.Stage, error)
	ListByGroup(ctx context.Context, leagueID, groupID string) ([]*models.Stage, error)
	ListChildren(ctx context.Context, exec SQLExecutor, parentStageID string) ([]*models.Stage, error)
	Delete(ctx context.Context, exec SQLExecutor, leagueID, groupID, id string) error
}

type postgresStageRepository struct {
	db *sql.DB
}

func NewPostgresStageRepository(db *sql.DB) StageRepository {
	return &postgresStageRepository{db: db}
}

func (r *postgresStageRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStageRepository) Create(ctx context.Context, exec SQLExecutor, stage *models.Stage) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO stages (id, league_id, group_id, name, type, stage_order, parent_stage_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := executor.QueryRowContext(ctx, query,
		stage.ID, stage.LeagueID, stage.GroupID, stage.Name,
		stage.Type, stage.Order, stage.ParentStageID,
	).Scan(&stage.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "stages_league_id_fkey", "stages_group_id_fkey":
			return ErrStageScopeInvalid
		case "stages_parent_stage_id_fkey":
			return ErrStageNotFound
		}
	}
	return err
}

func (r *postgresStageRepository) scanStage(rowScanner interface{ Scan(...interface{}) error }) (*models.Stage, error) {
	var s models.Stage
	err := rowScanner.Scan(
		&s.ID, &s.LeagueID, &s.GroupID, &s.Name, &s.Type,
		&s.Order, &s.ParentStageID, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStageNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresStageRepository) GetByID(ctx context.Context, leagueID, groupID, id string) (*models.Stage, error) {
	query := `
		SELECT id, league_id, group_id, name, type, stage_order, parent_stage_id, created_at
		FROM stages
		WHERE league_id = $1 AND group_id = $2 AND id = $3`
	return r.scanStage(r.db.QueryRowContext(ctx, query, leagueID, groupID, id))
}

func (r *postgresStageRepository) ListByGroup(ctx context.Context, leagueID, groupID string) ([]*models.Stage, error) {
	query := `
		SELECT id, league_id, group_id, name, type, stage_order, parent_stage_id, created_at
		FROM stages
		WHERE league_id = $1 AND group_id = $2
		ORDER BY stage_order ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, leagueID, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stages for group %s: %w", groupID, err)
	}
	defer rows.Close()

	stages := make([]*models.Stage, 0)
	for rows.Next() {
		s, scanErr := r.scanStage(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

func (r *postgresStageRepository) ListChildren(ctx context.Context, exec SQLExecutor, parentStageID string) ([]*models.Stage, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, league_id, group_id, name, type, stage_order, parent_stage_id, created_at
		FROM stages
		WHERE parent_stage_id = $1
		ORDER BY stage_order ASC`

	rows, err := executor.QueryContext(ctx, query, parentStageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query substages of %s: %w", parentStageID, err)
	}
	defer rows.Close()

	stages := make([]*models.Stage, 0)
	for rows.Next() {
		s, scanErr := r.scanStage(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

func (r *postgresStageRepository) Delete(ctx context.Context, exec SQLExecutor, leagueID, groupID, id string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`DELETE FROM stages WHERE league_id = $1 AND group_id = $2 AND id = $3`, leagueID, groupID, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrStageNotFound)
}

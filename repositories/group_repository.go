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
	ErrGroupNotFound      = errors.New("group not found")
	ErrGroupLeagueInvalid = errors.New("group league conflict or invalid")
)

type GroupRepository interface {
	Create(ctx context.Context, exec SQLExecutor, group *models.Group) error
	GetByID(ctx context.Context, leagueID, id string) (*models.Group, error)
	ListByLeague(ctx context.Context, leagueID string) ([]*models.Group, error)
	GetGeneral(ctx context.Context, exec SQLExecutor, leagueID string) (*models.Group, error)
	UpdateName(ctx context.Context, leagueID, id, name string) error
}

type postgresGroupRepository struct {
	db *sql.DB
}

func NewPostgresGroupRepository(db *sql.DB) GroupRepository {
	return &postgresGroupRepository{db: db}
}

func (r *postgresGroupRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresGroupRepository) Create(ctx context.Context, exec SQLExecutor, group *models.Group) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO groups (id, league_id, name, parent_group_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := executor.QueryRowContext(ctx, query,
		group.ID, group.LeagueID, group.Name, group.ParentGroupID,
	).Scan(&group.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Constraint == "groups_league_id_fkey" {
		return ErrGroupLeagueInvalid
	}
	return err
}

func (r *postgresGroupRepository) scanGroup(rowScanner interface{ Scan(...interface{}) error }) (*models.Group, error) {
	var g models.Group
	err := rowScanner.Scan(&g.ID, &g.LeagueID, &g.Name, &g.ParentGroupID, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *postgresGroupRepository) GetByID(ctx context.Context, leagueID, id string) (*models.Group, error) {
	query := `
		SELECT id, league_id, name, parent_group_id, created_at
		FROM groups
		WHERE league_id = $1 AND id = $2`
	return r.scanGroup(r.db.QueryRowContext(ctx, query, leagueID, id))
}

func (r *postgresGroupRepository) ListByLeague(ctx context.Context, leagueID string) ([]*models.Group, error) {
	query := `
		SELECT id, league_id, name, parent_group_id, created_at
		FROM groups
		WHERE league_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups for league %s: %w", leagueID, err)
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	for rows.Next() {
		g, scanErr := r.scanGroup(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GetGeneral finds the implicit group of a league that disables grouping.
func (r *postgresGroupRepository) GetGeneral(ctx context.Context, exec SQLExecutor, leagueID string) (*models.Group, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, league_id, name, parent_group_id, created_at
		FROM groups
		WHERE league_id = $1 AND name = $2 AND parent_group_id IS NULL
		ORDER BY created_at ASC
		LIMIT 1`
	return r.scanGroup(executor.QueryRowContext(ctx, query, leagueID, models.GeneralGroupName))
}

func (r *postgresGroupRepository) UpdateName(ctx context.Context, leagueID, id, name string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE groups SET name = $1 WHERE league_id = $2 AND id = $3`, name, leagueID, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}

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
	ErrLeagueNotFound     = errors.New("league not found")
	ErrLeagueSportInvalid = errors.New("league sport conflict or invalid")
)

type LeagueRepository interface {
	Create(ctx context.Context, exec SQLExecutor, league *models.League) error
	GetByID(ctx context.Context, id string) (*models.League, error)
	List(ctx context.Context, sportID *string) ([]*models.League, error)
	UpdateName(ctx context.Context, id, name string) error
}

type postgresLeagueRepository struct {
	db *sql.DB
}

func NewPostgresLeagueRepository(db *sql.DB) LeagueRepository {
	return &postgresLeagueRepository{db: db}
}

func (r *postgresLeagueRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresLeagueRepository) Create(ctx context.Context, exec SQLExecutor, league *models.League) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO leagues (id, name, sport_id, sport_name, sport_type, description, has_groups)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := executor.QueryRowContext(ctx, query,
		league.ID, league.Name, league.SportID, league.SportName,
		league.SportType, league.Description, league.HasGroups,
	).Scan(&league.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Constraint == "leagues_sport_id_fkey" {
		return ErrLeagueSportInvalid
	}
	return err
}

func (r *postgresLeagueRepository) scanLeague(rowScanner interface{ Scan(...interface{}) error }) (*models.League, error) {
	var l models.League
	err := rowScanner.Scan(
		&l.ID, &l.Name, &l.SportID, &l.SportName, &l.SportType,
		&l.Description, &l.HasGroups, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *postgresLeagueRepository) GetByID(ctx context.Context, id string) (*models.League, error) {
	query := `
		SELECT id, name, sport_id, sport_name, sport_type, description, has_groups, created_at
		FROM leagues
		WHERE id = $1`
	return r.scanLeague(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresLeagueRepository) List(ctx context.Context, sportID *string) ([]*models.League, error) {
	query := `
		SELECT id, name, sport_id, sport_name, sport_type, description, has_groups, created_at
		FROM leagues`
	args := []interface{}{}
	if sportID != nil {
		query += " WHERE sport_id = $1"
		args = append(args, *sportID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leagues: %w", err)
	}
	defer rows.Close()

	leagues := make([]*models.League, 0)
	for rows.Next() {
		l, scanErr := r.scanLeague(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		leagues = append(leagues, l)
	}
	return leagues, rows.Err()
}

func (r *postgresLeagueRepository) UpdateName(ctx context.Context, id, name string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE leagues SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrLeagueNotFound)
}

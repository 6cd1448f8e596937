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
	ErrSeasonNotFound     = errors.New("season not found")
	ErrSeasonNameConflict = errors.New("season name already exists for this sport")
	ErrSeasonSportInvalid = errors.New("season sport conflict or invalid")
)

type SeasonRepository interface {
	Create(ctx context.Context, exec SQLExecutor, season *models.Season) error
	GetByID(ctx context.Context, sportID, id string) (*models.Season, error)
	ListBySport(ctx context.Context, sportID string) ([]*models.Season, error)
	GetActive(ctx context.Context, sportID string) (*models.Season, error)
	// SetActive activates one season and deactivates every sibling of the
	// same sport. Must run inside a transaction.
	SetActive(ctx context.Context, exec SQLExecutor, sportID, id string) error
}

type postgresSeasonRepository struct {
	db *sql.DB
}

func NewPostgresSeasonRepository(db *sql.DB) SeasonRepository {
	return &postgresSeasonRepository{db: db}
}

func (r *postgresSeasonRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSeasonRepository) Create(ctx context.Context, exec SQLExecutor, season *models.Season) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO seasons (id, sport_id, name, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := executor.QueryRowContext(ctx, query,
		season.ID, season.SportID, season.Name, season.IsActive,
	).Scan(&season.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "seasons_sport_id_fkey":
			return ErrSeasonSportInvalid
		case "seasons_sport_id_name_key":
			return ErrSeasonNameConflict
		}
	}
	return err
}

func (r *postgresSeasonRepository) scanSeason(rowScanner interface{ Scan(...interface{}) error }) (*models.Season, error) {
	var s models.Season
	err := rowScanner.Scan(&s.ID, &s.SportID, &s.Name, &s.IsActive, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeasonNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresSeasonRepository) GetByID(ctx context.Context, sportID, id string) (*models.Season, error) {
	query := `
		SELECT id, sport_id, name, is_active, created_at
		FROM seasons
		WHERE sport_id = $1 AND id = $2`
	return r.scanSeason(r.db.QueryRowContext(ctx, query, sportID, id))
}

func (r *postgresSeasonRepository) ListBySport(ctx context.Context, sportID string) ([]*models.Season, error) {
	query := `
		SELECT id, sport_id, name, is_active, created_at
		FROM seasons
		WHERE sport_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, sportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query seasons for sport %s: %w", sportID, err)
	}
	defer rows.Close()

	seasons := make([]*models.Season, 0)
	for rows.Next() {
		s, scanErr := r.scanSeason(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		seasons = append(seasons, s)
	}
	return seasons, rows.Err()
}

func (r *postgresSeasonRepository) GetActive(ctx context.Context, sportID string) (*models.Season, error) {
	query := `
		SELECT id, sport_id, name, is_active, created_at
		FROM seasons
		WHERE sport_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1`
	return r.scanSeason(r.db.QueryRowContext(ctx, query, sportID))
}

func (r *postgresSeasonRepository) SetActive(ctx context.Context, exec SQLExecutor, sportID, id string) error {
	executor := r.getExecutor(exec)

	if _, err := executor.ExecContext(ctx,
		`UPDATE seasons SET is_active = FALSE WHERE sport_id = $1 AND id <> $2`, sportID, id); err != nil {
		return fmt.Errorf("failed to deactivate sibling seasons: %w", err)
	}

	result, err := executor.ExecContext(ctx,
		`UPDATE seasons SET is_active = TRUE WHERE sport_id = $1 AND id = $2`, sportID, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSeasonNotFound)
}

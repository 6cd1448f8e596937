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
	ErrSportNotFound     = errors.New("sport not found")
	ErrSportNameConflict = errors.New("sport name already exists")
)

type SportRepository interface {
	Create(ctx context.Context, sport *models.Sport) error
	GetByID(ctx context.Context, id string) (*models.Sport, error)
	List(ctx context.Context) ([]*models.Sport, error)
}

type postgresSportRepository struct {
	db *sql.DB
}

func NewPostgresSportRepository(db *sql.DB) SportRepository {
	return &postgresSportRepository{db: db}
}

func (r *postgresSportRepository) Create(ctx context.Context, sport *models.Sport) error {
	query := `
		INSERT INTO sports (id, name, type)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, sport.ID, sport.Name, sport.Type).Scan(&sport.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Constraint == "sports_name_key" {
		return ErrSportNameConflict
	}
	return err
}

func (r *postgresSportRepository) GetByID(ctx context.Context, id string) (*models.Sport, error) {
	var s models.Sport
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, type, created_at FROM sports WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Type, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSportNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresSportRepository) List(ctx context.Context) ([]*models.Sport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, created_at FROM sports ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sports: %w", err)
	}
	defer rows.Close()

	sports := make([]*models.Sport, 0)
	for rows.Next() {
		var s models.Sport
		if scanErr := rows.Scan(&s.ID, &s.Name, &s.Type, &s.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan sport row: %w", scanErr)
		}
		sports = append(sports, &s)
	}
	return sports, rows.Err()
}

package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/campuscup/league-service/models"
	"github.com/lib/pq"
)

var (
	ErrFixtureNotFound    = errors.New("fixture not found")
	ErrFixtureLinkInvalid = errors.New("fixture match, league or season conflict or invalid")
)

// FixtureFilter narrows fixture listings for the schedule browser and the
// fixture search. Nil fields are not applied.
type FixtureFilter struct {
	Sport    *string
	SeasonID *string
	LeagueID *string
	Status   *models.FixtureStatus
	Type     *models.FixtureType
	TeamID   *string
	From     *time.Time
	To       *time.Time
}

type FixtureRepository interface {
	Create(ctx context.Context, exec SQLExecutor, fixture *models.Fixture) error
	GetByID(ctx context.Context, id string) (*models.Fixture, error)
	List(ctx context.Context, filter FixtureFilter) ([]*models.Fixture, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, fixture *models.Fixture) error
	UpdateStatus(ctx context.Context, id string, status models.FixtureStatus) error
}

type postgresFixtureRepository struct {
	db *sql.DB
}

func NewPostgresFixtureRepository(db *sql.DB) FixtureRepository {
	return &postgresFixtureRepository{db: db}
}

func (r *postgresFixtureRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresFixtureRepository) Create(ctx context.Context, exec SQLExecutor, fixture *models.Fixture) error {
	executor := r.getExecutor(exec)

	var pointsAdded, pointsDeducted, goalTimings interface{}
	var err error
	if fixture.PointsAdded != nil {
		if pointsAdded, err = json.Marshal(fixture.PointsAdded); err != nil {
			return err
		}
	}
	if fixture.PointsDeducted != nil {
		if pointsDeducted, err = json.Marshal(fixture.PointsDeducted); err != nil {
			return err
		}
	}
	if fixture.GoalTimings != nil {
		if goalTimings, err = json.Marshal(fixture.GoalTimings); err != nil {
			return err
		}
	}

	var homeScore, awayScore *int
	if fixture.Score != nil {
		homeScore, awayScore = &fixture.Score.Home, &fixture.Score.Away
	}

	query := `
		INSERT INTO fixtures
			(id, match_id, home_team_id, away_team_id, home_team_name, away_team_name,
			 sport, scheduled_at, venue, status, home_score, away_score,
			 points_added, points_deducted, goal_timings, type, league_id, season_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at`

	err = executor.QueryRowContext(ctx, query,
		fixture.ID, fixture.MatchID, fixture.HomeTeamID, fixture.AwayTeamID,
		fixture.HomeTeamName, fixture.AwayTeamName, fixture.Sport, fixture.ScheduledAt,
		fixture.Venue, fixture.Status, homeScore, awayScore,
		pointsAdded, pointsDeducted, goalTimings,
		fixture.Type, fixture.LeagueID, fixture.SeasonID,
	).Scan(&fixture.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "fixtures_match_id_fkey", "fixtures_league_id_fkey", "fixtures_season_id_fkey":
			return ErrFixtureLinkInvalid
		}
	}
	return err
}

func (r *postgresFixtureRepository) scanFixture(rowScanner interface{ Scan(...interface{}) error }) (*models.Fixture, error) {
	var f models.Fixture
	var homeScore, awayScore *int
	var pointsAdded, pointsDeducted, goalTimings []byte

	err := rowScanner.Scan(
		&f.ID, &f.MatchID, &f.HomeTeamID, &f.AwayTeamID, &f.HomeTeamName,
		&f.AwayTeamName, &f.Sport, &f.ScheduledAt, &f.Venue, &f.Status,
		&homeScore, &awayScore, &pointsAdded, &pointsDeducted, &goalTimings,
		&f.Type, &f.LeagueID, &f.SeasonID, &f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFixtureNotFound
		}
		return nil, err
	}

	if homeScore != nil && awayScore != nil {
		f.Score = &models.FixtureScore{Home: *homeScore, Away: *awayScore}
	}
	if pointsAdded != nil {
		if err := json.Unmarshal(pointsAdded, &f.PointsAdded); err != nil {
			return nil, fmt.Errorf("failed to unmarshal points_added for fixture %s: %w", f.ID, err)
		}
	}
	if pointsDeducted != nil {
		if err := json.Unmarshal(pointsDeducted, &f.PointsDeducted); err != nil {
			return nil, fmt.Errorf("failed to unmarshal points_deducted for fixture %s: %w", f.ID, err)
		}
	}
	if goalTimings != nil {
		if err := json.Unmarshal(goalTimings, &f.GoalTimings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal goal_timings for fixture %s: %w", f.ID, err)
		}
	}
	return &f, nil
}

const fixtureColumns = `id, match_id, home_team_id, away_team_id, home_team_name, away_team_name,
	sport, scheduled_at, venue, status, home_score, away_score,
	points_added, points_deducted, goal_timings, type, league_id, season_id, created_at`

func (r *postgresFixtureRepository) GetByID(ctx context.Context, id string) (*models.Fixture, error) {
	query := `SELECT ` + fixtureColumns + ` FROM fixtures WHERE id = $1`
	return r.scanFixture(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresFixtureRepository) List(ctx context.Context, filter FixtureFilter) ([]*models.Fixture, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + fixtureColumns + ` FROM fixtures WHERE 1=1`)

	args := []interface{}{}
	addFilter := func(clause string, value interface{}) {
		args = append(args, value)
		queryBuilder.WriteString(" AND " + clause + "$" + strconv.Itoa(len(args)))
	}

	if filter.Sport != nil {
		addFilter("sport = ", *filter.Sport)
	}
	if filter.SeasonID != nil {
		addFilter("season_id = ", *filter.SeasonID)
	}
	if filter.LeagueID != nil {
		addFilter("league_id = ", *filter.LeagueID)
	}
	if filter.Status != nil {
		addFilter("status = ", *filter.Status)
	}
	if filter.Type != nil {
		addFilter("type = ", *filter.Type)
	}
	if filter.From != nil {
		addFilter("scheduled_at >= ", *filter.From)
	}
	if filter.To != nil {
		addFilter("scheduled_at <= ", *filter.To)
	}
	if filter.TeamID != nil {
		args = append(args, *filter.TeamID)
		placeholder := "$" + strconv.Itoa(len(args))
		queryBuilder.WriteString(" AND (home_team_id = " + placeholder + " OR away_team_id = " + placeholder + ")")
	}

	queryBuilder.WriteString(" ORDER BY scheduled_at ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fixtures: %w", err)
	}
	defer rows.Close()

	fixtures := make([]*models.Fixture, 0)
	for rows.Next() {
		f, scanErr := r.scanFixture(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, rows.Err()
}

func (r *postgresFixtureRepository) UpdateResult(ctx context.Context, exec SQLExecutor, fixture *models.Fixture) error {
	executor := r.getExecutor(exec)

	var homeScore, awayScore *int
	if fixture.Score != nil {
		homeScore, awayScore = &fixture.Score.Home, &fixture.Score.Away
	}
	var goalTimings interface{}
	if fixture.GoalTimings != nil {
		b, err := json.Marshal(fixture.GoalTimings)
		if err != nil {
			return err
		}
		goalTimings = b
	}

	query := `
		UPDATE fixtures
		SET status = $1, home_score = $2, away_score = $3, goal_timings = $4
		WHERE id = $5`
	result, err := executor.ExecContext(ctx, query,
		fixture.Status, homeScore, awayScore, goalTimings, fixture.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrFixtureNotFound)
}

func (r *postgresFixtureRepository) UpdateStatus(ctx context.Context, id string, status models.FixtureStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE fixtures SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrFixtureNotFound)
}

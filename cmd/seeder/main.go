// Seeds a local database with a demo sport, season, league and a resolved
// knockout bracket. Intended for development only.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/campuscup/league-service/brackets"
	"github.com/campuscup/league-service/config"
	"github.com/campuscup/league-service/db"
	"github.com/campuscup/league-service/metrics"
	"github.com/campuscup/league-service/models"
	"github.com/campuscup/league-service/repositories"
	"github.com/campuscup/league-service/services"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

const entrantCount = 6

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("seeding failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seeding complete")
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := db.Migrate(dbConn); err != nil {
		return err
	}

	leagueRepo := repositories.NewPostgresLeagueRepository(dbConn)
	groupRepo := repositories.NewPostgresGroupRepository(dbConn)
	stageRepo := repositories.NewPostgresStageRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)
	seasonRepo := repositories.NewPostgresSeasonRepository(dbConn)
	sportRepo := repositories.NewPostgresSportRepository(dbConn)
	txManager := repositories.NewTxManager(dbConn)

	recorder := metrics.Noop{}
	leagueService := services.NewLeagueService(txManager, leagueRepo, groupRepo, sportRepo, logger)
	seasonService := services.NewSeasonService(txManager, seasonRepo, sportRepo, logger)
	bracketService := services.NewBracketService(txManager, stageRepo, matchRepo, groupRepo, recorder, logger)
	matchService := services.NewMatchService(txManager, matchRepo, stageRepo, standingRepo, groupRepo, 0, recorder, logger)

	ctx := context.Background()

	sport, err := seasonService.CreateSport(ctx, services.CreateSportInput{
		Name: fmt.Sprintf("Futsal %s", gofakeit.LetterN(4)),
		Type: models.SportTypeTeam,
	})
	if err != nil {
		return err
	}

	season, err := seasonService.CreateSeason(ctx, sport.ID, services.CreateSeasonInput{
		Name:     fmt.Sprintf("%d/%d", time.Now().Year(), time.Now().Year()+1),
		IsActive: true,
	})
	if err != nil {
		return err
	}

	league, err := leagueService.CreateLeague(ctx, services.CreateLeagueInput{
		Name:    fmt.Sprintf("%s Invitational", gofakeit.City()),
		SportID: sport.ID,
	})
	if err != nil {
		return err
	}

	entrants := make([]brackets.Entrant, entrantCount)
	for i := range entrants {
		entrants[i] = brackets.Entrant{
			RefType: models.ParticipantRefTeam,
			RefID:   uuid.NewString(),
			Name:    fmt.Sprintf("%s %s", gofakeit.City(), gofakeit.PetName()),
		}
	}

	bracket, err := bracketService.GenerateKnockout(ctx, league.ID, models.Ungrouped(), services.GenerateBracketInput{
		StageName: "Playoffs",
		Entrants:  entrants,
		StartDate: time.Now().Add(24 * time.Hour),
		SeasonID:  &season.ID,
	})
	if err != nil {
		return err
	}

	// Resolve the opening round so the standings and advancement have data.
	for _, match := range bracket.Matches {
		if match.Participants[0].RefID == "" || match.Participants[1].RefID == "" {
			continue
		}
		scores := []services.ScoreUpdate{
			{RefID: match.Participants[0].RefID, Score: float64(gofakeit.Number(0, 5))},
			{RefID: match.Participants[1].RefID, Score: float64(gofakeit.Number(0, 5))},
		}
		if _, err := matchService.UpdateScores(ctx, league.ID, models.Ungrouped(), bracket.Stage.ID, match.ID, scores); err != nil {
			return fmt.Errorf("failed to resolve seeded match %s: %w", match.ID, err)
		}
	}

	logger.Info("seeded demo league",
		slog.String("sport_id", sport.ID),
		slog.String("season_id", season.ID),
		slog.String("league_id", league.ID),
		slog.String("stage_id", bracket.Stage.ID),
		slog.Int("matches", len(bracket.Matches)))
	return nil
}

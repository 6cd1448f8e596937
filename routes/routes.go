package routes

import (
	"net/http"

	"github.com/campuscup/league-service/handlers"
	"github.com/campuscup/league-service/metrics"
	appMiddleware "github.com/campuscup/league-service/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	leagueHandler *handlers.LeagueHandler,
	stageHandler *handlers.StageHandler,
	matchHandler *handlers.MatchHandler,
	standingsHandler *handlers.StandingsHandler,
	fixtureHandler *handlers.FixtureHandler,
	seasonHandler *handlers.SeasonHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(appMiddleware.RequestLogger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	router.Route("/sports", func(r chi.Router) {
		r.Post("/", seasonHandler.CreateSportHandler)
		r.Get("/", seasonHandler.ListSportsHandler)

		r.Route("/{sportID}/seasons", func(r chi.Router) {
			r.Post("/", seasonHandler.CreateSeasonHandler)
			r.Get("/", seasonHandler.ListSeasonsHandler)
			r.Get("/active", seasonHandler.GetActiveSeasonHandler)
			r.Put("/{seasonID}/activate", seasonHandler.SetActiveSeasonHandler)
		})
	})

	router.Route("/leagues", func(r chi.Router) {
		r.Post("/", leagueHandler.CreateLeagueHandler)
		r.Get("/", leagueHandler.ListLeaguesHandler)

		r.Route("/{leagueID}", func(r chi.Router) {
			r.Get("/", leagueHandler.GetLeagueHandler)
			r.Put("/", leagueHandler.RenameLeagueHandler)

			r.Post("/groups", leagueHandler.CreateGroupHandler)
			r.Get("/groups", leagueHandler.ListGroupsHandler)

			// {groupID} accepts the literal "general" for ungrouped leagues.
			r.Route("/groups/{groupID}", func(r chi.Router) {
				r.Get("/standings", standingsHandler.GetPointsTableHandler)
				r.Get("/standings/{refID}", standingsHandler.GetStandingHandler)
				r.Delete("/standings", standingsHandler.ResetPointsTableHandler)

				r.Route("/stages", func(r chi.Router) {
					r.Post("/", stageHandler.CreateStageHandler)
					r.Get("/", stageHandler.ListStagesHandler)
					r.Post("/knockout", stageHandler.GenerateKnockoutHandler)

					r.Route("/{stageID}", func(r chi.Router) {
						r.Delete("/", stageHandler.DeleteStageHandler)

						r.Route("/matches", func(r chi.Router) {
							r.Post("/", matchHandler.CreateMatchHandler)
							r.Get("/", matchHandler.ListMatchesHandler)
							r.Post("/import", matchHandler.ImportScoresHandler)
							r.Get("/{matchID}", matchHandler.GetMatchHandler)
							r.Put("/{matchID}/scores", matchHandler.UpdateScoresHandler)
						})
					})
				})
			})
		})
	})

	router.Post("/matches/advance", matchHandler.AdvanceWinnerHandler)

	router.Route("/fixtures", func(r chi.Router) {
		r.Post("/", fixtureHandler.CreateFixtureHandler)
		r.Get("/", fixtureHandler.ListFixturesHandler)
		r.Get("/{fixtureID}", fixtureHandler.GetFixtureHandler)
		r.Put("/{fixtureID}/status", fixtureHandler.UpdateFixtureStatusHandler)
		r.Put("/{fixtureID}/result", fixtureHandler.FinalizeResultHandler)
	})
}

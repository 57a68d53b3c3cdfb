package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sandpit-systems/beachline/handlers"
	"github.com/sandpit-systems/beachline/middleware"
	"github.com/sandpit-systems/beachline/services"
)

func SetupRoutes(
	router *chi.Mux,
	auth services.AuthService,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	entryHandler *handlers.EntryHandler,
	matchHandler *handlers.MatchHandler,
	scoringHandler *handlers.ScoringHandler,
	fantasyHandler *handlers.FantasyHandler,
	leagueHandler *handlers.LeagueHandler,
	auditHandler *handlers.AuditHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(auth)

	router.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", authHandler.Login)
		api.Post("/auth/register", authHandler.Register)
		api.With(authenticate).Get("/auth/me", authHandler.Me)

		api.Route("/tournaments", func(r chi.Router) {
			r.Get("/", tournamentHandler.List)
			r.Get("/{id}", tournamentHandler.Get)
			r.Get("/{id}/bracket", matchHandler.GetBracket)
			r.Get("/{id}/matches", matchHandler.ListByTournament)
			r.Get("/{id}/entry-list", entryHandler.List)
			r.Get("/{id}/scoring-config", scoringHandler.GetConfig)
			r.Get("/{id}/scoring-runs", scoringHandler.ListRuns)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)

				r.Post("/", tournamentHandler.Create)
				r.Put("/{id}", tournamentHandler.Update)
				r.Post("/{id}/status", tournamentHandler.SetStatus)
				r.Delete("/{id}", tournamentHandler.Delete)
				r.Post("/{id}/logo", tournamentHandler.UploadLogo)

				r.Put("/{id}/entry-list", entryHandler.Replace)
				r.Patch("/{id}/entry-list/{itemID}", entryHandler.Patch)

				r.Post("/{id}/matches", matchHandler.Create)
				r.Post("/{id}/bracket/rebuild", matchHandler.RebuildBracket)

				r.Put("/{id}/scoring-config", scoringHandler.UpdateConfig)
				r.Post("/{id}/recalculate", scoringHandler.Recalculate)

				r.Get("/{id}/fantasy-teams", fantasyHandler.ListTeams)
				r.Get("/{id}/fantasy-teams/{userID}", fantasyHandler.GetTeam)
				r.Put("/{id}/fantasy-teams/{userID}", fantasyHandler.ReplaceTeam)
			})
		})

		api.Route("/matches", func(r chi.Router) {
			r.Get("/{matchID}", matchHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)

				r.Put("/{matchID}/score", matchHandler.UpdateScore)
				r.Post("/{matchID}/complete", matchHandler.Complete)
				r.Post("/{matchID}/correct", matchHandler.Correct)
				r.Delete("/{matchID}", matchHandler.Delete)
			})
		})

		api.Route("/leagues", func(r chi.Router) {
			r.Get("/", leagueHandler.List)
			r.Get("/{id}", leagueHandler.Get)
			r.Get("/{id}/leaderboard", leagueHandler.GetLeaderboard)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)

				r.Post("/", leagueHandler.Create)
				r.Put("/{id}", leagueHandler.Update)
				r.Delete("/{id}", leagueHandler.Delete)
				r.Post("/{id}/recompute", leagueHandler.Recompute)
			})
		})

		api.With(authenticate).Get("/audit", auditHandler.List)
	})
}

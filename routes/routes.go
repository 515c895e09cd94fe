package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pokernight/league-system/handlers"
	"github.com/pokernight/league-system/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	playerHandler *handlers.PlayerHandler,
	leagueHandler *handlers.LeagueHandler,
	sessionHandler *handlers.SessionHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/players", func(r chi.Router) {
		r.Get("/", playerHandler.List)
		r.Get("/{id}", playerHandler.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{id}/avatar", playerHandler.UploadAvatar)
		})
	})

	router.Route("/leagues", func(r chi.Router) {
		r.Get("/", leagueHandler.List)
		r.Get("/{leagueID}", leagueHandler.GetByID)
		r.Get("/{leagueID}/members", leagueHandler.ListMembers)
		r.Get("/{leagueID}/leaderboard", leaderboardHandler.ByLeague)

		// Статус намеренно открывает сессию, если её ещё нет.
		r.Get("/{leagueID}/session", sessionHandler.Status)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", leagueHandler.Create)
			r.Post("/{leagueID}/join", leagueHandler.Join)

			r.Post("/{leagueID}/session/checkin", sessionHandler.CheckIn)
			r.Post("/{leagueID}/session/checkout", sessionHandler.CheckOut)
			r.Post("/{leagueID}/session/start", sessionHandler.Start)
			r.Post("/{leagueID}/session/complete", sessionHandler.Complete)
			r.Post("/{leagueID}/session/reset", sessionHandler.Reset)
		})
	})

	router.Get("/leaderboard", leaderboardHandler.Global)

	router.Get("/ws/leagues/{leagueID}", webSocketHandler.ServeWs)
}

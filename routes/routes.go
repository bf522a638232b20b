package routes

import (
	"net/http"

	"github.com/candemet/matchup/handlers"
	"github.com/candemet/matchup/metrics"
	"github.com/candemet/matchup/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	clubHandler *handlers.ClubHandler,
	teamHandler *handlers.TeamHandler,
	matchHandler *handlers.MatchHandler,
	ladderHandler *handlers.LadderHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}` + "\n"))
	})
	router.Handle("/metrics", metrics.NewMetricsHandler())

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/clubs", func(r chi.Router) {
		r.Get("/", clubHandler.List)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/join", clubHandler.Join)
			r.Post("/leave", clubHandler.Leave)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/", teamHandler.List)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", teamHandler.Create)
		})
	})

	router.Route("/ladders/{ladderID}", func(r chi.Router) {
		r.Get("/standings", ladderHandler.Standings)
		r.Get("/overview", ladderHandler.Overview)
		r.Get("/matches", matchHandler.ListByLadder)
	})

	router.Route("/matches", func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/", matchHandler.Create)
		r.Post("/{matchID}/result", matchHandler.ReportResult)
	})

	router.Get("/ws/ladders/{ladderID}", webSocketHandler.SubscribeLadder)
}

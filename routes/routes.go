package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/scrabblecast/overlay-system/handlers"
	"github.com/scrabblecast/overlay-system/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tournamentHandler *handlers.TournamentHandler,
	overlayHandler *handlers.OverlayHandler,
	playerHandler *handlers.PlayerHandler,
	currentMatchHandler *handlers.CurrentMatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	// Оверлеи и админка ходят с других origin'ов (OBS, локальная разработка).
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler())

	authenticate := middleware.Authenticate(jwtSecret)

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/users", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/me", userHandler.Me)
		r.Patch("/me/theme", userHandler.UpdateTheme)
	})

	router.Route("/tournaments", func(r chi.Router) {
		// Публичные маршруты: оверлеи читают без токена.
		r.Get("/{tournamentID}", tournamentHandler.Get)
		r.Get("/{tournamentID}/tree", tournamentHandler.GetTree)
		r.Get("/{tournamentID}/stats", overlayHandler.TournamentStats)
		r.Get("/{tournamentID}/versions", tournamentHandler.ListVersions)
		r.Get("/{tournamentID}/versions/{fromID}/diff/{toID}", tournamentHandler.DiffVersions)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", tournamentHandler.List)
			r.Post("/", tournamentHandler.Create)
			r.Patch("/{tournamentID}", tournamentHandler.Update)
			r.Delete("/{tournamentID}", tournamentHandler.Delete)
			r.Post("/{tournamentID}/poll", tournamentHandler.Poll)
			r.Post("/{tournamentID}/polling", tournamentHandler.StartPolling)
			r.Delete("/{tournamentID}/polling", tournamentHandler.StopPolling)
		})
	})

	router.Route("/divisions/{divisionID}", func(r chi.Router) {
		r.Get("/standings", overlayHandler.Standings)
		r.Get("/stats", overlayHandler.Stats)
		r.Get("/games", overlayHandler.Games)
	})

	router.Route("/players/{playerID}", func(r chi.Router) {
		r.Get("/", playerHandler.Get)
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/photo", playerHandler.UploadPhoto)
			r.Delete("/photo", playerHandler.RemovePhoto)
		})
	})

	router.Route("/current-match", func(r chi.Router) {
		r.Get("/{userID}", currentMatchHandler.Get)
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Put("/", currentMatchHandler.Set)
			r.Delete("/", currentMatchHandler.Clear)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}

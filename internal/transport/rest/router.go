package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/travel-request/internal"
	"github.com/frahmantamala/travel-request/internal/auth"
	"github.com/frahmantamala/travel-request/internal/directory"
	"github.com/frahmantamala/travel-request/internal/request"
	"github.com/frahmantamala/travel-request/internal/transport/middleware"
	"github.com/frahmantamala/travel-request/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, requestHandler *request.Handler, directoryHandler *directory.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)
	guard := auth.NewRoleGuard(logger)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		if authHandler == nil {
			return
		}

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			pr.Get("/users/me", authHandler.Me)

			if requestHandler != nil {
				pr.Route("/requests", func(rr chi.Router) {
					// every role sees its own scoped slice of the list
					rr.Get("/", requestHandler.ListRequests)
					rr.Get("/{id}", requestHandler.GetRequest)

					rr.Group(func(er chi.Router) {
						er.Use(guard.RequireEmployee())
						er.Post("/", requestHandler.CreateRequest)
						er.Put("/{id}", requestHandler.UpdateRequest)
						er.Delete("/{id}", requestHandler.DeleteRequest)
					})

					rr.Group(func(mr chi.Router) {
						mr.Use(guard.RequireManager())
						mr.Patch("/{id}/status", requestHandler.UpdateManagerStatus)
					})

					rr.Group(func(or chi.Router) {
						or.Use(guard.Require(internal.RoleManager, internal.RoleAdmin))
						or.Patch("/{id}/override", requestHandler.OverrideStatus)
					})

					rr.Group(func(ar chi.Router) {
						ar.Use(guard.RequireAdmin())
						ar.Patch("/{id}/close", requestHandler.CloseTicket)
					})
				})
			}

			if directoryHandler != nil {
				pr.Group(func(ar chi.Router) {
					ar.Use(guard.RequireAdmin())

					ar.Route("/managers", func(dr chi.Router) {
						dr.Get("/", directoryHandler.ListManagers)
						dr.Post("/", directoryHandler.CreateManager)
						dr.Put("/{id}", directoryHandler.UpdateManager)
						dr.Delete("/{id}", directoryHandler.DeleteManager)
					})

					ar.Route("/employees", func(dr chi.Router) {
						dr.Get("/", directoryHandler.ListEmployees)
						dr.Post("/", directoryHandler.CreateEmployee)
						dr.Put("/{id}", directoryHandler.UpdateEmployee)
						dr.Delete("/{id}", directoryHandler.DeleteEmployee)
					})

					ar.Route("/admins", func(dr chi.Router) {
						dr.Post("/", directoryHandler.CreateAdmin)
						dr.Get("/{id}", directoryHandler.GetAdmin)
					})
				})
			}
		})
	})
}

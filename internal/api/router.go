package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/daap14/headless/internal/api/handler"
	"github.com/daap14/headless/internal/api/middleware"
	"github.com/daap14/headless/internal/api/response"
	"github.com/daap14/headless/internal/auth"
	"github.com/daap14/headless/internal/tenant"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger    handler.DBPinger
	Version     string
	OpenAPISpec []byte
	Metrics     *middleware.Metrics

	AuthService middleware.Authenticator
	UserCreator handler.UserCreator
	UserRepo    auth.UserRepository
	TenantRepo  tenant.Repository

	Environments handler.EnvironmentService
	Aliases      handler.AliasService
	Installer    handler.InstallService
	Settings     handler.SettingsService

	// Uploads and Bucket are nil when no bucket is configured; the upload
	// routes are then not mounted.
	Uploads handler.UploadService
	Bucket  handler.BucketChecker

	DefaultTenant string
	DefaultLocale string
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Route not found", middleware.GetRequestID(r.Context()))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Err(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", middleware.GetRequestID(r.Context()))
	})
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler)
		r.Method("GET", "/metrics", deps.Metrics.Exposition())
	}

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Bucket, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	if deps.AuthService == nil {
		return r
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.AuthService))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSuperuser())

			tenantHandler := handler.NewTenantHandler(deps.TenantRepo)
			r.Route("/tenants", func(r chi.Router) {
				r.Post("/", tenantHandler.Create)
				r.Get("/", tenantHandler.List)
				r.Get("/{id}", tenantHandler.Get)
				r.Delete("/{id}", tenantHandler.Delete)
			})

			userHandler := handler.NewUserHandler(deps.UserCreator, deps.UserRepo)
			r.Route("/users", func(r chi.Router) {
				r.Post("/", userHandler.Create)
				r.Get("/", userHandler.List)
				r.Delete("/{id}", userHandler.Delete)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Scope(deps.DefaultTenant, deps.DefaultLocale))

			installHandler := handler.NewInstallHandler(deps.Installer)
			envHandler := handler.NewEnvironmentHandler(deps.Environments)
			aliasHandler := handler.NewAliasHandler(deps.Aliases)
			r.Route("/cms", func(r chi.Router) {
				r.Get("/install", installHandler.Status)
				r.Post("/install", installHandler.Install)

				r.Route("/environments", func(r chi.Router) {
					r.Post("/", envHandler.Create)
					r.Get("/", envHandler.List)
					r.Get("/{id}", envHandler.Get)
					r.Patch("/{id}", envHandler.Update)
					r.Delete("/{id}", envHandler.Delete)
				})

				r.Route("/environment-aliases", func(r chi.Router) {
					r.Post("/", aliasHandler.Create)
					r.Get("/", aliasHandler.List)
					r.Get("/{id}", aliasHandler.Get)
					r.Patch("/{id}", aliasHandler.Update)
					r.Delete("/{id}", aliasHandler.Delete)
				})
			})

			settingsHandler := handler.NewSettingsHandler(deps.Settings)
			r.Route("/files", func(r chi.Router) {
				r.Get("/settings", settingsHandler.Get)
				r.Patch("/settings", settingsHandler.Update)

				if deps.Uploads != nil {
					uploadHandler := handler.NewUploadHandler(deps.Uploads)
					r.Post("/presigned-post", uploadHandler.PresignedPost)
					r.Post("/presigned-posts", uploadHandler.PresignedPosts)
				}
			})
		})
	})

	return r
}

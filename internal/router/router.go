// Package router wires handlers onto the HTTP API.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RehanEggSupplierdev/batchboard/internal/handlers"
	appMiddleware "github.com/RehanEggSupplierdev/batchboard/internal/middleware"
	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
	"github.com/RehanEggSupplierdev/batchboard/internal/realtime"
	"github.com/RehanEggSupplierdev/batchboard/internal/services"
)

type Options struct {
	ServiceName        string
	CORSAllowedOrigins []string
	AuthRateLimit      int
	AuthRateWindow     time.Duration
	MaxUploadSizeMB    int64
	// UploadDir is served at /uploads/ when set.
	UploadDir string
}

type Services struct {
	Auth      *services.AuthService
	Accounts  *services.AccountService
	Profiles  *services.ProfileService
	Pages     *services.PageService
	Comments  *services.CommentService
	Media     *services.MediaService
	Dashboard *services.DashboardService
	Broker    realtime.Broker
	Ready     map[string]observability.Pinger
	// Captcha is optional.
	Captcha   services.CaptchaVerifier
}

func New(svc Services, opts Options) http.Handler {
	authHandler := handlers.NewAuthHandler(svc.Auth, svc.Captcha)
	accountHandler := handlers.NewAccountHandler(svc.Accounts, svc.Auth)
	stream := realtime.NewServer(svc.Broker, opts.CORSAllowedOrigins)
	profileHandler := handlers.NewProfileHandler(svc.Profiles, stream)
	pageHandler := handlers.NewPageHandler(svc.Pages)
	commentHandler := handlers.NewCommentHandler(svc.Comments, stream)
	mediaHandler := handlers.NewMediaHandler(svc.Media, opts.MaxUploadSizeMB)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)

	requireAuth := appMiddleware.RequireAuth(svc.Auth)
	optionalAuth := appMiddleware.OptionalAuth(svc.Auth)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger)
	r.Use(observability.Recovery)
	r.Use(observability.MetricsMiddleware(opts.ServiceName))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", observability.HealthLiveHandler)
	r.Get("/health/ready", observability.HealthReadyHandler(svc.Ready))
	r.Handle("/metrics", promhttp.Handler())

	if opts.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadDir))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(httprate.LimitByIP(opts.AuthRateLimit, opts.AuthRateWindow))
				r.Post("/signup", authHandler.SignUp)
				r.Post("/signin", authHandler.SignIn)
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/signout", authHandler.SignOut)
				r.Get("/session", authHandler.Session)
				r.Put("/password", authHandler.UpdatePassword)
			})
		})

		// Public directory and pages
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/students", profileHandler.ListStudents)
			r.Get("/students/featured", profileHandler.Featured)
			r.Get("/students/{studentId}", profileHandler.GetStudent)
			r.Get("/students/{studentId}/stream", profileHandler.Subscribe)
			r.Get("/students/{studentId}/pages/{pageId}", pageHandler.ViewPublished)
			r.Get("/comments/{targetType}/{targetId}", commentHandler.List)
			r.Get("/comments/{targetType}/{targetId}/stream", commentHandler.Subscribe)
			r.Post("/markdown/preview", pageHandler.Preview)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Delete("/me", accountHandler.DeleteAccount)
			r.Get("/me/profile", profileHandler.GetMine)
			r.Put("/me/profile", profileHandler.UpdateMine)
			r.Get("/me/dashboard", dashboardHandler.Get)

			r.Route("/me/pages", func(r chi.Router) {
				r.Get("/", pageHandler.ListMine)
				r.Post("/", pageHandler.Create)
				r.Route("/{pageId}", func(r chi.Router) {
					r.Get("/", pageHandler.GetMine)
					r.Put("/", pageHandler.Update)
					r.Patch("/published", pageHandler.SetPublished)
					r.Delete("/", pageHandler.Delete)
				})
			})

			r.Post("/comments", commentHandler.Create)
			r.Put("/comments/{commentId}", commentHandler.Update)
			r.Delete("/comments/{commentId}", commentHandler.Delete)

			r.Route("/me/media", func(r chi.Router) {
				r.Get("/", mediaHandler.ListMine)
				r.Post("/", mediaHandler.Upload)
				r.Delete("/{mediaId}", mediaHandler.Delete)
			})
		})
	})

	return r
}

package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-leave-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/time/rate"
)

type Handlers struct {
	Leave    LeaveHandler
	Employee EmployeeHandler
	Admin    AdminHandler
	Settings SettingsHandler
	Events   EventHandler
}

type RouterOptions struct {
	AppName        string
	Env            string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewRouter(JWTService jwt.Service, h Handlers, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", opts.AppName),
		slog.String("version", "v1.0.0"),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	limit := rate.Limit(opts.RateLimitRPS)
	if opts.RateLimitRPS <= 0 {
		limit = rate.Inf
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Authenticated by a short-lived token in the query string
		r.Get("/events", h.Events.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.RateLimit(limit, opts.RateLimitBurst))

			r.Post("/events/token", h.Events.Token)

			r.Route("/leaves", func(r chi.Router) {
				r.Get("/{id}", h.Leave.Get)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionLeaveManage))
					r.Post("/", h.Leave.Create)
					r.Post("/quick", h.Leave.QuickCreate)
					r.Put("/{id}", h.Leave.Update)
					r.Delete("/{id}", h.Leave.Delete)
				})
			})

			r.Route("/employees", func(r chi.Router) {
				// Admin or the employee themself
				r.With(middleware.RequireEmployeeAccess("id")).Get("/{id}/leaves", h.Employee.ListLeaves)
				r.With(middleware.RequireEmployeeAccess("id")).Get("/{id}/balance", h.Employee.GetBalance)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionEmployeeViewAll))
					r.Get("/", h.Employee.List)
					r.Get("/{id}", h.Employee.Get)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionEmployeeManage))
					r.Post("/", h.Employee.Create)
					r.Post("/bulk-delete", h.Employee.BulkDelete)
					r.Put("/{id}", h.Employee.Update)
					r.Delete("/{id}", h.Employee.Delete)
				})
			})

			r.Route("/leave-years", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/", h.Admin.ListYears)
				r.Get("/current", h.Admin.GetCurrentYear)
			})

			// Admin only
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.With(middleware.RequirePermission(user.PermissionLeaveYearManage)).
					Post("/leave-years/rollover", h.Admin.Rollover)

				r.Route("/balances", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionBalanceManage)).Post("/reset", h.Admin.ResetBalances)
					r.With(middleware.RequirePermission(user.PermissionBalanceManage)).Post("/reconcile", h.Admin.ReconcileBalances)
					r.With(middleware.RequirePermission(user.PermissionDataTransfer)).Get("/export", h.Admin.ExportBalances)
				})

				r.With(middleware.RequirePermission(user.PermissionDataTransfer)).
					Post("/leaves/import", h.Admin.ImportLeaves)

				r.Route("/settings", func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionSettingsManage))
					r.Get("/", h.Settings.Get)
					r.Put("/", h.Settings.Update)
				})
			})
		})
	})

	return r
}

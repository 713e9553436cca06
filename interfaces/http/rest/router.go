package rest

import (
	"context"
	"net/http"
	"time"

	"catnook-backend/application/commands/bus"
	querybus "catnook-backend/application/queries/bus"
	"catnook-backend/interfaces/http/rest/handlers"
	"catnook-backend/interfaces/http/rest/middleware"
	"catnook-backend/pkg/auth"
	"catnook-backend/pkg/common"
	pkgerrors "catnook-backend/pkg/errors"
	"catnook-backend/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ReadinessFunc reports whether the backing store answers
type ReadinessFunc func(ctx context.Context) error

// RouterConfig toggles the optional layers
type RouterConfig struct {
	ServiceName    string
	EnableCORS     bool
	AllowedOrigins []string
	EnableTracing  bool
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	auth       middleware.AuthConfig
	errors     *pkgerrors.ErrorHandler
	metrics    *observability.Collector
	ready      ReadinessFunc
	config     RouterConfig
	logger     *zap.Logger
}

// NewRouter creates a new router instance. metrics and ready may be nil.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	authConfig middleware.AuthConfig,
	errs *pkgerrors.ErrorHandler,
	metrics *observability.Collector,
	ready ReadinessFunc,
	config RouterConfig,
	logger *zap.Logger,
) *Router {
	if authConfig.Errors == nil {
		authConfig.Errors = errs
	}
	if authConfig.Logger == nil {
		authConfig.Logger = logger
	}
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		auth:       authConfig,
		errors:     errs,
		metrics:    metrics,
		ready:      ready,
		config:     config,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.config.EnableTracing {
		router.Use(observability.TracingMiddleware(rt.config.ServiceName))
	}
	if rt.metrics != nil {
		router.Use(rt.metrics.MetricsMiddleware)
	}

	if rt.config.EnableCORS {
		origins := rt.config.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"http://localhost:3000"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	cats := handlers.NewCatHandler(rt.commandBus, rt.queryBus, rt.errors)
	interactions := handlers.NewInteractionHandler(rt.commandBus, rt.queryBus, rt.errors)
	accounts := handlers.NewAccountHandler(rt.commandBus, rt.queryBus, rt.errors)

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.AuthenticateWithConfig(rt.auth))

		r.Route("/interactions", func(r chi.Router) {
			r.Get("/", interactions.List)
			r.Get("/last/{catID}", interactions.Last)
			// {id} is the cat for POST and the interaction for GET
			r.Post("/{id}", interactions.Record)
			r.Get("/{id}", interactions.Get)
		})

		r.Route("/cats", func(r chi.Router) {
			r.Get("/adoptable", cats.ListAdoptable)
			r.Get("/{catID}", cats.Get)
			r.Post("/{catID}/mood", cats.ApplyMood)
			r.Post("/{catID}/chat", cats.Chat)
			r.Post("/{catID}/adopt", cats.Adopt)
			r.Post("/{catID}/abandon", cats.Abandon)
		})

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", accounts.Me)
			r.Get("/cats", accounts.MyCats)
			r.Post("/login", accounts.Login)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(rt.errors, auth.RoleAdmin))
			r.Post("/cats", cats.Create)
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.ready != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := rt.ready(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/campstack/campstack/internal/auth"
	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/metrics"
	"github.com/campstack/campstack/internal/ratelimit"
	"github.com/campstack/campstack/internal/repository"
)

// healthTimeout caps the store ping inside the health check.
const healthTimeout = 2 * time.Second

// Router assembles the API routes and request middleware.
type Router struct {
	bootcamps *BootcampHandler
	courses   *CourseHandler
	reviews   *ReviewHandler
	authH     *AuthHandler
	users     *UserHandler
	authMW    *auth.Middleware
	limiter   ratelimit.Limiter
	metrics   *metrics.Metrics
	db        repository.DatabaseHealth
	logger    zerolog.Logger
}

// RouterConfig contains the handlers and cross-cutting collaborators the
// router wires together. Limiter and Metrics are optional.
type RouterConfig struct {
	Bootcamps *BootcampHandler
	Courses   *CourseHandler
	Reviews   *ReviewHandler
	Auth      *AuthHandler
	Users     *UserHandler
	AuthMW    *auth.Middleware
	Limiter   ratelimit.Limiter
	Metrics   *metrics.Metrics
	DB        repository.DatabaseHealth
	Logger    zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		bootcamps: cfg.Bootcamps,
		courses:   cfg.Courses,
		reviews:   cfg.Reviews,
		authH:     cfg.Auth,
		users:     cfg.Users,
		authMW:    cfg.AuthMW,
		limiter:   cfg.Limiter,
		metrics:   cfg.Metrics,
		db:        cfg.DB,
		logger:    cfg.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(rt.logger))
	r.Use(middleware.Recoverer)
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
	}
	if rt.limiter != nil {
		r.Use(RateLimit(rt.limiter, rt.logger))
	}

	r.Get("/health", rt.handleHealth)
	if rt.metrics != nil {
		r.Handle("/metrics", rt.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/bootcamps", rt.bootcampRoutes)
		r.Route("/courses", rt.courseRoutes)
		r.Route("/reviews", rt.reviewRoutes)
		r.Route("/auth", rt.authRoutes)
		r.Route("/users", rt.userRoutes)
	})

	return r
}

func (rt *Router) bootcampRoutes(r chi.Router) {
	r.Get("/", rt.bootcamps.List)
	r.Get("/radius/{zipcode}/{distance}", rt.bootcamps.WithinRadius)
	r.Get("/{id}", rt.bootcamps.Get)
	r.Get("/{bootcampID}/courses", rt.courses.ListByBootcamp)
	r.Get("/{bootcampID}/reviews", rt.reviews.ListByBootcamp)

	// Publishing routes
	r.Group(func(r chi.Router) {
		r.Use(rt.authMW.Authenticate)
		r.Use(rt.authMW.RequireRoles(domain.RolePublisher, domain.RoleAdmin))
		r.Post("/", rt.bootcamps.Create)
		r.Put("/{id}", rt.bootcamps.Update)
		r.Delete("/{id}", rt.bootcamps.Delete)
		r.Put("/{id}/photo", rt.bootcamps.UploadPhoto)
		r.Post("/{bootcampID}/courses", rt.courses.Create)
	})

	// Reviewing routes
	r.Group(func(r chi.Router) {
		r.Use(rt.authMW.Authenticate)
		r.Use(rt.authMW.RequireRoles(domain.RoleUser, domain.RoleAdmin))
		r.Post("/{bootcampID}/reviews", rt.reviews.Create)
	})
}

func (rt *Router) courseRoutes(r chi.Router) {
	r.Get("/", rt.courses.List)
	r.Get("/{id}", rt.courses.Get)

	r.Group(func(r chi.Router) {
		r.Use(rt.authMW.Authenticate)
		r.Use(rt.authMW.RequireRoles(domain.RolePublisher, domain.RoleAdmin))
		r.Put("/{id}", rt.courses.Update)
		r.Delete("/{id}", rt.courses.Delete)
	})
}

func (rt *Router) reviewRoutes(r chi.Router) {
	r.Get("/", rt.reviews.List)
	r.Get("/{id}", rt.reviews.Get)

	r.Group(func(r chi.Router) {
		r.Use(rt.authMW.Authenticate)
		r.Use(rt.authMW.RequireRoles(domain.RoleUser, domain.RoleAdmin))
		r.Put("/{id}", rt.reviews.Update)
		r.Delete("/{id}", rt.reviews.Delete)
	})
}

func (rt *Router) authRoutes(r chi.Router) {
	r.Post("/register", rt.authH.Register)
	r.Post("/login", rt.authH.Login)
	r.Get("/logout", rt.authH.Logout)
	r.Post("/forgotpassword", rt.authH.ForgotPassword)
	r.Put("/resetpassword/{resettoken}", rt.authH.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(rt.authMW.Authenticate)
		r.Get("/me", rt.authH.Me)
		r.Put("/updatedetails", rt.authH.UpdateDetails)
		r.Put("/updatepassword", rt.authH.UpdatePassword)
	})
}

func (rt *Router) userRoutes(r chi.Router) {
	r.Use(rt.authMW.Authenticate)
	r.Use(rt.authMW.RequireRoles(domain.RoleAdmin))
	r.Get("/", rt.users.List)
	r.Post("/", rt.users.Create)
	r.Get("/{id}", rt.users.Get)
	r.Put("/{id}", rt.users.Update)
	r.Delete("/{id}", rt.users.Delete)
}

// handleHealth reports liveness plus store reachability.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if rt.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := rt.db.Ping(ctx); err != nil {
			rt.logger.Error().Err(err).Msg("health check failed")
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]string{"status": status})
}

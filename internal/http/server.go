package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/foodgram/internal/auth"
	"github.com/Clark-Hu/foodgram/internal/config"
	"github.com/Clark-Hu/foodgram/internal/media"
	"github.com/Clark-Hu/foodgram/internal/metrics"
	"github.com/Clark-Hu/foodgram/internal/repository"
	"github.com/Clark-Hu/foodgram/internal/shoppinglist"
	"github.com/Clark-Hu/foodgram/internal/store"
)

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg      config.Config
	store    *store.Store
	repo     *repository.Repository
	tokens   *auth.TokenManager
	media    *media.Storage
	shopping *shoppinglist.Aggregator
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	router   chi.Router
	httpSrv  *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, st *store.Store, repo *repository.Repository, tokens *auth.TokenManager, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		repo:     repo,
		tokens:   tokens,
		media:    media.New(cfg.MediaRoot, cfg.MediaURL),
		shopping: shoppinglist.New(repository.NewShoppingSource(repo)),
		metrics:  metrics.New(),
		logger:   logger.With().Str("component", "http").Logger(),
		router:   chi.NewRouter(),
	}
	if st != nil {
		s.metrics.ObservePool(st.Stats)
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.StripSlashes)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(s.metrics.Middleware)
	if cfg.RateLimitRequests > 0 {
		s.router.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	s.registerRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	mediaPrefix := strings.TrimSuffix(s.cfg.MediaURL, "/")
	s.router.Handle(mediaPrefix+"/*", http.StripPrefix(mediaPrefix, http.FileServer(http.Dir(s.cfg.MediaRoot))))

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Route("/auth/token", func(r chi.Router) {
			r.With(httprate.LimitByIP(20, time.Minute)).Post("/login", s.handleLogin)
			r.With(s.requireAuth).Post("/logout", s.handleLogout)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.handleListUsers)
			r.Post("/", s.handleRegister)
			r.With(s.requireAuth).Get("/me", s.handleMe)
			r.With(s.requireAuth).Post("/set_password", s.handleSetPassword)
			r.With(s.requireAuth).Get("/subscriptions", s.handleListSubscriptions)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetUser)
				r.With(s.requireAuth).Post("/subscribe", s.handleSubscribe)
				r.With(s.requireAuth).Delete("/subscribe", s.handleUnsubscribe)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", s.handleListTags)
			r.Get("/{id}", s.handleGetTag)
		})

		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", s.handleListIngredients)
			r.Get("/{id}", s.handleGetIngredient)
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", s.handleListRecipes)
			r.With(s.requireAuth).Post("/", s.handleCreateRecipe)
			r.With(s.requireAuth).Get("/download_shopping_cart", s.handleDownloadShoppingCart)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRecipe)
				r.With(s.requireAuth).Patch("/", s.handleUpdateRecipe)
				r.With(s.requireAuth).Delete("/", s.handleDeleteRecipe)
				r.With(s.requireAuth).Post("/favorite", s.handleAddFavorite)
				r.With(s.requireAuth).Delete("/favorite", s.handleRemoveFavorite)
				r.With(s.requireAuth).Post("/shopping_cart", s.handleAddToCart)
				r.With(s.requireAuth).Delete("/shopping_cart", s.handleRemoveFromCart)
			})
		})
	})
}

// Start boots the HTTP server and blocks until ctx is cancelled or serving fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpSrv.Addr).Msg("listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("health check failed")
		s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Database unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
)

// NewRouter wires every route of the local API
func NewRouter(h *Handler, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.HealthCheck)
	r.Get("/session", h.GetSession)
	r.Put("/session/price", h.SetSessionPrice)
	r.Get("/platform", h.GetPlatform)
	r.Get("/leaderboard", h.GetLeaderboard)

	r.Route("/duels", func(r chi.Router) {
		r.Get("/recent", h.GetRecentDuels)
		r.Get("/{id}", h.GetDuel)
		r.Post("/{id}/cancel", h.CancelDuel)
		r.Post("/{id}/resolve", h.ResolveDuel)
	})
	r.Get("/players/{player}/stats", h.GetPlayerStats)
	r.Get("/players/{player}/balance", h.GetPlayerBalance)
	r.Get("/prices/{asset}", h.GetPrice)
	r.Post("/prices/{asset}", h.UpdatePrice)

	r.Get("/queue", h.GetQueue)
	r.Post("/queue", h.JoinQueue)
	r.Delete("/queue", h.LeaveQueue)
	r.Post("/predictions", h.SubmitPrediction)

	r.Route("/balance", func(r chi.Router) {
		r.Post("/deposit", h.Deposit)
		r.Post("/withdraw", h.Withdraw)
	})

	r.Get("/toasts", h.ListToasts)
	r.Delete("/toasts/{id}", h.DismissToast)

	return r
}

// requestLogger logs each request at debug level with its status and latency
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"bytes":     ww.BytesWritten(),
			"duration":  time.Since(start),
			"requestId": chimiddleware.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}

// Server runs the local API until its context is cancelled
type Server struct {
	srv *http.Server
}

// NewServer creates a server for handler on addr
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 45 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start serves in the background. Listen errors other than a clean shutdown are logged.
func (s *Server) Start() {
	go func() {
		log.WithField("addr", s.srv.Addr).Info("API server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("API server stopped")
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

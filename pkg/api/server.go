package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	MaxConcurrent  int
	CORSOrigins    []string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(addr string) ServerConfig {
	return ServerConfig{
		Addr:           addr,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 5 * time.Second,
		MaxConcurrent:  runtime.NumCPU() * 2,
	}
}

// NewRouter registers every route with its middleware.
func NewRouter(cfg ServerConfig, handlers *Handlers, log logrus.FieldLogger) *mux.Router {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	m := &middleware{
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		timeout: cfg.RequestTimeout,
		log:     log.WithField("component", "http"),
	}

	r := mux.NewRouter()
	r.Use(m.recoverer, m.headers, m.limit, m.deadline, m.access)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/route", handlers.HandleRoute).Methods(http.MethodGet)
	v1.HandleFunc("/locate", handlers.HandleLocate).Methods(http.MethodPost)
	v1.HandleFunc("/plan", handlers.HandlePlan).Methods(http.MethodPost)
	v1.HandleFunc("/graph", handlers.HandleGraph).Methods(http.MethodGet)
	v1.HandleFunc("/health", handlers.HandleHealth).Methods(http.MethodGet)
	v1.HandleFunc("/stats", handlers.HandleStats).Methods(http.MethodGet)
	return r
}

// NewServer creates an HTTP server with all routes and middleware.
func NewServer(cfg ServerConfig, handlers *Handlers, log logrus.FieldLogger) *http.Server {
	var handler http.Handler = NewRouter(cfg, handlers, log)
	if len(cfg.CORSOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type"},
		}).Handler(handler)
	}

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// ListenAndServe starts the server and blocks until ctx is done or a
// shutdown signal arrives.
func ListenAndServe(ctx context.Context, srv *http.Server, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT, os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type middleware struct {
	sem     chan struct{}
	timeout time.Duration
	log     logrus.FieldLogger
}

func (m *middleware) headers(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// limit rejects requests beyond the concurrency limit.
func (m *middleware) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case m.sem <- struct{}{}:
			defer func() { <-m.sem }()
		default:
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusServiceUnavailable, "service_unavailable", "", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *middleware) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				m.log.WithField("path", r.URL.Path).Errorf("panic: %v", rec)
				writeError(w, http.StatusInternalServerError, "internal_error", "", "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (m *middleware) deadline(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.timeout <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), m.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *middleware) access(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		m.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).Round(time.Microsecond),
		}).Debug("request")
	})
}

// Package httpapi provides the HTTP API server for the analytics engine.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"github.com/keepwise/analytics-backend/internal/seqguard"
	"github.com/keepwise/analytics-backend/internal/usecase/curve"
	"github.com/keepwise/analytics-backend/internal/usecase/returns"
	"github.com/keepwise/analytics-backend/internal/usecase/wealth"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	APIToken        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server represents the HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	logger     *zap.Logger
	config     *ServerConfig

	returnsService *returns.Service
	curveService   *curve.Service
	wealthService  *wealth.Service

	// Refresh results for each named view pass through the guard so a slow
	// stale response can never overwrite a newer one in the view cache.
	guard *seqguard.Guard
	views *xsync.Map[string, cachedView]
}

type cachedView struct {
	ComputedAt time.Time   `json:"computed_at"`
	Payload    interface{} `json:"payload"`
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	logger *zap.Logger,
	returnsService *returns.Service,
	curveService *curve.Service,
	wealthService *wealth.Service,
) *Server {
	s := &Server{
		router:         mux.NewRouter(),
		logger:         logger,
		config:         config,
		returnsService: returnsService,
		curveService:   curveService,
		wealthService:  wealthService,
		guard:          seqguard.New(),
		views:          xsync.NewMap[string, cachedView](),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	if s.config.APIToken != "" {
		api.Use(s.authMiddleware)
	}
	api.HandleFunc("/investment/return", s.handleInvestmentReturn).Methods(http.MethodGet)
	api.HandleFunc("/investment/returns", s.handleInvestmentReturns).Methods(http.MethodGet)
	api.HandleFunc("/investment/curve", s.handleInvestmentCurve).Methods(http.MethodGet)
	api.HandleFunc("/wealth/overview", s.handleWealthOverview).Methods(http.MethodGet)
	api.HandleFunc("/wealth/curve", s.handleWealthCurve).Methods(http.MethodGet)
	api.HandleFunc("/views/{view}/latest", s.handleLatestView).Methods(http.MethodGet)
}

// Handler exposes the routed handler, used directly by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving and blocks until the listener fails or closes.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.config.Host + ":" + s.config.Port,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// requestIDMiddleware tags every request with an id for log correlation.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(withRequestID(r.Context(), id)))
	})
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", requestIDFrom(r.Context())),
		)
	})
}

// recoveryMiddleware recovers from panics and returns a 500 error.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered", zap.Any("panic", err))
				respondJSON(w, http.StatusInternalServerError, ErrorResponse{
					Error: ErrorBody{Category: "INTERNAL_ERROR", Message: "an internal error occurred"},
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates the bearer token on API routes.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			respondJSON(w, http.StatusUnauthorized, ErrorResponse{
				Error: ErrorBody{Category: "UNAUTHORIZED", Message: "missing authorization header"},
			})
			return
		}
		if header != "Bearer "+s.config.APIToken {
			respondJSON(w, http.StatusUnauthorized, ErrorResponse{
				Error: ErrorBody{Category: "UNAUTHORIZED", Message: "invalid token"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

type contextKey string

const requestIDKey contextKey = "request_id"

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

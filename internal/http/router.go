package httpapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"fieldmetrics-dashboard/internal/config"
	"fieldmetrics-dashboard/internal/http/handlers"
	"fieldmetrics-dashboard/internal/middleware"
	"fieldmetrics-dashboard/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func NewRouter(h *handlers.Handler, logger *zap.Logger, cfg config.Config, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(logger))

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"X-Api-Key",
				"Cache-Control",
				"Pragma",
			},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.Env == "development" {
		r.Post("/auth/dev-token", h.DevToken)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.DashboardAuth(cfg.JWTSecret, cfg.APIKeyHash))

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/kpis", h.DashboardKPIs)
			r.Get("/trends", h.DashboardTrends)
			r.Get("/scores", h.DashboardScores)
			r.Get("/report.pdf", h.DashboardReportPDF)
			r.Get("/reports", h.DashboardReportArchive)
			r.Delete("/cache", h.DashboardCacheClear)
		})

		r.Route("/sources", func(r chi.Router) {
			r.Get("/", h.SourcesList)
			r.Post("/refresh", h.SourcesRefresh)
		})
	})

	if wsServer != nil {
		r.Get("/ws/dashboard", wsServer.DashboardWS)
	}

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Package server exposes the HTTP surface: visit intake, the statistics read
// endpoints, the admin aggregation trigger, health and metrics.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"paperless-analytics/internal/common/clock"
	"paperless-analytics/internal/common/config"
	"paperless-analytics/internal/common/logger"
	"paperless-analytics/internal/models"
)

// StatisticsReader is the query service surface the handlers call.
type StatisticsReader interface {
	GeneralStats(ctx context.Context, q models.StatsQuery) (models.GeneralStatsResponse, error)
	TransactionsOverTime(ctx context.Context, q models.StatsQuery) (models.TransactionsOverTimeResponse, error)
	MostUsedServices(ctx context.Context, q models.StatsQuery) (models.MostUsedServicesResponse, error)
	BestPerformingBranch(ctx context.Context, q models.StatsQuery) (models.BestPerformingBranchResponse, error)
	BestPerformingBranches(ctx context.Context, q models.StatsQuery) (models.BestPerformingBranchesResponse, error)
	CustomerEngagementScore(ctx context.Context, q models.StatsQuery) (models.CustomerEngagementScoreResponse, error)
	BranchInsights(ctx context.Context, district string) (models.BranchInsightsResponse, error)
	BranchDetail(ctx context.Context, branchID string, q models.StatsQuery) (models.BranchDetailResponse, error)
	CustomerStats(ctx context.Context, q models.StatsQuery) (models.CustomerStatsResponse, error)
}

// JobTrigger runs one aggregation job synchronously.
type JobTrigger interface {
	Trigger(ctx context.Context, jobType, date string) error
}

// NumberIssuer hands out the next queue number for a visit.
type NumberIssuer interface {
	Next(ctx context.Context, branchID string, channel models.Channel) (int64, error)
}

// VisitWriter persists issued visit events.
type VisitWriter interface {
	InsertVisit(ctx context.Context, v models.VisitEvent) error
}

// Server wires the handlers into a chi router behind one http.Server.
type Server struct {
	httpServer *http.Server
	logger     logger.Logger
}

func New(cfg config.ServerConfig, stats StatisticsReader, trigger JobTrigger, issuer NumberIssuer, visits VisitWriter, clk clock.Clock, log logger.Logger) *Server {
	h := &handlers{
		stats:   stats,
		trigger: trigger,
		issuer:  issuer,
		visits:  visits,
		clock:   clk,
		logger:  log.WithFields(map[string]interface{}{"component": "server"}),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/visits", h.createVisit)

	r.Route("/statistics", func(r chi.Router) {
		r.Get("/general", h.generalStats)
		r.Get("/transactions-overtime", h.transactionsOverTime)
		r.Get("/most-used-services", h.mostUsedServices)
		r.Get("/best-performing-branch", h.bestPerformingBranch)
		r.Get("/best-performing-branches-list", h.bestPerformingBranches)
		r.Get("/customer-engagement", h.customerEngagement)
		r.Get("/branch-insights", h.branchInsights)
		r.Get("/branch/{branchId}", h.branchDetail)
		r.Get("/customers", h.customerStats)
		r.Post("/aggregate", h.triggerAggregation)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Address,
			Handler:      r,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Millisecond,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Millisecond,
		},
		logger: log.WithFields(map[string]interface{}{"component": "server"}),
	}
}

// Start blocks serving requests until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

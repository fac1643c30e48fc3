package adminapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hookpulse/hookpulse/pkg/adminapi/middleware"
	"github.com/hookpulse/hookpulse/pkg/config"
	"github.com/hookpulse/hookpulse/pkg/model"
	"github.com/hookpulse/hookpulse/pkg/monitor"
	"github.com/hookpulse/hookpulse/pkg/store/postgres"
	redisstore "github.com/hookpulse/hookpulse/pkg/store/redis"
)

// Server is the read-only ops surface over the delivery ledger and the
// monitor check log. Nothing here mutates dispatcher state.
type Server struct {
	router      *gin.Engine
	ledger      *postgres.LedgerRepository
	monitors    *postgres.MonitorRepository
	statusCache *redisstore.StatusCache
	cfg         *config.Config
	logger      *zap.Logger
}

func NewServer(ledger *postgres.LedgerRepository, monitors *postgres.MonitorRepository, statusCache *redisstore.StatusCache, cfg *config.Config, logger *zap.Logger) *Server {
	s := &Server{
		ledger:      ledger,
		monitors:    monitors,
		statusCache: statusCache,
		cfg:         cfg,
		logger:      logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.Use(middleware.Auth(s.cfg.Admin))

		api.GET("/deliveries", s.listDeliveries)
		api.GET("/monitors/:id/checks", s.listChecks)
		api.GET("/monitors/:id/status", s.monitorStatus)
	}

	s.router = r
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) listDeliveries(c *gin.Context) {
	status := model.DeliveryStatus(c.Query("status"))
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	attempts, total, err := s.ledger.ListAttempts(c.Request.Context(), status, limit, offset)
	if err != nil {
		s.logger.Error("failed to list delivery attempts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list deliveries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deliveries": attempts,
		"total":      total,
	})
}

func (s *Server) listChecks(c *gin.Context) {
	monitorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid monitor id"})
		return
	}
	limit := intQuery(c, "limit", 50)

	checks, err := s.monitors.RecentChecks(c.Request.Context(), monitorID, limit)
	if err != nil {
		s.logger.Error("failed to list monitor checks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list checks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"checks": checks})
}

// monitorStatus serves the cached derived health when present, falling back
// to deriving it from the check log.
func (s *Server) monitorStatus(c *gin.Context) {
	monitorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid monitor id"})
		return
	}

	if s.statusCache != nil {
		cached, err := s.statusCache.Get(c.Request.Context(), monitorID.String())
		if err != nil {
			s.logger.Warn("status cache read failed", zap.Error(err))
		} else if cached != nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	window := s.cfg.Monitor.FailureWindow
	checks, err := s.monitors.RecentChecks(c.Request.Context(), monitorID, window)
	if err != nil {
		s.logger.Error("failed to derive monitor status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to derive status"})
		return
	}

	status := redisstore.MonitorStatus{
		MonitorID: monitorID.String(),
		Healthy:   !monitor.Unhealthy(checks, window),
	}
	if len(checks) > 0 {
		status.CheckedAt = checks[0].CheckedAt
	}
	c.JSON(http.StatusOK, status)
}

func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

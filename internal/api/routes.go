package api

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	sievecore "github.com/rawblock/sieve"
	"github.com/rawblock/sieve/internal/config"
)

// Handler holds the state sieve's admin endpoints read from.
type Handler struct {
	engine *sievecore.Sieve
	hub    *Hub
	log    zerolog.Logger
}

// SetupRouter builds the admin HTTP surface: health, active chains, a
// websocket match feed, and a Prometheus /metrics endpoint. It is
// observability-only — it never persists filters or matches and performs
// no historical scanning.
func SetupRouter(cfg config.AdminConfig, engine *sievecore.Sieve, hub *Hub, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	allowedOrigins := os.Getenv("SIEVE_ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		switch {
		case allowedOrigins == "" || allowedOrigins == "*":
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		default:
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	h := &Handler{engine: engine, hub: hub, log: log}

	pub := r.Group("/api/v1")
	{
		pub.GET("/health", h.handleHealth)
		pub.GET("/stream", hub.Subscribe)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	protected := r.Group("/api/v1")
	protected.Use(AuthMiddleware(cfg.AuthToken, log))
	protected.Use(NewRateLimiter(cfg.RateLimit).Middleware())
	{
		protected.GET("/chains", h.handleChains)
	}

	return r
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"engine": "sieve",
	})
}

// handleChains reports the chains currently connected and ingesting.
func (h *Handler) handleChains(c *gin.Context) {
	active := h.engine.ActiveChains()
	names := make([]string, 0, len(active))
	for _, ch := range active {
		names = append(names, ch.String())
	}
	c.JSON(http.StatusOK, gin.H{"active_chains": names})
}

package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"ratepilot/internal/infra/config"
	"ratepilot/internal/infra/obs"
)

type PricingHTTP interface {
	Quote(c *gin.Context)
	UpdateStrategy(c *gin.Context)
}

type RevenueHTTP interface {
	Optimize(c *gin.Context)
}

type CalendarHTTP interface {
	Sync(c *gin.Context)
	Calendar(c *gin.Context)
}

type AvailabilityHTTP interface {
	SetRules(c *gin.Context)
	CheckStay(c *gin.Context)
}

type InsightsHTTP interface {
	Insights(c *gin.Context)
}

type Handlers struct {
	Pricing      PricingHTTP
	Revenue      RevenueHTTP
	Calendar     CalendarHTTP
	Availability AvailabilityHTTP
	Insights     InsightsHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	router.GET("/metrics", obs.MetricsHandler())

	props := router.Group("/api/v1/properties/:id")
	if h.Pricing != nil {
		props.GET("/quote", h.Pricing.Quote)
		props.PUT("/pricing-strategy", h.Pricing.UpdateStrategy)
	}
	if h.Revenue != nil {
		props.POST("/optimize", h.Revenue.Optimize)
	}
	if h.Calendar != nil {
		props.GET("/calendar", h.Calendar.Calendar)
		props.POST("/calendar/sync", h.Calendar.Sync)
	}
	if h.Availability != nil {
		props.PUT("/availability-rules", h.Availability.SetRules)
		props.GET("/availability/check", h.Availability.CheckStay)
	}
	if h.Insights != nil {
		props.GET("/insights", h.Insights.Insights)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}

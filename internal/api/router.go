package api

import (
	"context"
	"net/http"
	"time"

	"nutrition-insight/internal/api/handlers/health"
	"nutrition-insight/internal/api/handlers/nutrition"
	"nutrition-insight/internal/api/middleware"
	"nutrition-insight/internal/core/enrichment"
	"nutrition-insight/internal/core/foodindex"
	"nutrition-insight/internal/core/insight"
	"nutrition-insight/internal/core/matching"
	"nutrition-insight/internal/infrastructure/config"
	"nutrition-insight/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置
	timeoutDuration = 30 * time.Second
	// 請求體大小限制 (1MB)，食材清單不該更大
	maxBodySize = 1 << 20
)

// Dependencies 路由需要的服務
type Dependencies struct {
	Matcher      *matching.Matcher
	Index        *foodindex.Index
	Orchestrator *enrichment.Orchestrator
	Store        enrichment.RecordStore
	Deleter      nutrition.RecordDeleter
	Aggregator   *insight.Aggregator
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	// 限流
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	// 重複提交去重
	router.Use(middleware.Deduplication(cfg))

	// 請求超時
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  "REQUEST_TIMEOUT",
			})
			c.Abort()
		}
	})

	// 初始化處理器
	healthHandler := health.NewHandler(cfg, deps.Orchestrator, deps.Index.Size())
	enrichHandler := nutrition.NewEnrichHandler(deps.Orchestrator, deps.Store, deps.Deleter)
	matchHandler := nutrition.NewMatchHandler(deps.Matcher, deps.Index, cfg.Matcher.TopK)
	insightHandler := nutrition.NewInsightHandler(deps.Aggregator)

	// 健康檢查路由
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		recordGroup := api.Group("/records")
		{
			recordGroup.POST("/:id/enrich", enrichHandler.HandleEnrich)
			recordGroup.GET("/:id", enrichHandler.HandleGetRecord)
			recordGroup.DELETE("/:id", enrichHandler.HandleDeleteRecord)
		}

		matchGroup := api.Group("/match")
		{
			matchGroup.POST("/preview", matchHandler.HandlePreview)
		}

		insightGroup := api.Group("/insight")
		{
			insightGroup.GET("/summary", insightHandler.HandleSummary)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.String("version", cfg.App.Version),
		zap.Int("index_size", deps.Index.Size()),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router
}

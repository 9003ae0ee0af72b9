package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutrition-insight/internal/api"
	"nutrition-insight/internal/api/handlers/nutrition"
	"nutrition-insight/internal/core/enrichment"
	"nutrition-insight/internal/core/foodindex"
	"nutrition-insight/internal/core/insight"
	"nutrition-insight/internal/core/matching"
	"nutrition-insight/internal/infrastructure/config"
	"nutrition-insight/internal/infrastructure/notify"
	"nutrition-insight/internal/infrastructure/storage"
	"nutrition-insight/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("dataset_path", cfg.Dataset.Path),
		zap.String("dataset_format", cfg.Dataset.Format),
		zap.Float64("confidence_threshold", cfg.Matcher.ConfidenceThreshold),
	)

	// 載入食品資料集
	var records []foodindex.Record
	switch cfg.Dataset.Format {
	case "sqlite":
		records, err = foodindex.LoadSQLite(cfg.Dataset.Path)
	default:
		records, err = foodindex.LoadJSON(cfg.Dataset.Path)
	}
	if err != nil {
		common.LogFatal("Failed to load food dataset",
			zap.String("path", cfg.Dataset.Path),
			zap.Error(err))
	}

	// 建立食品索引
	index, err := foodindex.New(records, matching.NormalizeTokens)
	if err != nil {
		common.LogFatal("Failed to build food index", zap.Error(err))
	}
	common.LogInfo("食品索引建立完成", zap.Int("foods", index.Size()))

	// 初始化匹配快取
	var matchCache *matching.OutcomeCache
	if cfg.MatchCache.Enabled {
		matchCache = matching.NewOutcomeCache(cfg.MatchCache.MaxSize, cfg.MatchCache.TTL, 10*time.Minute)
		defer matchCache.Close()
	}

	// 初始化匹配器
	matcher := matching.NewMatcher(index, matching.Config{
		TopK:                cfg.Matcher.TopK,
		ConfidenceThreshold: cfg.Matcher.ConfidenceThreshold,
		OverlapWeight:       cfg.Matcher.OverlapWeight,
		EditWeight:          cfg.Matcher.EditWeight,
	}, matchCache)

	// 初始化儲存
	var store enrichment.RecordStore
	var deleter nutrition.RecordDeleter
	if cfg.Redis.Enabled {
		redisStore, err := storage.NewRedisStore(&cfg.Redis)
		if err != nil {
			common.LogFatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisStore.Close()
		store = redisStore
		deleter = redisStore
	} else {
		memoryStore := enrichment.NewMemoryStore()
		store = memoryStore
		deleter = memoryStore
	}

	// 初始化通知
	notifiers := enrichment.MultiNotifier{}
	if cfg.Notify.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(&cfg.Notify))
	}

	// 初始化補全協調器
	orchestrator := enrichment.NewOrchestrator(matcher, index, store, notifiers, enrichment.Config{
		WorkerCap:    cfg.Enrichment.WorkerCap,
		QueueWorkers: cfg.Enrichment.QueueWorkers,
		QueueSize:    cfg.Enrichment.QueueSize,
	})
	orchestrator.Start()

	// 初始化彙總器
	aggregator := insight.NewAggregator(store)

	// 設置路由
	router := api.SetupRouter(cfg, api.Dependencies{
		Matcher:      matcher,
		Index:        index,
		Orchestrator: orchestrator,
		Store:        store,
		Deleter:      deleter,
		Aggregator:   aggregator,
	})

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 先停收新請求，再等佇列內的補全收尾
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	orchestrator.Stop()

	common.LogInfo("Server exited")
}

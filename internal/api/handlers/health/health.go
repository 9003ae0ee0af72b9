package health

import (
	"net/http"
	"runtime"
	"time"

	"nutrition-insight/internal/core/enrichment"
	"nutrition-insight/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                  `json:"status"`
	Timestamp time.Time               `json:"timestamp"`
	Version   string                  `json:"version"`
	Runtime   map[string]interface{}  `json:"runtime"`
	Index     *IndexStatus            `json:"index,omitempty"`
	Queue     *enrichment.QueueStatus `json:"queue,omitempty"`
}

// IndexStatus 食品索引狀態
type IndexStatus struct {
	Foods int `json:"foods"`
}

// Handler 健康檢查處理器
type Handler struct {
	cfg          *config.Config
	orchestrator *enrichment.Orchestrator
	indexSize    int
}

// NewHandler 建立健康檢查處理器
func NewHandler(cfg *config.Config, orchestrator *enrichment.Orchestrator, indexSize int) *Handler {
	return &Handler{
		cfg:          cfg,
		orchestrator: orchestrator,
		indexSize:    indexSize,
	}
}

// HealthCheck 健康檢查
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":  m.Alloc,
				"sys":    m.Sys,
				"num_gc": m.NumGC,
			},
		},
		Index: &IndexStatus{Foods: h.indexSize},
	}

	if h.orchestrator != nil {
		queueStatus := h.orchestrator.QueueStatus()
		response.Queue = &queueStatus
	}

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查，索引為空時視為未就緒
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.indexSize == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "food index is empty",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

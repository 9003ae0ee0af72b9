package nutrition

import (
	"context"
	"errors"
	"net/http"

	"nutrition-insight/internal/core/enrichment"
	"nutrition-insight/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecordDeleter 支援刪除的儲存後端
type RecordDeleter interface {
	Delete(ctx context.Context, recordID string) error
}

// EnrichRequest 補全請求。食材清單可為空，該紀錄會被標記為 no-data
type EnrichRequest struct {
	Ingredients []common.IngredientObservation `json:"ingredients"`
}

// EnrichResponse 同步補全響應
type EnrichResponse struct {
	RunID   string               `json:"run_id"`
	Record  *enrichment.Record   `json:"record"`
	Matches []common.MatchOutcome `json:"matches"`
}

// EnrichHandler 補全相關的處理器
type EnrichHandler struct {
	orchestrator *enrichment.Orchestrator
	store        enrichment.RecordStore
	deleter      RecordDeleter
}

// NewEnrichHandler 建立補全處理器
func NewEnrichHandler(orchestrator *enrichment.Orchestrator, store enrichment.RecordStore, deleter RecordDeleter) *EnrichHandler {
	return &EnrichHandler{
		orchestrator: orchestrator,
		store:        store,
		deleter:      deleter,
	}
}

// HandleEnrich 補全一筆紀錄
// 預設同步處理，?async=true 時排入佇列後立即返回 202
func (h *EnrichHandler) HandleEnrich(c *gin.Context) {
	recordID := c.Param("id")
	if recordID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "record id is required",
			"code":  "INVALID_REQUEST",
		})
		return
	}

	var req EnrichRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("Invalid enrich request",
			zap.String("record_id", recordID),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
			"code":  "INVALID_REQUEST",
		})
		return
	}

	if c.Query("async") == "true" {
		runID, err := h.orchestrator.EnqueueEnrich(c.Request.Context(), recordID, req.Ingredients)
		if err != nil {
			if errors.Is(err, common.ErrQueueFull) {
				c.JSON(http.StatusTooManyRequests, gin.H{
					"error": "Enrichment queue is full",
					"code":  "QUEUE_FULL",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to enqueue enrichment",
				"code":  "INTERNAL_ERROR",
			})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"run_id":    runID,
			"record_id": recordID,
			"status":    "queued",
		})
		return
	}

	result, err := h.orchestrator.Enrich(c.Request.Context(), recordID, req.Ingredients)
	if err != nil {
		var customErr *common.CustomError
		if errors.As(err, &customErr) {
			c.JSON(customErr.Status, gin.H{
				"error": customErr.Message,
				"code":  customErr.Code,
			})
			return
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Enrichment canceled",
				"code":  "ENRICHMENT_CANCELED",
			})
			return
		}
		common.LogError("Enrichment failed",
			zap.String("record_id", recordID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Enrichment failed",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, EnrichResponse{
		RunID:   result.RunID,
		Record:  result.Record,
		Matches: result.Outcomes,
	})
}

// HandleGetRecord 取得補全後的紀錄
func (h *EnrichHandler) HandleGetRecord(c *gin.Context) {
	recordID := c.Param("id")

	record, err := h.store.Get(c.Request.Context(), recordID)
	if err != nil {
		common.LogError("Failed to load record",
			zap.String("record_id", recordID),
			zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Failed to load record",
			"code":  "STORAGE_READ_FAILED",
		})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Record has not been enriched",
			"code":  "RECORD_NOT_ENRICHED",
		})
		return
	}

	c.JSON(http.StatusOK, record)
}

// HandleDeleteRecord 刪除紀錄，先取消進行中的補全再移除儲存
func (h *EnrichHandler) HandleDeleteRecord(c *gin.Context) {
	recordID := c.Param("id")

	h.orchestrator.Cancel(recordID)

	if h.deleter != nil {
		if err := h.deleter.Delete(c.Request.Context(), recordID); err != nil {
			common.LogError("Failed to delete record",
				zap.String("record_id", recordID),
				zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Failed to delete record",
				"code":  "STORAGE_WRITE_FAILED",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"record_id": recordID,
		"status":    "deleted",
	})
}

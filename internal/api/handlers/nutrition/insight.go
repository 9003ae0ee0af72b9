package nutrition

import (
	"net/http"
	"strconv"
	"time"

	"nutrition-insight/internal/core/enrichment"
	"nutrition-insight/internal/core/insight"
	"nutrition-insight/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InsightHandler 洞察查詢處理器
type InsightHandler struct {
	aggregator *insight.Aggregator
}

// NewInsightHandler 建立洞察處理器
func NewInsightHandler(aggregator *insight.Aggregator) *InsightHandler {
	return &InsightHandler{aggregator: aggregator}
}

// HandleSummary 彙總區間內的補全紀錄
// 查詢參數：from、to（RFC3339 或 2006-01-02）、gender、age、standard
func (h *InsightHandler) HandleSummary(c *gin.Context) {
	dateRange, err := parseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  "INVALID_REQUEST",
		})
		return
	}

	gender, err := common.ParseGender(c.DefaultQuery("gender", "male"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  "INVALID_REQUEST",
		})
		return
	}

	age := 30
	if raw := c.Query("age"); raw != "" {
		age, err = strconv.Atoi(raw)
		if err != nil || age <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "invalid age",
				"code":  "INVALID_REQUEST",
			})
			return
		}
	}

	standard, err := common.ParseIntakeStandard(c.Query("standard"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  "INVALID_REQUEST",
		})
		return
	}

	result, err := h.aggregator.Summarize(c.Request.Context(), dateRange, gender, age, standard)
	if err != nil {
		common.LogError("Insight summary failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Failed to summarize records",
			"code":  "STORAGE_READ_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// parseDateRange 解析查詢區間，空值表示不設界
func parseDateRange(from, to string) (enrichment.DateRange, error) {
	dateRange := enrichment.DateRange{}

	if from != "" {
		t, err := parseTime(from)
		if err != nil {
			return dateRange, err
		}
		dateRange.From = t
	}
	if to != "" {
		t, err := parseTime(to)
		if err != nil {
			return dateRange, err
		}
		// 僅給日期時，把迄日推進到當天結束
		if len(to) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		dateRange.To = t
	}
	return dateRange, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

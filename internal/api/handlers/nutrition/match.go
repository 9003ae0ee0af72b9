package nutrition

import (
	"net/http"

	"nutrition-insight/internal/core/foodindex"
	"nutrition-insight/internal/core/matching"
	"nutrition-insight/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// MatchPreviewRequest 匹配預覽請求
type MatchPreviewRequest struct {
	Name  string  `json:"name" binding:"required"`
	Grams float64 `json:"grams"`
}

// CandidatePreview 候選食品預覽
type CandidatePreview struct {
	FoodID      int64   `json:"food_id"`
	DisplayName string  `json:"display_name"`
	RawScore    float64 `json:"raw_score"`
}

// MatchPreviewResponse 匹配預覽響應
type MatchPreviewResponse struct {
	Normalized string              `json:"normalized"`
	Candidates []CandidatePreview  `json:"candidates"`
	Outcome    common.MatchOutcome `json:"outcome"`
}

// MatchHandler 匹配預覽處理器，用於除錯名稱為何沒有匹配上
type MatchHandler struct {
	matcher *matching.Matcher
	index   *foodindex.Index
	topK    int
}

// NewMatchHandler 建立匹配處理器
func NewMatchHandler(matcher *matching.Matcher, index *foodindex.Index, topK int) *MatchHandler {
	if topK <= 0 {
		topK = matching.DefaultTopK
	}
	return &MatchHandler{
		matcher: matcher,
		index:   index,
		topK:    topK,
	}
}

// HandlePreview 預覽單一名稱的正規化、候選與最終結果
func (h *MatchHandler) HandlePreview(c *gin.Context) {
	var req MatchPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
			"code":  "INVALID_REQUEST",
		})
		return
	}

	grams := req.Grams
	if grams <= 0 {
		grams = 100
	}

	normalized := matching.Normalize(req.Name)
	candidates := h.index.Search(normalized, h.topK)

	previews := make([]CandidatePreview, len(candidates))
	for i, candidate := range candidates {
		preview := CandidatePreview{
			FoodID:   candidate.FoodID,
			RawScore: candidate.RawScore,
		}
		if record, exists := h.index.Lookup(candidate.FoodID); exists {
			preview.DisplayName = record.DisplayName
		}
		previews[i] = preview
	}

	outcome := h.matcher.Match(common.IngredientObservation{
		RawName:       req.Name,
		QuantityGrams: grams,
	})

	c.JSON(http.StatusOK, MatchPreviewResponse{
		Normalized: normalized,
		Candidates: previews,
		Outcome:    outcome,
	})
}

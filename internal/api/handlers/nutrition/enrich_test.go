package nutrition

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nutrition-insight/internal/core/enrichment"
	"nutrition-insight/internal/core/foodindex"
	"nutrition-insight/internal/core/matching"
	"nutrition-insight/internal/core/nutrient"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) (*gin.Engine, *enrichment.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	records := []foodindex.Record{
		{
			ID:          1,
			DisplayName: "Chicken Breast",
			NutrientsPer100: nutrient.Profile{
				nutrient.Energy:  165,
				nutrient.Protein: 31,
			},
		},
	}
	idx, err := foodindex.New(records, matching.NormalizeTokens)
	require.NoError(t, err)

	matcher := matching.NewMatcher(idx, matching.Config{}, nil)
	store := enrichment.NewMemoryStore()
	orchestrator := enrichment.NewOrchestrator(matcher, idx, store, nil, enrichment.Config{})
	t.Cleanup(orchestrator.Stop)

	handler := NewEnrichHandler(orchestrator, store, store)
	matchHandler := NewMatchHandler(matcher, idx, 5)

	router := gin.New()
	router.POST("/api/v1/records/:id/enrich", handler.HandleEnrich)
	router.GET("/api/v1/records/:id", handler.HandleGetRecord)
	router.DELETE("/api/v1/records/:id", handler.HandleDeleteRecord)
	router.POST("/api/v1/match/preview", matchHandler.HandlePreview)
	return router, store
}

func TestHandleEnrichSync(t *testing.T) {
	router, _ := testRouter(t)

	body := `{"ingredients":[{"name":"Grilled Chicken Breast","grams":150}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/records/meal-1/enrich", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp EnrichResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	require.NotNil(t, resp.Record)
	assert.Equal(t, enrichment.StatusEnriched, resp.Record.Status)
	assert.InDelta(t, 247.5, resp.Record.Profile[nutrient.Energy], 1e-9)
}

func TestHandleEnrichBadRequest(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records/meal-1/enrich", bytes.NewBufferString(`{"ingredients":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// 空食材清單是合法輸入，結果為 no-data 而非錯誤
func TestHandleEnrichEmptyList(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records/meal-1/enrich", bytes.NewBufferString(`{"ingredients":[]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp EnrichResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, enrichment.StatusNoData, resp.Record.Status)
}

func TestHandleGetRecordNotFound(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "RECORD_NOT_ENRICHED")
}

func TestHandleEnrichThenGetAndDelete(t *testing.T) {
	router, store := testRouter(t)

	body := `{"ingredients":[{"name":"chicken breast","grams":100}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/records/meal-2/enrich", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/records/meal-2", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/records/meal-2", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 0, store.Size())
}

func TestHandleMatchPreview(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/match/preview", bytes.NewBufferString(`{"name":"Grilled Chicken Breast"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp MatchPreviewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "chicken breast", resp.Normalized)
	require.NotEmpty(t, resp.Candidates)
	assert.Equal(t, "Chicken Breast", resp.Candidates[0].DisplayName)
	assert.Equal(t, "matched", string(resp.Outcome.Status))
}

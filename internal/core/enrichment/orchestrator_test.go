package enrichment

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"nutrition-insight/internal/core/foodindex"
	"nutrition-insight/internal/core/matching"
	"nutrition-insight/internal/core/nutrient"
	"nutrition-insight/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrchestrator(t *testing.T, notifier Notifier) (*Orchestrator, *MemoryStore) {
	t.Helper()

	records := []foodindex.Record{
		{
			ID:          1,
			DisplayName: "Chicken Breast",
			NutrientsPer100: nutrient.Profile{
				nutrient.Energy:  165,
				nutrient.Protein: 31,
				nutrient.Iron:    0.7,
			},
		},
		{
			ID:          2,
			DisplayName: "White Rice",
			NutrientsPer100: nutrient.Profile{
				nutrient.Energy: 130,
				nutrient.Carbs:  28,
			},
		},
	}
	idx, err := foodindex.New(records, matching.NormalizeTokens)
	require.NoError(t, err)

	matcher := matching.NewMatcher(idx, matching.Config{}, nil)
	store := NewMemoryStore()

	o := NewOrchestrator(matcher, idx, store, notifier, Config{})
	t.Cleanup(o.Stop)
	return o, store
}

func TestEnrichEndToEnd(t *testing.T) {
	o, store := testOrchestrator(t, nil)

	result, err := o.Enrich(context.Background(), "meal-1", []common.IngredientObservation{
		{RawName: "Grilled Chicken Breast", QuantityGrams: 150},
		{RawName: "White Rice", QuantityGrams: 200},
	})
	require.NoError(t, err)
	require.False(t, result.Stale)

	record := result.Record
	require.Equal(t, StatusEnriched, record.Status)
	assert.Equal(t, 2, record.MatchedCount())

	// 150g 雞胸 + 200g 白飯
	assert.InDelta(t, 165*1.5+130*2.0, record.Profile[nutrient.Energy], 1e-9)
	assert.InDelta(t, 31*1.5, record.Profile[nutrient.Protein], 1e-9)
	assert.InDelta(t, 28*2.0, record.Profile[nutrient.Carbs], 1e-9)

	// 儲存的是同一份內容
	stored, err := store.Get(context.Background(), "meal-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, record.Profile, stored.Profile)
}

func TestEnrichNoData(t *testing.T) {
	o, _ := testOrchestrator(t, nil)

	result, err := o.Enrich(context.Background(), "meal-2", []common.IngredientObservation{
		{RawName: "xyzzy", QuantityGrams: 100},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusNoData, result.Record.Status)
	assert.True(t, result.Record.Profile.IsEmpty())
	require.Len(t, result.Record.Ingredients, 1)
	assert.Equal(t, common.MatchStatusUnmatched, result.Record.Ingredients[0].Status)
}

func TestEnrichEmptyIngredientList(t *testing.T) {
	o, _ := testOrchestrator(t, nil)

	result, err := o.Enrich(context.Background(), "meal-3", nil)
	require.NoError(t, err)

	assert.Equal(t, StatusNoData, result.Record.Status)
	assert.Empty(t, result.Record.Ingredients)
}

// 重量無效的食材被排除，不影響其餘食材
func TestEnrichInvalidGrams(t *testing.T) {
	o, _ := testOrchestrator(t, nil)

	result, err := o.Enrich(context.Background(), "meal-4", []common.IngredientObservation{
		{RawName: "Chicken Breast", QuantityGrams: 0},
		{RawName: "White Rice", QuantityGrams: 100},
	})
	require.NoError(t, err)

	record := result.Record
	assert.Equal(t, StatusEnriched, record.Status)
	assert.Equal(t, common.MatchStatusInvalid, record.Ingredients[0].Status)
	assert.Equal(t, common.MatchStatusMatched, record.Ingredients[1].Status)
	assert.InDelta(t, 130, record.Profile[nutrient.Energy], 1e-9)
}

// 相同輸入重複補全，持久化的內容必須完全一致
func TestEnrichIdempotent(t *testing.T) {
	o, store := testOrchestrator(t, nil)

	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	o.SetClock(func() time.Time { return fixed })

	obs := []common.IngredientObservation{
		{RawName: "Grilled Chicken Breast", QuantityGrams: 150},
	}

	_, err := o.Enrich(context.Background(), "meal-5", obs)
	require.NoError(t, err)
	first, err := store.Get(context.Background(), "meal-5")
	require.NoError(t, err)

	_, err = o.Enrich(context.Background(), "meal-5", obs)
	require.NoError(t, err)
	second, err := store.Get(context.Background(), "meal-5")
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

// 過期的執行結果必須被丟棄，不得覆蓋較新的寫入
func TestStaleRunDiscarded(t *testing.T) {
	o, store := testOrchestrator(t, nil)
	ctx := context.Background()

	oldSeq := o.claimSeq("meal-6")
	newSeq := o.claimSeq("meal-6")
	require.Less(t, oldSeq, newSeq)

	// 較新的執行先完成
	newer, err := o.enrichRun(ctx, "run-new", "meal-6", newSeq, []common.IngredientObservation{
		{RawName: "White Rice", QuantityGrams: 200},
	})
	require.NoError(t, err)
	require.False(t, newer.Stale)

	// 較舊的執行後到，結果被丟棄
	older, err := o.enrichRun(ctx, "run-old", "meal-6", oldSeq, []common.IngredientObservation{
		{RawName: "Chicken Breast", QuantityGrams: 100},
	})
	require.NoError(t, err)
	assert.True(t, older.Stale)

	stored, err := store.Get(ctx, "meal-6")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.InDelta(t, 130*2.0, stored.Profile[nutrient.Energy], 1e-9)
}

func TestEnrichCanceledContext(t *testing.T) {
	o, _ := testOrchestrator(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Enrich(ctx, "meal-7", []common.IngredientObservation{
		{RawName: "Chicken Breast", QuantityGrams: 100},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnrichNotifies(t *testing.T) {
	notifier := NewChannelNotifier(4)
	o, _ := testOrchestrator(t, notifier)

	_, err := o.Enrich(context.Background(), "meal-8", []common.IngredientObservation{
		{RawName: "Chicken Breast", QuantityGrams: 100},
	})
	require.NoError(t, err)

	select {
	case event := <-notifier.Events():
		assert.Equal(t, "meal-8", event.RecordID)
		assert.Equal(t, StatusEnriched, event.Status)
		assert.Equal(t, 1, event.MatchedCount)
		assert.Equal(t, 1, event.TotalCount)
	case <-time.After(time.Second):
		t.Fatal("expected an enrichment event")
	}
}

func TestEnqueueEnrichAsync(t *testing.T) {
	o, store := testOrchestrator(t, nil)
	o.Start()

	runID, err := o.EnqueueEnrich(context.Background(), "meal-9", []common.IngredientObservation{
		{RawName: "White Rice", QuantityGrams: 100},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	require.Eventually(t, func() bool {
		record, err := store.Get(context.Background(), "meal-9")
		return err == nil && record != nil
	}, 2*time.Second, 10*time.Millisecond)

	o.Stop()
	assert.GreaterOrEqual(t, o.QueueStatus().Processed, int64(1))
}

// 大量食材也只用固定上限的併發
func TestEnrichManyIngredients(t *testing.T) {
	o, _ := testOrchestrator(t, nil)

	observations := make([]common.IngredientObservation, 30)
	for i := range observations {
		observations[i] = common.IngredientObservation{RawName: "White Rice", QuantityGrams: 100}
	}

	result, err := o.Enrich(context.Background(), "meal-10", observations)
	require.NoError(t, err)

	assert.Equal(t, 30, result.Record.MatchedCount())
	assert.InDelta(t, 30*130, result.Record.Profile[nutrient.Energy], 1e-9)
}

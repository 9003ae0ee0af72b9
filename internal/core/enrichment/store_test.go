package enrichment

import (
	"context"
	"testing"
	"time"

	"nutrition-insight/internal/core/nutrient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(id string, enrichedAt time.Time) *Record {
	return &Record{
		RecordID: id,
		Status:   StatusEnriched,
		Profile: nutrient.Profile{
			nutrient.Energy: 500,
		},
		Ingredients: []IngredientProvenance{
			{RawName: "chicken breast", QuantityGrams: 150},
		},
		EnrichedAt: enrichedAt,
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()

	record, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestMemoryStorePutReplaces(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Put(ctx, testRecord("r1", now)))

	updated := testRecord("r1", now)
	updated.Profile[nutrient.Energy] = 900
	require.NoError(t, store.Put(ctx, updated))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.InDelta(t, 900, got.Profile[nutrient.Energy], 1e-9)
	assert.Equal(t, 1, store.Size())
}

// 儲存層必須與呼叫端隔離：取出後修改不影響儲存的內容
func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	original := testRecord("r1", time.Now())
	require.NoError(t, store.Put(ctx, original))
	original.Profile[nutrient.Energy] = 1

	first, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	first.Profile[nutrient.Energy] = 2

	second, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.InDelta(t, 500, second.Profile[nutrient.Energy], 1e-9)
}

func TestMemoryStoreQueryRange(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Put(ctx, testRecord(
			string(rune('a'+i)), base.AddDate(0, 0, i))))
	}

	records, err := store.Query(ctx, DateRange{
		From: base.AddDate(0, 0, 1),
		To:   base.AddDate(0, 0, 3),
	})
	require.NoError(t, err)
	require.Len(t, records, 3)

	// 依補全時間排序
	assert.Equal(t, "b", records[0].RecordID)
	assert.Equal(t, "c", records[1].RecordID)
	assert.Equal(t, "d", records[2].RecordID)
}

func TestMemoryStoreQueryUnbounded(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testRecord("r1", time.Now())))

	records, err := store.Query(ctx, DateRange{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testRecord("r1", time.Now())))
	require.NoError(t, store.Delete(ctx, "r1"))

	record, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, record)
}

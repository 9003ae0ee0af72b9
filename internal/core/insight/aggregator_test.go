package insight

import (
	"context"
	"testing"
	"time"

	"nutrition-insight/internal/core/enrichment"
	"nutrition-insight/internal/core/nutrient"
	"nutrition-insight/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enrichedRecord(id string, profile nutrient.Profile) *enrichment.Record {
	return &enrichment.Record{
		RecordID:   id,
		Status:     enrichment.StatusEnriched,
		Profile:    profile,
		EnrichedAt: time.Now(),
	}
}

func noDataRecord(id string) *enrichment.Record {
	return &enrichment.Record{
		RecordID:   id,
		Status:     enrichment.StatusNoData,
		Profile:    nutrient.NewProfile(),
		EnrichedAt: time.Now(),
	}
}

// 全部攝取量恰好等於目標的一餐
func targetProfile(gender common.Gender, age int) nutrient.Profile {
	profile := nutrient.NewProfile()
	for _, key := range nutrient.AllKeys {
		profile[key] = nutrient.TargetFor(key, gender, age, common.StandardRDA)
	}
	return profile
}

func TestSummarizeInsufficientData(t *testing.T) {
	records := []*enrichment.Record{
		noDataRecord("a"), noDataRecord("b"), noDataRecord("c"),
	}

	result := SummarizeRecords(records, common.GenderMale, 30, common.StandardRDA)

	assert.Equal(t, StatusInsufficientData, result.Status)
	assert.Equal(t, 3, result.TotalRecords)
	assert.Zero(t, result.MealsWithData)
	assert.Empty(t, result.Deficiencies)
	assert.Empty(t, result.Tip)
}

func TestSummarizeEmptyRange(t *testing.T) {
	result := SummarizeRecords(nil, common.GenderFemale, 30, common.StandardRDA)
	assert.Equal(t, StatusInsufficientData, result.Status)
	assert.Zero(t, result.TotalRecords)
}

// 平均以有資料的餐數為分母：7 筆中 2 筆有資料時除以 2 而非 7
func TestSummarizeCoverageAndAveraging(t *testing.T) {
	records := []*enrichment.Record{
		enrichedRecord("a", nutrient.Profile{nutrient.Iron: 4}),
		enrichedRecord("b", nutrient.Profile{nutrient.Iron: 8}),
	}
	for i := 0; i < 5; i++ {
		records = append(records, noDataRecord(string(rune('c'+i))))
	}

	result := SummarizeRecords(records, common.GenderMale, 30, common.StandardRDA)

	require.Equal(t, StatusOK, result.Status)
	assert.Equal(t, 2, result.MealsWithData)
	assert.Equal(t, 7, result.TotalRecords)
	assert.InDelta(t, 100.0*2/7, result.CoveragePercent, 0.01)
	assert.InDelta(t, 6.0, result.Averages[nutrient.Iron], 1e-9)
}

// 攝取全部達標時總分為滿分
func TestSummarizePerfectIntake(t *testing.T) {
	records := []*enrichment.Record{
		enrichedRecord("a", targetProfile(common.GenderMale, 30)),
	}

	result := SummarizeRecords(records, common.GenderMale, 30, common.StandardRDA)

	assert.Equal(t, 100, result.SufficiencyScore)
	assert.Empty(t, result.Deficiencies)
	assert.Empty(t, result.Tip)
	assert.InDelta(t, 100.0, result.CoveragePercent, 1e-9)
}

// 關鍵營養素（維生素 D、鐵、鈣、B12）權重為 2
func TestSummarizeCriticalWeighting(t *testing.T) {
	missingCritical := targetProfile(common.GenderMale, 30)
	missingCritical[nutrient.VitaminD] = 0

	missingRegular := targetProfile(common.GenderMale, 30)
	missingRegular[nutrient.Zinc] = 0

	criticalResult := SummarizeRecords(
		[]*enrichment.Record{enrichedRecord("a", missingCritical)},
		common.GenderMale, 30, common.StandardRDA)
	regularResult := SummarizeRecords(
		[]*enrichment.Record{enrichedRecord("a", missingRegular)},
		common.GenderMale, 30, common.StandardRDA)

	// 4 個關鍵 ×2 + 8 個一般 ×1 = 權重總和 16
	assert.Equal(t, 88, criticalResult.SufficiencyScore) // (16-2)/16 = 87.5 → 88
	assert.Equal(t, 94, regularResult.SufficiencyScore)  // (16-1)/16 = 93.75 → 94
	assert.Less(t, criticalResult.SufficiencyScore, regularResult.SufficiencyScore)
}

// 單項超量在加權前封頂，不能彌補其他缺口
func TestSummarizeExcessCapped(t *testing.T) {
	profile := targetProfile(common.GenderMale, 30)
	profile[nutrient.Protein] *= 10

	result := SummarizeRecords(
		[]*enrichment.Record{enrichedRecord("a", profile)},
		common.GenderMale, 30, common.StandardRDA)

	assert.Equal(t, 100, result.SufficiencyScore)
}

// 提高任一營養素的攝取，總分不得下降
func TestSummarizeScoreMonotonic(t *testing.T) {
	low := nutrient.Profile{nutrient.Iron: 2, nutrient.Calcium: 300}
	high := low.Clone()
	high[nutrient.Iron] = 6

	lowScore := SummarizeRecords(
		[]*enrichment.Record{enrichedRecord("a", low)},
		common.GenderMale, 30, common.StandardRDA).SufficiencyScore
	highScore := SummarizeRecords(
		[]*enrichment.Record{enrichedRecord("a", high)},
		common.GenderMale, 30, common.StandardRDA).SufficiencyScore

	assert.GreaterOrEqual(t, highScore, lowScore)
}

// 熱量與巨量營養素只供觀察，不列入缺乏與充足清單
func TestSummarizeNeutralExclusion(t *testing.T) {
	profile := targetProfile(common.GenderMale, 30)
	profile[nutrient.Energy] = 0 // 遠低於目標
	profile[nutrient.Iron] = 0

	result := SummarizeRecords(
		[]*enrichment.Record{enrichedRecord("a", profile)},
		common.GenderMale, 30, common.StandardRDA)

	assert.Contains(t, result.Deficiencies, nutrient.Iron)
	assert.NotContains(t, result.Deficiencies, nutrient.Energy)
	assert.NotContains(t, result.Strengths, nutrient.Energy)
}

func TestSummarizeDeficiencyAndStrengthThresholds(t *testing.T) {
	profile := targetProfile(common.GenderMale, 30)
	profile[nutrient.Zinc] *= 0.49      // 缺乏
	profile[nutrient.Magnesium] *= 0.79 // 介於中間
	profile[nutrient.Folate] *= 0.80    // 恰好達充足門檻

	result := SummarizeRecords(
		[]*enrichment.Record{enrichedRecord("a", profile)},
		common.GenderMale, 30, common.StandardRDA)

	assert.Contains(t, result.Deficiencies, nutrient.Zinc)
	assert.NotContains(t, result.Deficiencies, nutrient.Magnesium)
	assert.NotContains(t, result.Strengths, nutrient.Magnesium)
	assert.Contains(t, result.Strengths, nutrient.Folate)
}

func TestSummarizeThroughStore(t *testing.T) {
	store := enrichment.NewMemoryStore()
	ctx := context.Background()

	record := enrichedRecord("a", targetProfile(common.GenderFemale, 30))
	require.NoError(t, store.Put(ctx, record))

	aggregator := NewAggregator(store)
	result, err := aggregator.Summarize(ctx, enrichment.DateRange{}, common.GenderFemale, 30, common.StandardRDA)
	require.NoError(t, err)

	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, 100, result.SufficiencyScore)
}

package insight

import (
	"context"
	"math"
	"time"

	"nutrition-insight/internal/core/enrichment"
	"nutrition-insight/internal/core/nutrient"
	"nutrition-insight/internal/pkg/common"

	"go.uber.org/zap"
)

// Status 彙總結果的狀態
type Status string

const (
	// StatusOK 有足夠的補全紀錄可以彙總
	StatusOK Status = "ok"
	// StatusInsufficientData 區間內沒有任何帶資料的紀錄，
	// 這是哨兵結果而非錯誤，呼叫端據此呈現空狀態
	StatusInsufficientData Status = "insufficient_data"
)

const (
	deficiencyThreshold = 50.0
	strengthThreshold   = 80.0
	criticalWeight      = 2.0
)

// criticalKeys 加權為 2 的關鍵營養素
var criticalKeys = map[nutrient.Key]bool{
	nutrient.VitaminD: true,
	nutrient.Iron:     true,
	nutrient.Calcium:  true,
	nutrient.B12:      true,
}

// neutralKeys 僅供觀察的營養素：計入總分，但不列入缺乏與充足清單
var neutralKeys = map[nutrient.Key]bool{
	nutrient.Energy: true,
	nutrient.Fat:    true,
	nutrient.Carbs:  true,
}

// Insight 彙總報告，每次查詢即時重算，不落地
type Insight struct {
	Status           Status                   `json:"status"`
	Averages         nutrient.Profile         `json:"averages"`
	PercentOfTarget  map[nutrient.Key]float64 `json:"percent_of_target"`
	CoveragePercent  float64                  `json:"coverage_percent"`
	SufficiencyScore int                      `json:"sufficiency_score"`
	Deficiencies     []nutrient.Key           `json:"deficiencies"`
	Strengths        []nutrient.Key           `json:"strengths"`
	Tip              string                   `json:"tip,omitempty"`
	MealsWithData    int                      `json:"meals_with_data"`
	TotalRecords     int                      `json:"total_records"`
}

// Aggregator 洞察彙總器，透過儲存介面讀取已補全的紀錄
type Aggregator struct {
	store enrichment.RecordStore
}

// NewAggregator 建立彙總器
func NewAggregator(store enrichment.RecordStore) *Aggregator {
	return &Aggregator{store: store}
}

// Summarize 彙總區間內的補全紀錄
func (a *Aggregator) Summarize(ctx context.Context, dateRange enrichment.DateRange, gender common.Gender, age int, standard common.IntakeStandard) (*Insight, error) {
	start := time.Now()
	records, err := a.store.Query(ctx, dateRange)
	if err != nil {
		return nil, common.NewError("STORAGE_READ_FAILED", "補全紀錄讀取失敗", 503, err)
	}

	result := SummarizeRecords(records, gender, age, standard)
	common.LogDebug("洞察彙總完成",
		zap.Int("total_records", result.TotalRecords),
		zap.Int("meals_with_data", result.MealsWithData),
		zap.Int("score", result.SufficiencyScore),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// SummarizeRecords 純函式彙總：平均值、覆蓋率、加權總分、缺乏與充足清單、建議
func SummarizeRecords(records []*enrichment.Record, gender common.Gender, age int, standard common.IntakeStandard) *Insight {
	mealsWithData := 0
	totals := nutrient.NewProfile()
	for _, record := range records {
		if !record.HasData() {
			continue
		}
		mealsWithData++
		totals.Add(record.Profile)
	}

	if mealsWithData == 0 {
		return &Insight{
			Status:       StatusInsufficientData,
			Averages:     nutrient.NewProfile(),
			Deficiencies: []nutrient.Key{},
			Strengths:    []nutrient.Key{},
			TotalRecords: len(records),
		}
	}

	// 平均以有資料的餐數為分母，無資料的紀錄不會把平均稀釋到零
	averages := nutrient.NewProfile()
	for key, total := range totals {
		averages[key] = total / float64(mealsWithData)
	}

	percentOf := make(map[nutrient.Key]float64)
	weightedSum := 0.0
	weightTotal := 0.0
	deficiencies := make([]nutrient.Key, 0)
	strengths := make([]nutrient.Key, 0)

	for _, key := range nutrient.AllKeys {
		target := nutrient.TargetFor(key, gender, age, standard)
		if target <= 0 {
			continue
		}
		pct := 100 * averages[key] / target
		percentOf[key] = pct

		// 單項先封頂在 100 再加權，避免超量攝取抬高總分
		capped := math.Min(pct, 100)
		weight := 1.0
		if criticalKeys[key] {
			weight = criticalWeight
		}
		weightedSum += capped * weight
		weightTotal += weight

		if neutralKeys[key] {
			continue
		}
		if pct < deficiencyThreshold {
			deficiencies = append(deficiencies, key)
		} else if pct >= strengthThreshold {
			strengths = append(strengths, key)
		}
	}

	score := 0
	if weightTotal > 0 {
		score = int(math.Round(weightedSum / weightTotal))
	}

	coverage := 0.0
	if len(records) > 0 {
		coverage = 100 * float64(mealsWithData) / float64(len(records))
	}

	return &Insight{
		Status:           StatusOK,
		Averages:         averages,
		PercentOfTarget:  percentOf,
		CoveragePercent:  coverage,
		SufficiencyScore: score,
		Deficiencies:     deficiencies,
		Strengths:        strengths,
		Tip:              pickTip(deficiencies, percentOf),
		MealsWithData:    mealsWithData,
		TotalRecords:     len(records),
	}
}

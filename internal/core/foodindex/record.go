package foodindex

import (
	"fmt"

	"nutrition-insight/internal/core/nutrient"
)

// Record 食品成分資料集的單筆紀錄
// 啟動時載入一次，之後不再變動
type Record struct {
	ID              int64            `json:"id"`
	DisplayName     string           `json:"display_name"`
	SearchTokens    []string         `json:"search_tokens"`
	NutrientsPer100 nutrient.Profile `json:"nutrients_per_100"`
}

// Validate 檢查紀錄是否可被索引
func (r *Record) Validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("record %q: invalid id %d", r.DisplayName, r.ID)
	}
	if r.DisplayName == "" {
		return fmt.Errorf("record %d: empty display name", r.ID)
	}
	for key, amount := range r.NutrientsPer100 {
		if !key.Valid() {
			return fmt.Errorf("record %d: unknown nutrient key %q", r.ID, key)
		}
		if amount < 0 {
			return fmt.Errorf("record %d: negative amount for %q", r.ID, key)
		}
	}
	return nil
}

// Candidate 檢索候選：食品 ID 與原始相關性分數
type Candidate struct {
	FoodID   int64
	RawScore float64
}

package enrichment

import (
	"time"

	"nutrition-insight/internal/core/nutrient"
	"nutrition-insight/internal/pkg/common"
)

// Status 補全後紀錄的狀態
type Status string

const (
	// StatusEnriched 至少一項食材成功匹配，營養輪廓有內容
	StatusEnriched Status = "enriched"
	// StatusNoData 食材清單為空，或全部未匹配。與「驗證過的零」不同，
	// 彙總時此紀錄不計入有資料的餐數
	StatusNoData Status = "no-data"
)

// IngredientProvenance 單一食材在補全時的出處紀錄
// 未匹配的食材貢獻為零，但仍保留下來讓覆蓋率計算誠實
type IngredientProvenance struct {
	RawName       string             `json:"name"`
	QuantityGrams float64            `json:"grams"`
	Status        common.MatchStatus `json:"status"`
	FoodID        *int64             `json:"food_id,omitempty"`
	Confidence    float64            `json:"confidence"`
}

// Record 補全後的紀錄：營養輪廓、每項食材的出處與補全時間
// 生命週期：儲存時建立為空，由協調器一次性改為 enriched（或 no-data）；
// 食材清單變動時整筆重算並取代，不做合併
type Record struct {
	RecordID    string                 `json:"record_id"`
	Status      Status                 `json:"status"`
	Profile     nutrient.Profile       `json:"profile"`
	Ingredients []IngredientProvenance `json:"ingredients"`
	EnrichedAt  time.Time              `json:"enriched_at"`
	// Seq 是行程內的執行序號，只用於丟棄過期寫入，不隨紀錄對外
	Seq uint64 `json:"-"`
}

// HasData 是否帶有可彙總的營養輪廓
func (r *Record) HasData() bool {
	return r != nil && r.Status == StatusEnriched
}

// MatchedCount 成功匹配的食材數
func (r *Record) MatchedCount() int {
	count := 0
	for _, ing := range r.Ingredients {
		if ing.Status == common.MatchStatusMatched {
			count++
		}
	}
	return count
}

// Clone 深拷貝，避免儲存層與呼叫端共享可變狀態
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Profile = r.Profile.Clone()
	out.Ingredients = make([]IngredientProvenance, len(r.Ingredients))
	copy(out.Ingredients, r.Ingredients)
	return &out
}

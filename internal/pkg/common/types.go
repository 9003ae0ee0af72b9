package common

import (
	"fmt"
	"strings"
)

// IngredientObservation 上游辨識步驟輸出的食材觀測值
// 由外部協作者（影像辨識）產生，建立後不可變
type IngredientObservation struct {
	RawName       string  `json:"name"`
	QuantityGrams float64 `json:"grams"`
}

// Valid 檢查觀測值是否可用於補全（重量必須 > 0）
func (o IngredientObservation) Valid() bool {
	return o.QuantityGrams > 0
}

// MatchStatus 匹配狀態
type MatchStatus string

const (
	// MatchStatusMatched 信心值通過門檻，已解析到食品紀錄
	MatchStatusMatched MatchStatus = "matched"
	// MatchStatusRejected 有候選但最高信心值低於門檻（僅供診斷，下游視同未匹配）
	MatchStatusRejected MatchStatus = "rejected"
	// MatchStatusUnmatched 正規化後為空字串或完全沒有候選
	MatchStatusUnmatched MatchStatus = "unmatched"
	// MatchStatusInvalid 觀測值本身無效（重量 <= 0）
	MatchStatusInvalid MatchStatus = "invalid"
)

// MatchOutcome 單一食材的匹配結果
// 每次補全執行時重新產生，不單獨持久化
type MatchOutcome struct {
	Ingredient IngredientObservation `json:"ingredient"`
	FoodID     *int64                `json:"food_id,omitempty"`
	Confidence float64               `json:"confidence"`
	Status     MatchStatus           `json:"status"`
	Reason     string                `json:"reason,omitempty"`
}

// Contributes 此結果是否對營養輪廓有貢獻
func (o MatchOutcome) Contributes() bool {
	return o.Status == MatchStatusMatched
}

// Gender 目標對象性別
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender 解析性別字串
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return GenderMale, nil
	case "female", "f":
		return GenderFemale, nil
	}
	return "", fmt.Errorf("unknown gender %q", s)
}

// IntakeStandard 每日攝取目標的參考標準
type IntakeStandard string

const (
	// StandardRDA 保守的每日建議攝取量
	StandardRDA IntakeStandard = "rda"
	// StandardOptimal 較高的理想攝取量
	StandardOptimal IntakeStandard = "optimal"
)

// ParseIntakeStandard 解析參考標準字串，空值回退為 RDA
func ParseIntakeStandard(s string) (IntakeStandard, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rda", "conservative":
		return StandardRDA, nil
	case "optimal":
		return StandardOptimal, nil
	}
	return "", fmt.Errorf("unknown intake standard %q", s)
}

// FormatObservations 將觀測值列表格式化為可讀字串（日誌用）
func FormatObservations(observations []IngredientObservation) string {
	var sb strings.Builder
	for _, obs := range observations {
		sb.WriteString(fmt.Sprintf("- %s: %.1fg\n", obs.RawName, obs.QuantityGrams))
	}
	return sb.String()
}

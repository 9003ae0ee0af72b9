package foodindex

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"nutrition-insight/internal/core/nutrient"
	"nutrition-insight/internal/pkg/common"

	"go.uber.org/zap"
)

// usdaNutrientKeys USDA 營養素編號到內部鍵的映射
var usdaNutrientKeys = map[int64]nutrient.Key{
	1008: nutrient.Energy,
	1003: nutrient.Protein,
	1004: nutrient.Fat,
	1005: nutrient.Carbs,
	1114: nutrient.VitaminD,
	1089: nutrient.Iron,
	1087: nutrient.Calcium,
	1090: nutrient.Magnesium,
	1178: nutrient.B12,
	1177: nutrient.Folate,
	1095: nutrient.Zinc,
	1092: nutrient.Potassium,
}

// LoadSQLite 從打包的 SQLite 資料庫載入靜態食品資料集
// 結構沿用上游資料庫：usda_foods / food_nutrients 兩張表
func LoadSQLite(path string) ([]Record, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset database: %w", err)
	}
	defer db.Close()

	foods, err := loadFoods(db)
	if err != nil {
		return nil, err
	}

	if err := loadNutrients(db, foods); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(foods))
	for _, rec := range foods {
		records = append(records, *rec)
	}

	common.LogInfo("載入食品資料集",
		zap.String("路徑", path),
		zap.String("格式", "sqlite"),
		zap.Int("紀錄數", len(records)),
	)

	return records, nil
}

// loadFoods 讀取食品主表
func loadFoods(db *sql.DB) (map[int64]*Record, error) {
	rows, err := db.Query(`
		SELECT fdc_id, description, COALESCE(common_name, ''), COALESCE(search_terms, '')
		FROM usda_foods
		ORDER BY fdc_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query foods: %w", err)
	}
	defer rows.Close()

	foods := make(map[int64]*Record)
	for rows.Next() {
		var (
			id                                  int64
			description, commonName, searchTxt string
		)
		if err := rows.Scan(&id, &description, &commonName, &searchTxt); err != nil {
			return nil, fmt.Errorf("failed to scan food row: %w", err)
		}

		tokens := strings.Fields(searchTxt)
		if commonName != "" {
			tokens = append(tokens, strings.Fields(commonName)...)
		}

		foods[id] = &Record{
			ID:              id,
			DisplayName:     description,
			SearchTokens:    tokens,
			NutrientsPer100: nutrient.NewProfile(),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate food rows: %w", err)
	}
	return foods, nil
}

// loadNutrients 讀取營養含量表並掛到對應食品，未知的營養素編號直接略過
func loadNutrients(db *sql.DB, foods map[int64]*Record) error {
	rows, err := db.Query(`
		SELECT fdc_id, nutrient_id, amount
		FROM food_nutrients
		ORDER BY fdc_id, nutrient_id
	`)
	if err != nil {
		return fmt.Errorf("failed to query nutrients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			foodID, nutrientID int64
			amount             float64
		)
		if err := rows.Scan(&foodID, &nutrientID, &amount); err != nil {
			return fmt.Errorf("failed to scan nutrient row: %w", err)
		}

		key, tracked := usdaNutrientKeys[nutrientID]
		if !tracked {
			continue
		}
		rec, ok := foods[foodID]
		if !ok {
			continue
		}
		if amount < 0 {
			// 資料集異常值：當作缺值處理
			continue
		}
		rec.NutrientsPer100[key] = amount
	}
	return rows.Err()
}

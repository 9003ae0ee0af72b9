package foodindex

import (
	"fmt"
	"os"

	"nutrition-insight/internal/pkg/common"

	"go.uber.org/zap"
)

// LoadJSON 從 JSON 檔載入靜態食品資料集
// 檔案格式：Record 陣列，數值為每 100 公克含量
func LoadJSON(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	var records []Record
	if err := common.ParseJSONBytes(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse dataset file %s: %w", path, err)
	}

	for i := range records {
		if err := records[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid dataset record: %w", err)
		}
	}

	common.LogInfo("載入食品資料集",
		zap.String("路徑", path),
		zap.String("格式", "json"),
		zap.Int("紀錄數", len(records)),
	)

	return records, nil
}

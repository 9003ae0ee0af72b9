package nutrient

import (
	"testing"

	"nutrition-insight/internal/pkg/common"

	"github.com/stretchr/testify/assert"
)

func TestTargetForAdultRDA(t *testing.T) {
	// 成人鐵質建議量依性別差異最大
	assert.InDelta(t, 8, TargetFor(Iron, common.GenderMale, 30, common.StandardRDA), 1e-9)
	assert.InDelta(t, 18, TargetFor(Iron, common.GenderFemale, 30, common.StandardRDA), 1e-9)

	assert.InDelta(t, 1000, TargetFor(Calcium, common.GenderMale, 30, common.StandardRDA), 1e-9)
	assert.InDelta(t, 2.4, TargetFor(B12, common.GenderFemale, 45, common.StandardRDA), 1e-9)
	assert.InDelta(t, 3400, TargetFor(Potassium, common.GenderMale, 25, common.StandardRDA), 1e-9)
}

func TestTargetForAgeBands(t *testing.T) {
	// 青少年鈣質需求高於成人
	assert.InDelta(t, 1300, TargetFor(Calcium, common.GenderMale, 10, common.StandardRDA), 1e-9)
	assert.InDelta(t, 1300, TargetFor(Calcium, common.GenderFemale, 16, common.StandardRDA), 1e-9)

	// 70 歲以上維生素 D 需求提高
	assert.InDelta(t, 20, TargetFor(VitaminD, common.GenderMale, 80, common.StandardRDA), 1e-9)

	// 停經後女性鐵質需求下降
	assert.InDelta(t, 8, TargetFor(Iron, common.GenderFemale, 60, common.StandardRDA), 1e-9)
}

func TestTargetForOptimalStandard(t *testing.T) {
	// 理想攝取標準以倍率放大保守建議量
	assert.InDelta(t, 45, TargetFor(VitaminD, common.GenderMale, 30, common.StandardOptimal), 1e-9)
	assert.InDelta(t, 4.8, TargetFor(B12, common.GenderMale, 30, common.StandardOptimal), 1e-9)
	assert.InDelta(t, 70, TargetFor(Protein, common.GenderMale, 30, common.StandardOptimal), 1e-9)

	// 倍率為 1 的營養素兩種標準相同
	assert.InDelta(t,
		TargetFor(Iron, common.GenderFemale, 30, common.StandardRDA),
		TargetFor(Iron, common.GenderFemale, 30, common.StandardOptimal), 1e-9)
}

// 表外輸入回傳保守中間值而不報錯
func TestTargetForFallbacks(t *testing.T) {
	// 未知性別：取區間男女中間值
	assert.InDelta(t, 13, TargetFor(Iron, common.Gender("other"), 30, common.StandardRDA), 1e-9)

	// 年齡落在表外：取成人區間中間值
	assert.InDelta(t, 13, TargetFor(Iron, common.GenderMale, 5, common.StandardRDA), 1e-9)
	assert.InDelta(t, 13, TargetFor(Iron, common.GenderFemale, 150, common.StandardRDA), 1e-9)

	// 未知營養素鍵回傳 0
	assert.Zero(t, TargetFor(Key("bogus"), common.GenderMale, 30, common.StandardRDA))
}

// 所有已知營養素在所有年齡區間都必須有正的目標值
func TestTargetForCompleteness(t *testing.T) {
	ages := []int{10, 16, 30, 60, 80}
	for _, key := range AllKeys {
		for _, age := range ages {
			for _, gender := range []common.Gender{common.GenderMale, common.GenderFemale} {
				assert.Greater(t, TargetFor(key, gender, age, common.StandardRDA), 0.0,
					"key=%s age=%d gender=%s", key, age, gender)
			}
		}
	}
}

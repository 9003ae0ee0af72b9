package nutrient

import (
	"nutrition-insight/internal/pkg/common"
)

// targetBand 單一年齡區間的每日目標（男/女）
type targetBand struct {
	minAge int
	maxAge int
	male   float64
	female float64
}

// rdaTable 保守的每日建議攝取量，依年齡區間與性別查表
// 成人（19-50）數值取自內建資料集的參考表，其餘區間為對應的官方建議值
var rdaTable = map[Key][]targetBand{
	Energy: {
		{9, 13, 2000, 1800},
		{14, 18, 2800, 2200},
		{19, 50, 2500, 2000},
		{51, 70, 2200, 1800},
		{71, 120, 2000, 1600},
	},
	Protein: {
		{9, 13, 34, 34},
		{14, 18, 52, 46},
		{19, 50, 56, 46},
		{51, 70, 56, 46},
		{71, 120, 56, 46},
	},
	Fat: {
		{9, 13, 62, 55},
		{14, 18, 85, 65},
		{19, 50, 78, 65},
		{51, 70, 70, 60},
		{71, 120, 65, 55},
	},
	Carbs: {
		{9, 13, 250, 230},
		{14, 18, 330, 260},
		{19, 50, 300, 260},
		{51, 70, 265, 225},
		{71, 120, 250, 200},
	},
	VitaminD: {
		{9, 13, 15, 15},
		{14, 18, 15, 15},
		{19, 50, 15, 15},
		{51, 70, 15, 15},
		{71, 120, 20, 20},
	},
	Iron: {
		{9, 13, 8, 8},
		{14, 18, 11, 15},
		{19, 50, 8, 18},
		{51, 70, 8, 8},
		{71, 120, 8, 8},
	},
	Calcium: {
		{9, 13, 1300, 1300},
		{14, 18, 1300, 1300},
		{19, 50, 1000, 1000},
		{51, 70, 1000, 1200},
		{71, 120, 1200, 1200},
	},
	Magnesium: {
		{9, 13, 240, 240},
		{14, 18, 410, 360},
		{19, 50, 400, 310},
		{51, 70, 420, 320},
		{71, 120, 420, 320},
	},
	B12: {
		{9, 13, 1.8, 1.8},
		{14, 18, 2.4, 2.4},
		{19, 50, 2.4, 2.4},
		{51, 70, 2.4, 2.4},
		{71, 120, 2.4, 2.4},
	},
	Folate: {
		{9, 13, 300, 300},
		{14, 18, 400, 400},
		{19, 50, 400, 400},
		{51, 70, 400, 400},
		{71, 120, 400, 400},
	},
	Zinc: {
		{9, 13, 8, 8},
		{14, 18, 11, 9},
		{19, 50, 11, 8},
		{51, 70, 11, 8},
		{71, 120, 11, 8},
	},
	Potassium: {
		{9, 13, 2500, 2300},
		{14, 18, 3000, 2300},
		{19, 50, 3400, 2600},
		{51, 70, 3400, 2600},
		{71, 120, 3400, 2600},
	},
}

// optimalFactor 「理想攝取」標準相對保守建議量的倍率
// 僅對有高於 RDA 之理想值依據的營養素大於 1
var optimalFactor = map[Key]float64{
	Energy:    1.0,
	Protein:   1.25,
	Fat:       1.0,
	Carbs:     1.0,
	VitaminD:  3.0,
	Iron:      1.0,
	Calcium:   1.2,
	Magnesium: 1.2,
	B12:       2.0,
	Folate:    1.5,
	Zinc:      1.2,
	Potassium: 1.35,
}

// adultBand 回傳 19-50 成人區間，作為表外查詢的回退來源
func adultBand(key Key) (targetBand, bool) {
	for _, band := range rdaTable[key] {
		if band.minAge == 19 {
			return band, true
		}
	}
	return targetBand{}, false
}

// TargetFor 回傳指定 (營養素, 性別, 年齡, 標準) 的每日攝取目標
// 純查表，無可變狀態；年齡或性別落在表外時回傳保守的中間值而不報錯
func TargetFor(key Key, gender common.Gender, age int, standard common.IntakeStandard) float64 {
	base := lookupRDA(key, gender, age)
	if base <= 0 {
		return 0
	}

	if standard == common.StandardOptimal {
		if factor, ok := optimalFactor[key]; ok {
			return base * factor
		}
	}
	return base
}

// lookupRDA 查保守建議量表，表外回退為成人男女建議量的中間值
func lookupRDA(key Key, gender common.Gender, age int) float64 {
	bands, ok := rdaTable[key]
	if !ok {
		return 0
	}

	for _, band := range bands {
		if age >= band.minAge && age <= band.maxAge {
			switch gender {
			case common.GenderMale:
				return band.male
			case common.GenderFemale:
				return band.female
			}
			// 未知性別：取該區間男女中間值
			return (band.male + band.female) / 2
		}
	}

	// 年齡落在表外：取成人區間的保守中間值
	if adult, ok := adultBand(key); ok {
		return (adult.male + adult.female) / 2
	}
	return 0
}

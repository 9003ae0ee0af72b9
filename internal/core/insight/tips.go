package insight

import "nutrition-insight/internal/core/nutrient"

// comboRule 缺乏共現規則，依序比對，先中先贏
type comboRule struct {
	first  nutrient.Key
	second nutrient.Key
	tip    string
}

// comboRules 固定優先序的共現規則表
var comboRules = []comboRule{
	{
		first:  nutrient.VitaminD,
		second: nutrient.Calcium,
		tip:    "Vitamin D and calcium are both low. Pair fortified dairy or fatty fish with time outdoors to support bone health.",
	},
	{
		first:  nutrient.Iron,
		second: nutrient.B12,
		tip:    "Iron and vitamin B12 are both low. Lean red meat, shellfish, or fortified cereals cover both in one meal.",
	},
}

// singleTips 單一營養素的建議
var singleTips = map[nutrient.Key]string{
	nutrient.Protein:  "Protein intake is low. Add eggs, poultry, tofu, or legumes to your main meals.",
	nutrient.VitaminD: "Vitamin D intake is low. Fatty fish, egg yolks, and fortified milk are reliable sources.",
	nutrient.Iron:     "Iron intake is low. Red meat, spinach, and lentils help, and vitamin C improves absorption.",
	nutrient.Calcium:  "Calcium intake is low. Dairy, tofu set with calcium, and leafy greens close the gap.",
	nutrient.Magnesium: "Magnesium intake is low. Nuts, seeds, whole grains, and dark leafy greens are good sources.",
	nutrient.B12:      "Vitamin B12 intake is low. Animal products or fortified foods are the only dependable sources.",
	nutrient.Folate:   "Folate intake is low. Leafy greens, beans, and citrus raise it quickly.",
	nutrient.Zinc:     "Zinc intake is low. Oysters, beef, pumpkin seeds, and chickpeas are rich in it.",
	nutrient.Potassium: "Potassium intake is low. Bananas, potatoes, beans, and yogurt are potassium dense.",
}

// pickTip 依決策表挑選建議：先看共現規則，否則取百分比最低的缺乏營養素
func pickTip(deficiencies []nutrient.Key, percentOf map[nutrient.Key]float64) string {
	if len(deficiencies) == 0 {
		return ""
	}

	deficient := make(map[nutrient.Key]bool, len(deficiencies))
	for _, key := range deficiencies {
		deficient[key] = true
	}

	for _, rule := range comboRules {
		if deficient[rule.first] && deficient[rule.second] {
			return rule.tip
		}
	}

	lowest := deficiencies[0]
	for _, key := range deficiencies[1:] {
		if percentOf[key] < percentOf[lowest] {
			lowest = key
		}
	}
	if tip, exists := singleTips[lowest]; exists {
		return tip
	}
	return ""
}

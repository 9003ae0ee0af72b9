package nutrient

// Scale 將每 100 公克的營養輪廓線性縮放到觀測重量
// 純函式：result[k] = per100[k] * grams / 100
// 滿足可加性：Scale(p, a) + Scale(p, b) == Scale(p, a+b)（浮點容差內）
func Scale(per100 Profile, grams float64) Profile {
	if grams <= 0 {
		return NewProfile()
	}

	factor := grams / 100.0
	scaled := make(Profile, len(per100))
	for k, v := range per100 {
		scaled[k] = v * factor
	}
	return scaled
}

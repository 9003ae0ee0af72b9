package nutrient

// Key 追蹤的營養素（封閉枚舉，對應內建資料集的 12 項）
type Key string

const (
	// 巨量營養素
	Energy  Key = "energy"  // kcal
	Protein Key = "protein" // g
	Fat     Key = "fat"     // g
	Carbs   Key = "carbs"   // g

	// 核心微量營養素（常見缺乏項目）
	VitaminD  Key = "vitamin_d"   // mcg
	Iron      Key = "iron"        // mg
	Calcium   Key = "calcium"     // mg
	Magnesium Key = "magnesium"   // mg
	B12       Key = "vitamin_b12" // mcg
	Folate    Key = "folate"      // mcg
	Zinc      Key = "zinc"        // mg
	Potassium Key = "potassium"   // mg
)

// AllKeys 固定順序的全部營養素，供確定性的走訪使用
var AllKeys = []Key{
	Energy, Protein, Fat, Carbs,
	VitaminD, Iron, Calcium, Magnesium,
	B12, Folate, Zinc, Potassium,
}

// units 每項營養素的計量單位
var units = map[Key]string{
	Energy:    "kcal",
	Protein:   "g",
	Fat:       "g",
	Carbs:     "g",
	VitaminD:  "mcg",
	Iron:      "mg",
	Calcium:   "mg",
	Magnesium: "mg",
	B12:       "mcg",
	Folate:    "mcg",
	Zinc:      "mg",
	Potassium: "mg",
}

// displayNames 顯示名稱（報告與提示用）
var displayNames = map[Key]string{
	Energy:    "Calories",
	Protein:   "Protein",
	Fat:       "Total Fat",
	Carbs:     "Carbohydrate",
	VitaminD:  "Vitamin D",
	Iron:      "Iron",
	Calcium:   "Calcium",
	Magnesium: "Magnesium",
	B12:       "Vitamin B12",
	Folate:    "Folate",
	Zinc:      "Zinc",
	Potassium: "Potassium",
}

// Valid 檢查是否為已知的營養素鍵
func (k Key) Valid() bool {
	_, ok := units[k]
	return ok
}

// Unit 計量單位
func (k Key) Unit() string {
	return units[k]
}

// DisplayName 顯示名稱
func (k Key) DisplayName() string {
	if name, ok := displayNames[k]; ok {
		return name
	}
	return string(k)
}

// Profile 營養輪廓：營養素鍵到絕對含量的映射
// 值永遠非負，且可相加
type Profile map[Key]float64

// NewProfile 建立空的營養輪廓
func NewProfile() Profile {
	return make(Profile, len(AllKeys))
}

// Clone 複製營養輪廓
func (p Profile) Clone() Profile {
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Add 將另一份輪廓累加進來（就地修改並回傳自身）
func (p Profile) Add(other Profile) Profile {
	for k, v := range other {
		p[k] += v
	}
	return p
}

// IsEmpty 輪廓是否沒有任何營養素
func (p Profile) IsEmpty() bool {
	return len(p) == 0
}

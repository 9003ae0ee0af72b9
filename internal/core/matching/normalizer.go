package matching

import (
	"regexp"
	"strings"
)

// punctuationPattern 將非英數字元一律折成空白
var punctuationPattern = regexp.MustCompile(`[^a-z0-9\s]+`)

// cookingMethods 烹調方式修飾詞，對匹配沒有鑑別力，一律移除
var cookingMethods = []string{
	"grilled", "baked", "fried", "steamed", "roasted", "boiled",
	"sauteed", "pan-fried", "deep-fried", "stir-fried",
	"broiled", "braised", "poached", "smoked", "cooked",
}

// cosmeticModifiers 外觀與處理方式形容詞（含尺寸形容詞），同樣移除
var cosmeticModifiers = []string{
	"fresh", "frozen", "raw", "organic", "free-range",
	"grass-fed", "wild-caught", "farm-raised", "extra", "premium",
	"chopped", "diced", "sliced", "minced", "shredded", "grated",
	"whole", "half", "quarter",
	"small", "medium", "large", "big", "little", "mini", "jumbo",
}

// stopWords 常見虛詞與單位詞
var stopWords = []string{
	"a", "an", "the", "and", "or", "of", "in", "on", "with", "style",
	"cup", "cups", "slice", "slices", "piece", "pieces", "serving",
}

// stopSet 全部需移除詞彙的集合，於載入時建立一次
var stopSet = buildStopSet()

func buildStopSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, group := range [][]string{cookingMethods, cosmeticModifiers, stopWords} {
		for _, w := range group {
			// 連字詞在斷詞前已被折成空白，這裡把兩半也納入
			for _, part := range strings.Split(w, "-") {
				set[part] = struct{}{}
			}
		}
	}
	return set
}

// Normalize 對原始食材名稱做確定性清理
// 小寫化、去標點、移除修飾詞、折疊空白、輕量詞幹化
// 純函式且總是成功；完全被清空的輸入回傳空字串，匹配器視為 unmatched
func Normalize(raw string) string {
	return strings.Join(NormalizeTokens(raw), " ")
}

// NormalizeTokens 回傳清理並詞幹化後的 token 序列（保持原順序）
func NormalizeTokens(raw string) []string {
	lowered := strings.ToLower(raw)
	lowered = punctuationPattern.ReplaceAllString(lowered, " ")

	fields := strings.Fields(lowered)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, drop := stopSet[f]; drop {
			continue
		}
		tokens = append(tokens, Stem(f))
	}
	return tokens
}

// Stem 輕量後綴剝除詞幹化，讓單複數與常見變形收斂為同一形式
// 不是完整的 Porter 實作，但涵蓋食材名稱常見的變化
func Stem(word string) string {
	if len(word) < 4 {
		return word
	}

	switch {
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		// berries -> berry
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "oes") || strings.HasSuffix(word, "ches") ||
		strings.HasSuffix(word, "shes") || strings.HasSuffix(word, "sses") ||
		strings.HasSuffix(word, "xes"):
		// tomatoes -> tomato, radishes -> radish
		return word[:len(word)-2]
	case strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") && !strings.HasSuffix(word, "us"):
		// eggs -> egg
		return word[:len(word)-1]
	}
	return word
}

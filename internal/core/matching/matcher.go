package matching

import (
	"strings"
	"time"

	"nutrition-insight/internal/core/foodindex"
	"nutrition-insight/internal/pkg/common"
)

const (
	// DefaultTopK 每次檢索的候選數
	DefaultTopK = 5
	// DefaultConfidenceThreshold 信心門檻：低於此值的候選一律拒絕
	DefaultConfidenceThreshold = 0.50
	// 信心值混合權重的預設值。精確的權重來源不明，視為可調參數
	DefaultOverlapWeight = 0.6
	DefaultEditWeight    = 0.4
)

// Config 匹配器設定
type Config struct {
	TopK                int
	ConfidenceThreshold float64
	OverlapWeight       float64
	EditWeight          float64
}

// withDefaults 補齊未設定的欄位
func (c Config) withDefaults() Config {
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if c.OverlapWeight <= 0 && c.EditWeight <= 0 {
		c.OverlapWeight = DefaultOverlapWeight
		c.EditWeight = DefaultEditWeight
	}
	return c
}

// Matcher 模糊匹配器：把正規化後的食材名稱解析為單一食品紀錄或 unmatched
// 完全確定性：相同輸入永遠得到相同結果，重複補全因此冪等
type Matcher struct {
	index *foodindex.Index
	cfg   Config
	cache *OutcomeCache
}

// NewMatcher 創建匹配器；cache 可為 nil（停用快取）
func NewMatcher(index *foodindex.Index, cfg Config, cache *OutcomeCache) *Matcher {
	return &Matcher{
		index: index,
		cfg:   cfg.withDefaults(),
		cache: cache,
	}
}

// Match 解析單一食材觀測值
func (m *Matcher) Match(obs common.IngredientObservation) common.MatchOutcome {
	start := time.Now()

	normalized := Normalize(obs.RawName)
	if normalized == "" {
		return m.finish(obs, common.MatchOutcome{
			Status: common.MatchStatusUnmatched,
			Reason: "empty after normalization",
		}, start)
	}

	// 結果快取純粹是省工，不改變結果（匹配本身就是確定性的）
	if m.cache != nil {
		if cached, ok := m.cache.Get(normalized); ok {
			common.LogCacheHit("match", normalized)
			return m.finish(obs, cached, start)
		}
		common.LogCacheMiss("match", normalized)
	}

	outcome := m.resolve(normalized)
	if m.cache != nil {
		m.cache.Set(normalized, outcome)
	}
	return m.finish(obs, outcome, start)
}

// resolve 對正規化名稱做檢索、計分與門檻判定
func (m *Matcher) resolve(normalized string) common.MatchOutcome {
	candidates := m.index.Search(normalized, m.cfg.TopK)
	if len(candidates) == 0 {
		return common.MatchOutcome{
			Status: common.MatchStatusUnmatched,
			Reason: "no candidates",
		}
	}

	queryTokens := strings.Fields(normalized)

	// 選最高信心值候選；同分時沿用索引的決勝順序（候選序即該順序）
	bestID := int64(0)
	bestConf := -1.0
	for _, cand := range candidates {
		conf := m.confidence(normalized, queryTokens, cand.FoodID)
		if conf > bestConf {
			bestConf = conf
			bestID = cand.FoodID
		}
	}

	status := m.classify(bestConf)
	outcome := common.MatchOutcome{
		Confidence: bestConf,
		Status:     status,
	}
	if status == common.MatchStatusMatched {
		outcome.FoodID = &bestID
	} else {
		outcome.Reason = "confidence below threshold"
	}
	return outcome
}

// confidence 單一候選的信心值：token 重疊與編輯距離相似度的加權混合，截斷到 [0,1]
func (m *Matcher) confidence(normalizedQuery string, queryTokens []string, foodID int64) float64 {
	matched := 0
	for _, tok := range queryTokens {
		if m.index.HasToken(foodID, tok) {
			matched++
		}
	}
	overlap := float64(matched) / float64(len(queryTokens))

	candName := m.index.NormalizedName(foodID)
	editSim := editSimilarity(normalizedQuery, candName)

	return clamp01(m.cfg.OverlapWeight*overlap + m.cfg.EditWeight*editSim)
}

// classify 信心門檻判定：恰好等於門檻值視為通過
func (m *Matcher) classify(confidence float64) common.MatchStatus {
	if confidence >= m.cfg.ConfidenceThreshold {
		return common.MatchStatusMatched
	}
	return common.MatchStatusRejected
}

// finish 補上觀測值並記錄結果
func (m *Matcher) finish(obs common.IngredientObservation, outcome common.MatchOutcome, start time.Time) common.MatchOutcome {
	outcome.Ingredient = obs
	common.LogMatchOutcome(obs.RawName, string(outcome.Status), outcome.Confidence, time.Since(start))
	return outcome
}

// editSimilarity 正規化的編輯距離相似度：1 - dist/maxLen
func editSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

// levenshtein 單列 DP 的編輯距離
func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr := make([]int, lb+1)
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(curr[j-1]+1, minInt(prev[j]+1, prev[j-1]+cost))
		}
		prev = curr
	}
	return prev[lb]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package foodindex

import (
	"fmt"
	"sort"
	"strings"

	"nutrition-insight/internal/pkg/common"

	"go.uber.org/zap"
)

// Tokenizer 將任意字串切成正規化後的 token 序列
// 由呼叫端注入（通常是 matching.NormalizeTokens），避免索引層綁死正規化規則
type Tokenizer func(string) []string

// Index 食品資料集的倒排索引
// 建構完成後唯讀，任意數量的讀取端可併發查詢，無需加鎖
type Index struct {
	byID       map[int64]*Record
	normalized map[int64]string      // 正規化後的顯示名稱，供編輯距離比對
	tokens     map[int64]tokenSet    // 每筆紀錄的 token 集合
	postings   map[string][]int64    // token -> 含有該 token 的食品 ID（已排序）
	tokenize   Tokenizer
	size       int
}

type tokenSet map[string]struct{}

// New 以靜態資料集建立索引，僅於啟動時呼叫一次
func New(records []Record, tokenize Tokenizer) (*Index, error) {
	if tokenize == nil {
		return nil, fmt.Errorf("foodindex: tokenizer is required")
	}

	idx := &Index{
		byID:       make(map[int64]*Record, len(records)),
		normalized: make(map[int64]string, len(records)),
		tokens:     make(map[int64]tokenSet, len(records)),
		postings:   make(map[string][]int64),
		tokenize:   tokenize,
	}

	for i := range records {
		rec := &records[i]
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("foodindex: %w", err)
		}
		if _, dup := idx.byID[rec.ID]; dup {
			return nil, fmt.Errorf("foodindex: duplicate record id %d", rec.ID)
		}
		idx.byID[rec.ID] = rec

		// 顯示名稱與搜尋詞一起進索引
		set := make(tokenSet)
		for _, tok := range tokenize(rec.DisplayName) {
			set[tok] = struct{}{}
		}
		for _, raw := range rec.SearchTokens {
			for _, tok := range tokenize(raw) {
				set[tok] = struct{}{}
			}
		}
		idx.tokens[rec.ID] = set
		idx.normalized[rec.ID] = strings.Join(tokenize(rec.DisplayName), " ")

		for tok := range set {
			idx.postings[tok] = append(idx.postings[tok], rec.ID)
		}
	}

	// posting list 排序，讓走訪順序確定
	for tok := range idx.postings {
		ids := idx.postings[tok]
		sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	}
	idx.size = len(records)

	common.LogInfo("食品索引建立完成",
		zap.Int("紀錄數", idx.size),
		zap.Int("詞彙數", len(idx.postings)),
	)

	return idx, nil
}

// Size 索引內的紀錄數
func (idx *Index) Size() int {
	return idx.size
}

// Lookup 以 ID 取得食品紀錄，O(1)
func (idx *Index) Lookup(id int64) (*Record, bool) {
	rec, ok := idx.byID[id]
	return rec, ok
}

// NormalizedName 回傳紀錄顯示名稱的正規化形式
func (idx *Index) NormalizedName(id int64) string {
	return idx.normalized[id]
}

// Search 檢索正規化查詢字串的前 k 個候選
// 排序完全確定：相關性分數由高到低，同分時顯示名稱較短者優先，再以 ID 升冪
func (idx *Index) Search(normalizedQuery string, k int) []Candidate {
	queryTokens := strings.Fields(normalizedQuery)
	if len(queryTokens) == 0 || k <= 0 {
		return nil
	}

	// token 重疊計分
	scores := make(map[int64]float64)
	for _, tok := range queryTokens {
		for _, id := range idx.postings[tok] {
			scores[id]++
		}
	}
	if len(scores) == 0 {
		return nil
	}

	candidates := make([]Candidate, 0, len(scores))
	for id, score := range scores {
		candidates = append(candidates, Candidate{FoodID: id, RawScore: score})
	}

	sort.Slice(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if ca.RawScore != cb.RawScore {
			return ca.RawScore > cb.RawScore
		}
		na, nb := idx.byID[ca.FoodID].DisplayName, idx.byID[cb.FoodID].DisplayName
		if len(na) != len(nb) {
			return len(na) < len(nb)
		}
		return ca.FoodID < cb.FoodID
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// TokenCount 回傳紀錄的 token 集合大小（匹配器計分用）
func (idx *Index) TokenCount(id int64) int {
	return len(idx.tokens[id])
}

// HasToken 紀錄是否含有指定 token
func (idx *Index) HasToken(id int64, token string) bool {
	_, ok := idx.tokens[id][token]
	return ok
}

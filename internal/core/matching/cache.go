package matching

import (
	"sync"
	"time"

	"nutrition-insight/internal/pkg/common"

	"go.uber.org/zap"
)

// OutcomeCache 匹配結果快取，以正規化名稱為鍵
// 省掉重複的檢索與計分；匹配是確定性的，快取永遠不會改變結果
type OutcomeCache struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
	stats cacheStats

	maxSize int
	ttl     time.Duration
	done    chan struct{}
}

// cacheEntry 快取條目
type cacheEntry struct {
	outcome     common.MatchOutcome
	expiresAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// cacheStats 快取統計
type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
}

// NewOutcomeCache 創建匹配結果快取並啟動定期清理
func NewOutcomeCache(maxSize int, ttl, cleanupInterval time.Duration) *OutcomeCache {
	c := &OutcomeCache{
		store:   make(map[string]cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
		done:    make(chan struct{}),
	}

	// 啟動清理過期快取的協程
	go c.startCleanup(cleanupInterval)

	common.LogInfo("匹配快取已初始化",
		zap.Int("最大容量", maxSize),
		zap.Duration("存活時間", ttl),
		zap.Duration("清理間隔", cleanupInterval),
	)

	return c
}

// Get 獲取快取的匹配結果（不含觀測值，由呼叫端補上）
func (c *OutcomeCache) Get(normalizedName string) (common.MatchOutcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.store[normalizedName]
	if !exists {
		c.stats.misses++
		return common.MatchOutcome{}, false
	}

	// 檢查是否過期
	if time.Now().After(entry.expiresAt) {
		delete(c.store, normalizedName)
		c.stats.evictions++
		c.stats.misses++
		return common.MatchOutcome{}, false
	}

	// 更新訪問統計
	entry.lastAccess = time.Now()
	entry.accessCount++
	c.store[normalizedName] = entry
	c.stats.hits++

	return entry.outcome, true
}

// Set 寫入匹配結果
func (c *OutcomeCache) Set(normalizedName string, outcome common.MatchOutcome) {
	// 不快取觀測值本身，只快取解析結論
	outcome.Ingredient = common.IngredientObservation{}

	c.mu.Lock()
	defer c.mu.Unlock()

	// 檢查快取大小，必要時先清過期再做 LRU 淘汰
	if len(c.store) >= c.maxSize {
		c.cleanupLocked()
		if len(c.store) >= c.maxSize {
			c.evictLRULocked()
		}
	}

	now := time.Now()
	c.store[normalizedName] = cacheEntry{
		outcome:    outcome,
		expiresAt:  now.Add(c.ttl),
		lastAccess: now,
	}
}

// startCleanup 定期清理過期條目，直到 Close
func (c *OutcomeCache) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			removed := c.cleanupLocked()
			c.mu.Unlock()
			if removed > 0 {
				common.LogDebug("匹配快取清理執行", zap.Int("清理數量", removed))
			}
		case <-c.done:
			return
		}
	}
}

// cleanupLocked 清理過期條目，呼叫端須持有鎖
func (c *OutcomeCache) cleanupLocked() int {
	now := time.Now()
	count := 0
	for key, entry := range c.store {
		if now.After(entry.expiresAt) {
			delete(c.store, key)
			c.stats.evictions++
			count++
		}
	}
	return count
}

// evictLRULocked 淘汰訪問最少、最久未用的條目，呼叫端須持有鎖
func (c *OutcomeCache) evictLRULocked() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestCount int

	for key, entry := range c.store {
		if oldestKey == "" ||
			entry.accessCount < lowestCount ||
			(entry.accessCount == lowestCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(c.store, oldestKey)
		c.stats.evictions++
		common.LogDebug("匹配快取已淘汰(LRU)", zap.String("鍵", oldestKey))
	}
}

// Stats 獲取快取統計信息
func (c *OutcomeCache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.stats.hits + c.stats.misses
	hitRatio := 0.0
	if total > 0 {
		hitRatio = float64(c.stats.hits) / float64(total)
	}
	return map[string]interface{}{
		"size":      len(c.store),
		"max_size":  c.maxSize,
		"hits":      c.stats.hits,
		"misses":    c.stats.misses,
		"evictions": c.stats.evictions,
		"hit_ratio": hitRatio,
	}
}

// Close 停止清理協程並清空快取
func (c *OutcomeCache) Close() {
	close(c.done)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]cacheEntry)

	common.LogInfo("匹配快取已關閉",
		zap.Int64("命中次數", c.stats.hits),
		zap.Int64("未命中次數", c.stats.misses),
		zap.Int64("淘汰次數", c.stats.evictions),
	)
}

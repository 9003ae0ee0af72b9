package enrichment

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DateRange 查詢區間，含起訖
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains 補全時間是否落在區間內
func (d DateRange) Contains(t time.Time) bool {
	if !d.From.IsZero() && t.Before(d.From) {
		return false
	}
	if !d.To.IsZero() && t.After(d.To) {
		return false
	}
	return true
}

// RecordStore 補全紀錄的儲存介面
// Put 必須整筆原子性取代，讀取端永遠看到完整的新版或完整的舊版
type RecordStore interface {
	// Get 取得單筆紀錄，不存在時回傳 (nil, nil)
	Get(ctx context.Context, recordID string) (*Record, error)
	// Put 寫入或整筆取代紀錄
	Put(ctx context.Context, record *Record) error
	// Query 取得補全時間落在區間內的所有紀錄
	Query(ctx context.Context, dateRange DateRange) ([]*Record, error)
}

// MemoryStore 行程內的紀錄儲存，預設後端
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore 建立記憶體儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
	}
}

// Get 取得單筆紀錄
func (s *MemoryStore) Get(ctx context.Context, recordID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[recordID]
	if !exists {
		return nil, nil
	}
	return record.Clone(), nil
}

// Put 寫入或整筆取代紀錄
func (s *MemoryStore) Put(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.RecordID] = record.Clone()
	return nil
}

// Query 取得補全時間落在區間內的所有紀錄，依補全時間排序
func (s *MemoryStore) Query(ctx context.Context, dateRange DateRange) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*Record, 0)
	for _, record := range s.records {
		if dateRange.Contains(record.EnrichedAt) {
			results = append(results, record.Clone())
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if !results[i].EnrichedAt.Equal(results[j].EnrichedAt) {
			return results[i].EnrichedAt.Before(results[j].EnrichedAt)
		}
		return results[i].RecordID < results[j].RecordID
	})
	return results, nil
}

// Delete 移除紀錄，測試與紀錄刪除流程使用
func (s *MemoryStore) Delete(ctx context.Context, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, recordID)
	return nil
}

// Size 目前紀錄數
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

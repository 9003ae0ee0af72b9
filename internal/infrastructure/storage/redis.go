package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"nutrition-insight/internal/core/enrichment"
	"nutrition-insight/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
)

const (
	recordKeyPrefix = "enrich:record:"
	recordTimeIndex = "enrich:by_time"
)

// RedisStore Redis 後端的補全紀錄儲存
// 紀錄本體以 JSON 存放，另以補全時間為分數維護排序索引供區間查詢
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 建立 Redis 儲存並測試連接
func NewRedisStore(cfg *config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Get 取得單筆紀錄，不存在時回傳 (nil, nil)
func (s *RedisStore) Get(ctx context.Context, recordID string) (*enrichment.Record, error) {
	data, err := s.client.Get(ctx, recordKeyPrefix+recordID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var record enrichment.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &record, nil
}

// Put 寫入或整筆取代紀錄，SET 為單一指令，讀取端不會看到半成品
func (s *RedisStore) Put(ctx context.Context, record *enrichment.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, recordKeyPrefix+record.RecordID, data, 0)
	pipe.ZAdd(ctx, recordTimeIndex, &redis.Z{
		Score:  float64(record.EnrichedAt.UnixNano()),
		Member: record.RecordID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to put record: %w", err)
	}
	return nil
}

// Query 取得補全時間落在區間內的所有紀錄，依補全時間排序
func (s *RedisStore) Query(ctx context.Context, dateRange enrichment.DateRange) ([]*enrichment.Record, error) {
	min := "-inf"
	max := "+inf"
	if !dateRange.From.IsZero() {
		min = strconv.FormatInt(dateRange.From.UnixNano(), 10)
	}
	if !dateRange.To.IsZero() {
		max = strconv.FormatInt(dateRange.To.UnixNano(), 10)
	}

	ids, err := s.client.ZRangeByScore(ctx, recordTimeIndex, &redis.ZRangeBy{
		Min: min,
		Max: max,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query record index: %w", err)
	}
	if len(ids) == 0 {
		return []*enrichment.Record{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKeyPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	records := make([]*enrichment.Record, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			// 索引先於本體被清除時略過
			continue
		}
		var record enrichment.Record
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		records = append(records, &record)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].EnrichedAt.Equal(records[j].EnrichedAt) {
			return records[i].EnrichedAt.Before(records[j].EnrichedAt)
		}
		return records[i].RecordID < records[j].RecordID
	})
	return records, nil
}

// Delete 移除紀錄與索引
func (s *RedisStore) Delete(ctx context.Context, recordID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, recordKeyPrefix+recordID)
	pipe.ZRem(ctx, recordTimeIndex, recordID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping 健康檢查
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

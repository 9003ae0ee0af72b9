package enrichment

import (
	"context"
	"sync"
	"sync/atomic"

	"nutrition-insight/internal/pkg/common"
)

// Job 非同步補全工作
type Job struct {
	RunID        string
	RecordID     string
	Observations []common.IngredientObservation
}

// QueueStatus 佇列狀態快照
type QueueStatus struct {
	Pending   int   `json:"pending"`
	Capacity  int   `json:"capacity"`
	Processed int64 `json:"processed"`
}

// Queue 補全工作佇列，佇列滿時拒收而非阻塞呼叫端
type Queue struct {
	queue     chan *Job
	done      chan struct{}
	processed int64
	closeOnce sync.Once
}

// NewQueue 建立工作佇列
func NewQueue(maxSize int) *Queue {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &Queue{
		queue: make(chan *Job, maxSize),
		done:  make(chan struct{}),
	}
}

// Enqueue 將工作排入佇列，佇列滿時回傳 ErrQueueFull
func (q *Queue) Enqueue(ctx context.Context, job *Job) error {
	// 先確認佇列未關閉，避免 select 隨機選中送入分支
	select {
	case <-q.done:
		return common.ErrQueueFull
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.queue <- job:
		return nil
	default:
		return common.ErrQueueFull
	}
}

// Jobs 工作接收端，消費端需同時監聽 Done 以便關閉時離開
func (q *Queue) Jobs() <-chan *Job {
	return q.queue
}

// Done 關閉訊號
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// IncrementProcessed 累計已處理的工作數
func (q *Queue) IncrementProcessed() {
	atomic.AddInt64(&q.processed, 1)
}

// Status 佇列狀態
func (q *Queue) Status() QueueStatus {
	return QueueStatus{
		Pending:   len(q.queue),
		Capacity:  cap(q.queue),
		Processed: atomic.LoadInt64(&q.processed),
	}
}

// Close 關閉佇列，之後的 Enqueue 一律拒收
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}

package enrichment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nutrition-insight/internal/core/foodindex"
	"nutrition-insight/internal/core/matching"
	"nutrition-insight/internal/core/nutrient"
	"nutrition-insight/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	// DefaultWorkerCap 單筆紀錄內食材匹配的併發上限
	DefaultWorkerCap = 8
	// DefaultQueueWorkers 非同步佇列的消費者數
	DefaultQueueWorkers = 2
	// DefaultQueueSize 非同步佇列容量
	DefaultQueueSize = 100
)

// Config 協調器設定
type Config struct {
	WorkerCap    int
	QueueWorkers int
	QueueSize    int
}

func (c Config) withDefaults() Config {
	if c.WorkerCap <= 0 {
		c.WorkerCap = DefaultWorkerCap
	}
	if c.QueueWorkers <= 0 {
		c.QueueWorkers = DefaultQueueWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	return c
}

// Result 單次補全的結果
type Result struct {
	RunID    string
	Record   *Record
	Outcomes []common.MatchOutcome
	// Stale 表示有更新的執行已先寫入，此次結果被丟棄
	Stale bool
}

// Orchestrator 補全協調器
// 對每筆紀錄：併發匹配每項食材、縮放並加總營養素、整筆原子性寫入儲存。
// 每筆紀錄維護單調遞增的執行序號，過期的執行結果一律丟棄，
// 確保最後寫入的一定是最新一次提交的食材清單
type Orchestrator struct {
	matcher  *matching.Matcher
	index    *foodindex.Index
	store    RecordStore
	notifier Notifier
	cfg      Config
	now      func() time.Time

	queue    *Queue
	rootCtx  context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	startOne sync.Once
	stopOne  sync.Once

	mu       sync.Mutex
	nextSeq  map[string]uint64
	applied  map[string]uint64
	inflight map[string]map[string]context.CancelFunc
}

// NewOrchestrator 建立補全協調器
func NewOrchestrator(matcher *matching.Matcher, index *foodindex.Index, store RecordStore, notifier Notifier, cfg Config) *Orchestrator {
	rootCtx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		matcher:  matcher,
		index:    index,
		store:    store,
		notifier: notifier,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		queue:    NewQueue(cfg.withDefaults().QueueSize),
		rootCtx:  rootCtx,
		cancel:   cancel,
		nextSeq:  make(map[string]uint64),
		applied:  make(map[string]uint64),
		inflight: make(map[string]map[string]context.CancelFunc),
	}
}

// SetClock 替換時間來源，測試使用
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// Start 啟動非同步佇列的消費者
func (o *Orchestrator) Start() {
	o.startOne.Do(func() {
		for i := 0; i < o.cfg.QueueWorkers; i++ {
			o.wg.Add(1)
			go o.consume(i)
		}
		common.LogInfo("補全協調器已啟動",
			zap.Int("queue_workers", o.cfg.QueueWorkers),
			zap.Int("worker_cap", o.cfg.WorkerCap))
	})
}

// Stop 關閉佇列並等待所有消費者結束，保證不遺留 goroutine
func (o *Orchestrator) Stop() {
	o.stopOne.Do(func() {
		o.queue.Close()
		o.cancel()
		o.wg.Wait()
		common.LogInfo("補全協調器已停止",
			zap.Int64("processed", o.queue.Status().Processed))
	})
}

// QueueStatus 佇列狀態
func (o *Orchestrator) QueueStatus() QueueStatus {
	return o.queue.Status()
}

func (o *Orchestrator) consume(id int) {
	defer o.wg.Done()
	for {
		select {
		case <-o.queue.Done():
			return
		case job := <-o.queue.Jobs():
			if job == nil {
				return
			}
			result, err := o.enrich(o.rootCtx, job.RunID, job.RecordID, job.Observations)
			if err != nil {
				common.LogError("非同步補全失敗",
					zap.String("record_id", job.RecordID),
					zap.String("run_id", job.RunID),
					zap.Error(err))
			} else if result.Stale {
				common.LogDebug("非同步補全結果已過期",
					zap.String("record_id", job.RecordID),
					zap.String("run_id", job.RunID))
			}
			o.queue.IncrementProcessed()
		}
	}
}

// Enrich 同步補全一筆紀錄
func (o *Orchestrator) Enrich(ctx context.Context, recordID string, observations []common.IngredientObservation) (*Result, error) {
	return o.enrich(ctx, common.GenerateUUID(), recordID, observations)
}

// EnqueueEnrich 將補全工作排入佇列後立即返回
func (o *Orchestrator) EnqueueEnrich(ctx context.Context, recordID string, observations []common.IngredientObservation) (string, error) {
	job := &Job{
		RunID:        common.GenerateUUID(),
		RecordID:     recordID,
		Observations: observations,
	}
	if err := o.queue.Enqueue(ctx, job); err != nil {
		return "", err
	}
	return job.RunID, nil
}

// Cancel 取消某筆紀錄所有進行中的補全，紀錄刪除流程使用
func (o *Orchestrator) Cancel(recordID string) {
	o.mu.Lock()
	cancels := o.inflight[recordID]
	o.mu.Unlock()
	for _, cancelRun := range cancels {
		cancelRun()
	}
}

func (o *Orchestrator) enrich(ctx context.Context, runID, recordID string, observations []common.IngredientObservation) (*Result, error) {
	return o.enrichRun(ctx, runID, recordID, o.claimSeq(recordID), observations)
}

func (o *Orchestrator) enrichRun(ctx context.Context, runID, recordID string, seq uint64, observations []common.IngredientObservation) (*Result, error) {
	start := time.Now()

	runCtx, cancelRun := context.WithCancel(ctx)
	o.trackRun(recordID, runID, cancelRun)
	defer o.untrackRun(recordID, runID)

	outcomes, profile := o.matchAll(runCtx, observations)
	if err := runCtx.Err(); err != nil {
		return nil, fmt.Errorf("補全已取消: %w", err)
	}

	record := o.buildRecord(recordID, seq, observations, outcomes, profile)

	// 互斥保護序號檢查與寫入的原子性，過期執行不得覆蓋較新的結果
	o.mu.Lock()
	if seq < o.applied[recordID] {
		o.mu.Unlock()
		return &Result{RunID: runID, Record: record, Outcomes: outcomes, Stale: true}, nil
	}
	if err := o.store.Put(ctx, record); err != nil {
		o.mu.Unlock()
		return nil, common.NewError("STORAGE_WRITE_FAILED", "補全結果寫入失敗", 503, err)
	}
	o.applied[recordID] = seq
	o.mu.Unlock()

	matched := record.MatchedCount()
	o.notify(ctx, Event{
		RecordID:     recordID,
		RunID:        runID,
		Status:       record.Status,
		MatchedCount: matched,
		TotalCount:   len(record.Ingredients),
		EnrichedAt:   record.EnrichedAt,
	})

	common.LogEnrichment(recordID, matched, len(record.Ingredients), time.Since(start), nil)
	return &Result{RunID: runID, Record: record, Outcomes: outcomes}, nil
}

type matchResult struct {
	idx     int
	outcome common.MatchOutcome
	scaled  nutrient.Profile
}

// matchAll 併發匹配所有食材，併發度取食材數與上限的較小者。
// 結果經由通道收斂到單一 goroutine 做加總，不共享可變狀態
func (o *Orchestrator) matchAll(ctx context.Context, observations []common.IngredientObservation) ([]common.MatchOutcome, nutrient.Profile) {
	outcomes := make([]common.MatchOutcome, len(observations))
	profile := nutrient.NewProfile()
	if len(observations) == 0 {
		return outcomes, profile
	}

	workers := len(observations)
	if workers > o.cfg.WorkerCap {
		workers = o.cfg.WorkerCap
	}

	jobs := make(chan int)
	results := make(chan matchResult, len(observations))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				// 取消後剩餘工作直接略過，不再進入匹配
				if ctx.Err() != nil {
					continue
				}
				results <- o.matchOne(observations[idx], idx)
			}
		}()
	}

feed:
	for idx := range observations {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)

	wg.Wait()
	close(results)

	for result := range results {
		outcomes[result.idx] = result.outcome
		profile.Add(result.scaled)
	}
	return outcomes, profile
}

func (o *Orchestrator) matchOne(obs common.IngredientObservation, idx int) matchResult {
	if !obs.Valid() {
		return matchResult{
			idx: idx,
			outcome: common.MatchOutcome{
				Ingredient: obs,
				Status:     common.MatchStatusInvalid,
				Reason:     "quantity must be greater than zero",
			},
		}
	}

	outcome := o.matcher.Match(obs)
	result := matchResult{idx: idx, outcome: outcome}
	if outcome.Contributes() && outcome.FoodID != nil {
		if record, exists := o.index.Lookup(*outcome.FoodID); exists {
			result.scaled = nutrient.Scale(record.NutrientsPer100, obs.QuantityGrams)
		}
	}
	return result
}

func (o *Orchestrator) buildRecord(recordID string, seq uint64, observations []common.IngredientObservation, outcomes []common.MatchOutcome, profile nutrient.Profile) *Record {
	ingredients := make([]IngredientProvenance, len(outcomes))
	matched := 0
	for i, outcome := range outcomes {
		ingredients[i] = IngredientProvenance{
			RawName:       observations[i].RawName,
			QuantityGrams: observations[i].QuantityGrams,
			Status:        outcome.Status,
			FoodID:        outcome.FoodID,
			Confidence:    outcome.Confidence,
		}
		if outcome.Status == common.MatchStatusMatched {
			matched++
		}
	}

	status := StatusEnriched
	if matched == 0 {
		status = StatusNoData
	}

	return &Record{
		RecordID:    recordID,
		Status:      status,
		Profile:     profile,
		Ingredients: ingredients,
		EnrichedAt:  o.now().UTC(),
		Seq:         seq,
	}
}

func (o *Orchestrator) claimSeq(recordID string) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextSeq[recordID]++
	return o.nextSeq[recordID]
}

func (o *Orchestrator) trackRun(recordID, runID string, cancelRun context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inflight[recordID] == nil {
		o.inflight[recordID] = make(map[string]context.CancelFunc)
	}
	o.inflight[recordID][runID] = cancelRun
}

func (o *Orchestrator) untrackRun(recordID, runID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if runs := o.inflight[recordID]; runs != nil {
		if cancelRun, exists := runs[runID]; exists {
			cancelRun()
			delete(runs, runID)
		}
		if len(runs) == 0 {
			delete(o.inflight, recordID)
		}
	}
}

func (o *Orchestrator) notify(ctx context.Context, event Event) {
	if o.notifier == nil {
		return
	}
	o.notifier.NotifyEnriched(ctx, event)
}

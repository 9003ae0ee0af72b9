package enrichment

import (
	"context"
	"time"

	"nutrition-insight/internal/pkg/common"

	"go.uber.org/zap"
)

// Event 補全完成事件
type Event struct {
	RecordID     string    `json:"record_id"`
	RunID        string    `json:"run_id"`
	Status       Status    `json:"status"`
	MatchedCount int       `json:"matched_count"`
	TotalCount   int       `json:"total_count"`
	EnrichedAt   time.Time `json:"enriched_at"`
}

// Notifier 補全完成的通知介面，投遞失敗不影響補全結果
type Notifier interface {
	NotifyEnriched(ctx context.Context, event Event)
}

// ChannelNotifier 行程內的事件通道，佇列滿時丟棄事件
type ChannelNotifier struct {
	events chan Event
}

// NewChannelNotifier 建立通道通知器
func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelNotifier{
		events: make(chan Event, buffer),
	}
}

// NotifyEnriched 非阻塞投遞事件
func (n *ChannelNotifier) NotifyEnriched(ctx context.Context, event Event) {
	select {
	case n.events <- event:
	default:
		common.LogWarn("事件通道已滿，丟棄補全事件",
			zap.String("record_id", event.RecordID),
			zap.String("run_id", event.RunID))
	}
}

// Events 事件接收端
func (n *ChannelNotifier) Events() <-chan Event {
	return n.events
}

// MultiNotifier 依序廣播給多個通知器
type MultiNotifier []Notifier

// NotifyEnriched 廣播事件
func (m MultiNotifier) NotifyEnriched(ctx context.Context, event Event) {
	for _, n := range m {
		n.NotifyEnriched(ctx, event)
	}
}

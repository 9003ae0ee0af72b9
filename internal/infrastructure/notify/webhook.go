package notify

import (
	"context"
	"net/http"
	"time"

	"nutrition-insight/internal/core/enrichment"
	"nutrition-insight/internal/infrastructure/config"
	"nutrition-insight/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookNotifier 以 HTTP POST 投遞補全完成事件
// 投遞失敗只記錄日誌，不影響補全結果
type WebhookNotifier struct {
	client *resty.Client
	url    string
}

// NewWebhookNotifier 建立 webhook 通知器
func NewWebhookNotifier(cfg *config.NotifyConfig) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json")

	return &WebhookNotifier{
		client: client,
		url:    cfg.WebhookURL,
	}
}

// NotifyEnriched 投遞補全完成事件
func (n *WebhookNotifier) NotifyEnriched(ctx context.Context, event enrichment.Event) {
	if n.url == "" {
		return
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(event).
		Post(n.url)
	if err != nil {
		common.LogWarn("webhook 投遞失敗",
			zap.String("record_id", event.RecordID),
			zap.String("run_id", event.RunID),
			zap.Error(err))
		return
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		common.LogWarn("webhook 回應異常",
			zap.String("record_id", event.RecordID),
			zap.Int("status", resp.StatusCode()))
	}
}

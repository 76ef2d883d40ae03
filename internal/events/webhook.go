package events

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// SignatureHeader carries hex(HMAC-SHA256(secret, body)) when a secret is configured.
const SignatureHeader = "X-Signature"

// WebhookPublisher 以 HTTP POST 推送事件到外部系统（失败重试 3 次）
type WebhookPublisher struct {
	httpClient *resty.Client
	url        string
	secret     []byte
	logger     *zap.Logger
}

func NewWebhookPublisher(url, secret string, logger *zap.Logger) *WebhookPublisher {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json")

	return &WebhookPublisher{
		httpClient: client,
		url:        url,
		secret:     []byte(secret),
		logger:     logger,
	}
}

func (p *WebhookPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	req := p.httpClient.R().
		SetContext(ctx).
		SetHeader("X-Event-Type", e.Type).
		SetHeader("X-Event-ID", e.ID).
		SetBody(body)
	if len(p.secret) > 0 {
		req.SetHeader(SignatureHeader, Sign(p.secret, body))
	}

	resp, err := req.Post(p.url)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", e.Type, err)
	}
	if resp.IsError() {
		p.logger.Warn("Webhook rejected event",
			zap.String("event_type", e.Type),
			zap.Int("status_code", resp.StatusCode()),
		)
		return fmt.Errorf("webhook %s: status %d", e.Type, resp.StatusCode())
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

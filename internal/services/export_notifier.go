package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/huangang/reportportal/internal/config"
	"github.com/huangang/reportportal/pkg/logger"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body when an
// export secret is configured.
const SignatureHeader = "X-Portal-Signature"

// ExportNotifier POSTs report week events to the downstream export service
// (PDF rendering, dashboards).
type ExportNotifier struct {
	url    string
	secret string
	client *http.Client
}

func NewExportNotifier(cfg *config.ExportConfig) *ExportNotifier {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ExportNotifier{
		url:    cfg.WebhookURL,
		secret: cfg.Secret,
		client: &http.Client{Timeout: timeout},
	}
}

func (n *ExportNotifier) Enabled() bool {
	return n != nil && n.url != ""
}

// Process is a TaskProcessor.
func (n *ExportNotifier) Process(ctx context.Context, task *ReportWeekTask) error {
	if !n.Enabled() {
		logger.Debug().Str("event", task.Event).Str("report_week", task.ReportWeekID).Msg("[Export] webhook not configured, skipping")
		return nil
	}

	body, err := json.Marshal(task)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Portal-Event", task.Event)
	if n.secret != "" {
		req.Header.Set(SignatureHeader, SignPayload(n.secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("export webhook: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("export webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}

	logger.Infof("[Export] Delivered %s for report week %s (%d)", task.Event, task.ReportWeekID, resp.StatusCode)
	return nil
}

// SignPayload returns the hex HMAC-SHA256 of body under secret.
func SignPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

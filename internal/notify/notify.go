package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/yehya-dev/cosmic-crypto-webservice/internal/models"
)

// Notifier pushes execution reports to a webhook. An empty URL disables it.
type Notifier struct {
	client *resty.Client
	url    string
}

func NewNotifier(url string) *Notifier {
	client := resty.New().SetTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}).SetRetryCount(3)
	return &Notifier{client: client, url: url}
}

// Push POSTs the report as JSON. Delivery is best effort: report delivery
// happens after all orders are placed, so a failure here never affects
// execution.
func (n *Notifier) Push(ctx context.Context, report *models.ExecutionReport) error {
	if n.url == "" {
		return nil
	}
	res, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(report).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("failed to push execution report: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("webhook rejected execution report: %s", res.Status())
	}
	return nil
}

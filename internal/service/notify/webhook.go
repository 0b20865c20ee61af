package notify

import (
	"context"
	"fmt"

	"InvestAgent/internal/domain/models"
	domsvc "InvestAgent/internal/domain/service"
	xhttp "InvestAgent/pkg/http"
)

// WebhookNotifier delivers fired alert events to a configured HTTP endpoint
// as a JSON POST.
type WebhookNotifier struct {
	client *xhttp.Client
	url    string
}

func NewWebhookNotifier(client *xhttp.Client, url string) *WebhookNotifier {
	return &WebhookNotifier{client: client, url: url}
}

func (n *WebhookNotifier) Channel() string { return models.ChannelWebhook }

func (n *WebhookNotifier) Notify(ctx context.Context, ev *models.AlertEvent) error {
	if n.url == "" {
		return fmt.Errorf("webhook url not configured")
	}
	err := n.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    n.url,
		Body:   ev,
	}, nil)
	if err != nil {
		return fmt.Errorf("webhook delivery: %w", err)
	}
	return nil
}

var _ domsvc.Notifier = (*WebhookNotifier)(nil)

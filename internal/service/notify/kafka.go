package notify

import (
	"context"
	"fmt"

	"InvestAgent/internal/domain/models"
	domsvc "InvestAgent/internal/domain/service"
	pkgkafka "InvestAgent/pkg/kafka"
)

// KafkaNotifier publishes fired alert events to the alerts topic.
type KafkaNotifier struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaNotifier(producer *pkgkafka.Producer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (n *KafkaNotifier) Channel() string { return models.ChannelKafka }

func (n *KafkaNotifier) Notify(ctx context.Context, ev *models.AlertEvent) error {
	if err := n.producer.Publish(ctx, n.topic, []byte(ev.Symbol), ev); err != nil {
		return fmt.Errorf("publish alert event: %w", err)
	}
	return nil
}

var _ domsvc.Notifier = (*KafkaNotifier)(nil)

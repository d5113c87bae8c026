package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
	goredislib "github.com/redis/go-redis/v9"
)

var _ service_interfaces.Notifier = (*Notifier)(nil)

// Notifier publishes notifications as JSON on a pub/sub channel. Delivery to
// email or SMS is owned by whatever subscribes.
type Notifier struct {
	client  goredislib.UniversalClient
	channel string
}

func NewNotifier(client goredislib.UniversalClient, channel string) *Notifier {
	return &Notifier{client: client, channel: channel}
}

func (n *Notifier) Notify(ctx context.Context, notification domain.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification on %s: %w", n.channel, err)
	}
	return nil
}

package notifications

import (
	"context"

	"github.com/rameshiCode/aindependent-backend/internal/domain/notification"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

// Pusher hands a delivered notification to the outside world.
type Pusher interface {
	Push(ctx context.Context, n *notification.UserNotification) error
}

type LogPusher struct {
	log *logger.Logger
}

func NewLogPusher(log *logger.Logger) *LogPusher {
	return &LogPusher{log: log.With("component", "LogPusher")}
}

func (p *LogPusher) Push(_ context.Context, n *notification.UserNotification) error {
	p.log.Info("Push notification",
		"user_id", n.UserID,
		"notification_id", n.ID,
		"kind", n.Kind,
		"priority", n.Priority,
	)
	return nil
}

// Publisher is the subset of redisx.Client used for pub/sub pushes.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// PubSubPusher publishes each notification on notifications:<user_id>.
type PubSubPusher struct {
	pub Publisher
}

func NewPubSubPusher(pub Publisher) *PubSubPusher {
	return &PubSubPusher{pub: pub}
}

func (p *PubSubPusher) Push(ctx context.Context, n *notification.UserNotification) error {
	return p.pub.Publish(ctx, "notifications:"+n.UserID.String(), n)
}

// MultiPusher fans out to every pusher and returns the first error.
type MultiPusher []Pusher

func (m MultiPusher) Push(ctx context.Context, n *notification.UserNotification) error {
	var first error
	for _, p := range m {
		if err := p.Push(ctx, n); err != nil && first == nil {
			first = err
		}
	}
	return first
}

package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bus fans workflow events out to redis pub/sub, the stream journal and the
// in-process websocket hub.
type Bus struct {
	rdb     *redis.Client
	log     *zap.Logger
	ctx     context.Context
	wsHub   WSHub
	streams *Streams
}

type WSHub interface {
	Publish(channel string, message map[string]interface{})
}

func New(rdb *redis.Client, log *zap.Logger) *Bus {
	return &Bus{
		rdb:     rdb,
		log:     log,
		ctx:     context.Background(),
		streams: NewStreams(rdb, log),
	}
}

// SetWSHub sets the WebSocket hub for event broadcasting
func (b *Bus) SetWSHub(hub WSHub) {
	b.wsHub = hub
}

// GetStreams returns the streams journal
func (b *Bus) GetStreams() *Streams {
	return b.streams
}

// PublishRequest publishes an event to a repair request's channel
func (b *Bus) PublishRequest(requestID string, event map[string]interface{}) error {
	return b.Publish("request:"+requestID, event)
}

// PublishTask publishes an event to a task's channel
func (b *Bus) PublishTask(taskID string, event map[string]interface{}) error {
	return b.Publish("task:"+taskID, event)
}

// PublishCustomer publishes an event to a customer's channel
func (b *Bus) PublishCustomer(userID string, event map[string]interface{}) error {
	return b.Publish("customer:"+userID, event)
}

// PublishAdmin publishes an event to the shared operator/admin channel
func (b *Bus) PublishAdmin(event map[string]interface{}) error {
	return b.Publish("admin:requests", event)
}

// Publish publishes an event to a channel
func (b *Bus) Publish(channel string, event map[string]interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := b.rdb.Publish(b.ctx, channel, data).Err(); err != nil {
		b.log.Error("Failed to publish event", zap.String("channel", channel), zap.Error(err))
		return err
	}

	// Journal to redis streams for replay; pub/sub delivery already
	// succeeded, so a journal failure is not fatal.
	seq, err := b.streams.PublishEvent(channel, event)
	if err != nil {
		b.log.Warn("Failed to journal event", zap.String("channel", channel), zap.Error(err))
	}

	eventWithSeq := make(map[string]interface{}, len(event)+1)
	for k, v := range event {
		eventWithSeq[k] = v
	}
	eventWithSeq["seq"] = seq

	if b.wsHub != nil {
		b.wsHub.Publish(channel, eventWithSeq)
	}

	b.log.Debug("Published event", zap.String("channel", channel), zap.Int64("seq", seq))
	return nil
}

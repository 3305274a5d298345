package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StreamEvent is one journaled event on a channel.
type StreamEvent struct {
	Channel   string
	Sequence  int64
	Event     map[string]interface{}
	Timestamp time.Time
}

// Streams journals bus events to redis streams so websocket clients can
// replay what they missed while disconnected.
type Streams struct {
	rdb *redis.Client
	log *zap.Logger
	ctx context.Context
}

func NewStreams(rdb *redis.Client, log *zap.Logger) *Streams {
	return &Streams{
		rdb: rdb,
		log: log,
		ctx: context.Background(),
	}
}

// PublishEvent appends an event to the channel's stream and returns its
// per-channel sequence number.
func (s *Streams) PublishEvent(channel string, event map[string]interface{}) (int64, error) {
	seq, err := s.rdb.Incr(s.ctx, "seq:"+channel).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	eventWithMeta := make(map[string]interface{}, len(event)+3)
	for k, v := range event {
		eventWithMeta[k] = v
	}
	eventWithMeta["seq"] = seq
	eventWithMeta["channel"] = channel
	eventWithMeta["timestamp"] = time.Now().Format(time.RFC3339)

	data, err := json.Marshal(eventWithMeta)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = s.rdb.XAdd(s.ctx, &redis.XAddArgs{
		Stream: "stream:" + channel,
		ID:     "*",
		Values: map[string]interface{}{"data": string(data)},
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to add to stream: %w", err)
	}

	return seq, nil
}

// GetLastSequence returns the last acknowledged sequence for a connection.
func (s *Streams) GetLastSequence(channel, connectionID string) (int64, error) {
	seqStr, err := s.rdb.Get(s.ctx, "ack:"+channel+":"+connectionID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get last sequence: %w", err)
	}
	return strconv.ParseInt(seqStr, 10, 64)
}

// AcknowledgeSequence records the highest sequence a connection has seen.
func (s *Streams) AcknowledgeSequence(channel, connectionID string, sequence int64) error {
	if err := s.rdb.Set(s.ctx, "ack:"+channel+":"+connectionID, sequence, 0).Err(); err != nil {
		return fmt.Errorf("failed to acknowledge sequence: %w", err)
	}
	return nil
}

// ReplayEvents returns journaled events on a channel after sinceSeq.
func (s *Streams) ReplayEvents(channel string, sinceSeq int64, limit int64) ([]StreamEvent, error) {
	res, err := s.rdb.XRange(s.ctx, "stream:"+channel, "-", "+").Result()
	if err == redis.Nil {
		return []StreamEvent{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}

	var events []StreamEvent
	for _, msg := range res {
		data, ok := msg.Values["data"].(string)
		if !ok {
			continue
		}

		var eventData map[string]interface{}
		if err := json.Unmarshal([]byte(data), &eventData); err != nil {
			s.log.Warn("Failed to unmarshal journaled event", zap.Error(err))
			continue
		}

		seq, _ := eventData["seq"].(float64)
		if int64(seq) <= sinceSeq {
			continue
		}

		channelName, _ := eventData["channel"].(string)
		timestampStr, _ := eventData["timestamp"].(string)
		timestamp, _ := time.Parse(time.RFC3339, timestampStr)
		if timestamp.IsZero() {
			timestamp = time.Now()
		}

		event := make(map[string]interface{})
		for k, v := range eventData {
			if k != "seq" && k != "channel" && k != "timestamp" {
				event[k] = v
			}
		}

		events = append(events, StreamEvent{
			Channel:   channelName,
			Sequence:  int64(seq),
			Event:     event,
			Timestamp: timestamp,
		})
		if limit > 0 && int64(len(events)) >= limit {
			break
		}
	}

	return events, nil
}

// TrimStream caps a channel's journal length.
func (s *Streams) TrimStream(channel string, maxLen int64) error {
	return s.rdb.XTrimMaxLen(s.ctx, "stream:"+channel, maxLen).Err()
}

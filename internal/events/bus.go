// Package events carries order, payment and return events between the
// services that produce them and the background consumers that react to them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"abayaStore/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TopicOrderPlaced        = "order.placed"
	TopicOrderStatusChanged = "order.status_changed"
	TopicPaymentCompleted   = "payment.completed"
	TopicPaymentFailed      = "payment.failed"
	TopicReturnUpdated      = "return.updated"
)

// AllTopics lists every topic the bus carries.
func AllTopics() []string {
	return []string{
		TopicOrderPlaced,
		TopicOrderStatusChanged,
		TopicPaymentCompleted,
		TopicPaymentFailed,
		TopicReturnUpdated,
	}
}

type Event struct {
	Topic        string          `json:"topic"`
	OrderID      uint            `json:"order_id,omitempty"`
	OrderNumber  string          `json:"order_number,omitempty"`
	UserID       uint            `json:"user_id,omitempty"`
	ReturnID     uint            `json:"return_id,omitempty"`
	ReturnNumber string          `json:"return_number,omitempty"`
	Status       string          `json:"status,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency,omitempty"`
	Gateway      string          `json:"gateway,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// Bus is an in-process publish/subscribe channel.
type Bus struct {
	pubsub *gochannel.GoChannel
}

func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, loggerAdapter{}),
	}
}

func (b *Bus) Publish(ctx context.Context, topic string, ev Event) error {
	ev.Topic = topic
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", topic, err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.SetContext(ctx)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", topic, err)
	}
	return nil
}

// Subscribe merges the given topics into one channel. The channel closes once
// ctx is done and every topic subscription has drained.
func (b *Bus) Subscribe(ctx context.Context, topics ...string) (<-chan *message.Message, error) {
	out := make(chan *message.Message)
	var wg sync.WaitGroup

	for _, topic := range topics {
		ch, err := b.pubsub.Subscribe(ctx, topic)
		if err != nil {
			return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range ch {
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out, nil
}

func (b *Bus) Close() error {
	return b.pubsub.Close()
}

func Decode(msg *message.Message) (Event, error) {
	var ev Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return Event{}, fmt.Errorf("failed to decode event %s: %w", msg.UUID, err)
	}
	return ev, nil
}

// loggerAdapter routes watermill's own logging through pkg/logger.
type loggerAdapter struct {
	fields watermill.LogFields
}

func (l loggerAdapter) args(fields watermill.LogFields) []any {
	merged := l.fields.Add(fields)
	args := make([]any, 0, len(merged)*2)
	for k, v := range merged {
		args = append(args, k, v)
	}
	return args
}

func (l loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	logger.Error(msg, append([]any{err}, l.args(fields)...)...)
}

func (l loggerAdapter) Info(msg string, fields watermill.LogFields) {
	logger.Debug(msg, l.args(fields)...)
}

func (l loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	logger.Debug(msg, l.args(fields)...)
}

func (l loggerAdapter) Trace(string, watermill.LogFields) {}

func (l loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return loggerAdapter{fields: l.fields.Add(fields)}
}

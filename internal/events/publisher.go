package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/linemk/grocery-shop/internal/domain/models"
)

// MessageWriter часть kafka.Writer, которой пользуется Publisher
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher отправляет события жизненного цикла заказов в Kafka
type Publisher struct {
	log    *slog.Logger
	writer MessageWriter
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
}

func NewPublisher(log *slog.Logger, writer MessageWriter) *Publisher {
	return &Publisher{log: log, writer: writer}
}

func (p *Publisher) OrderCreated(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, order.ID, newOrderCreatedEvent(order))
}

func (p *Publisher) OrderCancelled(ctx context.Context, order *models.Order, reason string) error {
	return p.publish(ctx, order.ID, &OrderCancelledEvent{
		BaseEvent: newBaseEvent(EventTypeOrderCancelled),
		OrderID:   order.ID,
		UserID:    order.UserID,
		Reason:    reason,
	})
}

func (p *Publisher) OrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus) error {
	return p.publish(ctx, order.ID, &OrderStatusChangedEvent{
		BaseEvent: newBaseEvent(EventTypeOrderStatusChanged),
		OrderID:   order.ID,
		From:      string(from),
		To:        string(order.Status),
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// publish - ключ сообщения order-<id>, события одного заказа попадают в одну партицию
func (p *Publisher) publish(ctx context.Context, orderID int64, event interface{}) error {
	const op = "events.Publisher.publish"

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: failed to marshal event: %w", op, err)
	}

	key := fmt.Sprintf("order-%d", orderID)
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%s: failed to write message to kafka: %w", op, err)
	}

	p.log.Debug("event published", slog.String("op", op), slog.String("key", key), slog.String("type", fmt.Sprintf("%T", event)))
	return nil
}

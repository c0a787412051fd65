package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	TopicSessionStarted     = "session.started"
	TopicSessionEnded       = "session.ended"
	TopicSessionForceClosed = "session.force_closed"
	TopicTaskCompleted      = "task.completed"
	TopicOrderStatus        = "order.status_changed"
	TopicLowStock           = "material.low_stock"
	TopicShiftClock         = "shift.clock"
)

// Notifier — доставка уведомлений без гарантий. Ошибки доставки не возвращаются.
type Notifier interface {
	Notify(ctx context.Context, topic string, payload any)
}

type Event struct {
	ID      string    `json:"id"`
	Topic   string    `json:"topic"`
	Time    time.Time `json:"time"`
	Payload any       `json:"payload"`
}

func NewEvent(topic string, payload any) Event {
	return Event{
		ID:      uuid.NewString(),
		Topic:   topic,
		Time:    time.Now().UTC(),
		Payload: payload,
	}
}

// LogNotifier пишет уведомления в лог. Используется, когда Kafka не настроена.
type LogNotifier struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, topic string, payload any) {
	ev := NewEvent(topic, payload)
	n.log.DebugContext(ctx, "notification", slog.String("id", ev.ID), slog.String("topic", topic), slog.Any("payload", payload))
}

type KafkaNotifier struct {
	writer *kafka.Writer
	log    *slog.Logger
}

func NewKafka(brokers []string, topic string, log *slog.Logger) *KafkaNotifier {
	n := &KafkaNotifier{log: log}
	n.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				n.log.Warn("не удалось доставить уведомления", slog.Int("count", len(messages)), slog.String("error", err.Error()))
			}
		},
	}
	return n
}

func (n *KafkaNotifier) Notify(ctx context.Context, topic string, payload any) {
	const op = "notify.KafkaNotifier.Notify"

	ev := NewEvent(topic, payload)
	data, err := json.Marshal(ev)
	if err != nil {
		n.log.Error("ошибка сериализации уведомления", slog.String("op", op), slog.String("error", err.Error()))
		return
	}

	msg := kafka.Message{
		Key:   []byte(topic),
		Value: data,
		Time:  ev.Time,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(ev.ID)},
			{Key: "event-type", Value: []byte(topic)},
		},
	}

	// Async-writer не блокирует запрос, ошибки приходят в Completion
	if err := n.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		n.log.Warn("ошибка отправки уведомления", slog.String("op", op), slog.String("topic", topic), slog.String("error", err.Error()))
	}
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"custodia/internal/platform/kafka/producer"
	"custodia/internal/risk/models"
	"custodia/internal/sentinel"
	id "custodia/pkg/domain"
)

const DefaultTopic = "custodia.compliance-review"

// event is the wire shape of a notification on the topic.
type event struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	RecordID  string    `json:"record_id"`
	Recipient string    `json:"recipient"`
	Tier      string    `json:"tier"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Kafka publishes notifications keyed by record ID, so every notification
// for a record lands on the same partition in order.
type Kafka struct {
	publisher producer.Publisher
	topic     string
}

func NewKafka(publisher producer.Publisher, topic string) *Kafka {
	if publisher == nil {
		panic("notify.NewKafka: publisher is required")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	return &Kafka{publisher: publisher, topic: topic}
}

func (k *Kafka) Send(ctx context.Context, n *models.Notification) (id.NotificationID, error) {
	if n == nil {
		return id.NotificationID{}, fmt.Errorf("notification is required: %w", sentinel.ErrInvalidInput)
	}
	notificationID := n.ID
	if notificationID.IsNil() {
		notificationID = id.NewNotificationID()
	}
	value, err := json.Marshal(event{
		ID:        notificationID.String(),
		TenantID:  n.TenantID.String(),
		RecordID:  n.RecordID.String(),
		Recipient: n.Recipient,
		Tier:      string(n.Tier),
		Subject:   n.Subject,
		Body:      n.Body,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return id.NotificationID{}, fmt.Errorf("marshal notification: %w", err)
	}
	err = k.publisher.Produce(ctx, &producer.Message{
		Topic: k.topic,
		Key:   []byte(n.RecordID.String()),
		Value: value,
		Headers: map[string]string{
			"tenant_id": n.TenantID.String(),
			"tier":      string(n.Tier),
			"recipient": n.Recipient,
		},
	})
	if err != nil {
		return id.NotificationID{}, fmt.Errorf("publish notification: %w", err)
	}
	return notificationID, nil
}

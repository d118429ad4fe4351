package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"gasdelivery/internal/core/ports"
)

// NotificationMessage is consumed by the SMS gateway.
type NotificationMessage struct {
	OrderID   string `json:"orderId"`
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

// NotificationChannel is a ports.NotificationChannel backed by a topic.
type NotificationChannel struct {
	producer *Producer
}

func NewNotificationChannel(producer *Producer) *NotificationChannel {
	return &NotificationChannel{producer: producer}
}

func (c *NotificationChannel) Send(_ context.Context, notification ports.Notification) error {
	payload, err := json.Marshal(NotificationMessage{
		OrderID:   notification.OrderID.String(),
		Recipient: notification.Recipient,
		Message:   notification.Message,
	})
	if err != nil {
		return fmt.Errorf("kafka: encode notification: %w", err)
	}
	return c.producer.Publish(notification.OrderID.String(), payload)
}

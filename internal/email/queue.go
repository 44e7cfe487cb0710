package email

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher puts one encoded message on the mail queue.
// Satisfied by *rabbitmq.Publisher.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// QueueSender hands messages to cmd/mailer through the broker instead of
// talking to a mail provider directly.
type QueueSender struct {
	pub Publisher
}

func NewQueueSender(pub Publisher) *QueueSender {
	return &QueueSender{pub: pub}
}

func (s *QueueSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode mail: %w", err)
	}
	if err := s.pub.Publish(ctx, body); err != nil {
		return fmt.Errorf("publish mail: %w", err)
	}
	return nil
}

// Decode is the consumer side of QueueSender.
func Decode(body []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return Message{}, fmt.Errorf("decode mail: %w", err)
	}
	if msg.To == "" {
		return Message{}, fmt.Errorf("decode mail: missing recipient")
	}
	return msg, nil
}

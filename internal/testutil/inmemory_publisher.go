package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
)

// InMemoryPublisher implements pubsub.Publisher by recording messages per
// topic instead of delivering them.
type InMemoryPublisher struct {
	mu       sync.Mutex
	messages map[string][]*message.Message
}

func NewInMemoryPublisher() *InMemoryPublisher {
	return &InMemoryPublisher{
		messages: make(map[string][]*message.Message),
	}
}

func (p *InMemoryPublisher) Publish(ctx context.Context, topic string, msg *message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages[topic] = append(p.messages[topic], msg)
	return nil
}

func (p *InMemoryPublisher) Close() error {
	return nil
}

// Messages returns every message published to a topic.
func (p *InMemoryPublisher) Messages(topic string) []*message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*message.Message(nil), p.messages[topic]...)
}

// DecodeAll unmarshals every payload on a topic into values of type T.
func DecodeAll[T any](p *InMemoryPublisher, topic string) ([]T, error) {
	msgs := p.Messages(topic)
	out := make([]T, 0, len(msgs))
	for _, msg := range msgs {
		var v T
		if err := json.Unmarshal(msg.Payload, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (p *InMemoryPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = make(map[string][]*message.Message)
}

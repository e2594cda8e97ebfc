package messaging

import (
	"context"
	"sync"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Envelope is the shape every outbox event is published in.
type Envelope struct {
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// MemoryBroker records publishes in process. It backs the worker when no
// Redis address is configured and doubles as a test broker.
type MemoryBroker struct {
	mu        sync.Mutex
	published map[string][]interface{}
	subs      map[string][]chan []byte
	// Fail, when set, is returned by every Publish.
	Fail error
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		published: make(map[string][]interface{}),
		subs:      make(map[string][]chan []byte),
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Fail != nil {
		return b.Fail
	}
	b.published[channel] = append(b.published[channel], message)
	return nil
}

// Subscribe is not wired for the in-process broker; the channel closes with ctx.
func (b *MemoryBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (b *MemoryBroker) Close() error { return nil }

// Published returns a copy of what was published on channel.
func (b *MemoryBroker) Published(channel string) []interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]interface{}, len(b.published[channel]))
	copy(out, b.published[channel])
	return out
}

// Package pubsub holds the event broker implementations: an in-process
// broadcaster, Redis pub/sub and a RabbitMQ direct exchange.
package pubsub

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

type memSub struct {
	ch chan []byte
}

// Memory fans payloads out to subscribers of the same process. A subscriber
// whose buffer is full misses the payload.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string]map[*memSub]struct{}
	buffer int
	logger *logrus.Logger
}

func NewMemory(buffer int, logger *logrus.Logger) *Memory {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Memory{subs: map[string]map[*memSub]struct{}{}, buffer: buffer, logger: logger}
}

func (m *Memory) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for sub := range m.subs[channel] {
		select {
		case sub.ch <- payload:
		default:
			if m.logger != nil {
				m.logger.WithField("channel", channel).Warn("subscriber buffer full, event dropped")
			}
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := &memSub{ch: make(chan []byte, m.buffer)}
	m.mu.Lock()
	if m.subs[channel] == nil {
		m.subs[channel] = map[*memSub]struct{}{}
	}
	m.subs[channel][sub] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs[channel], sub)
		if len(m.subs[channel]) == 0 {
			delete(m.subs, channel)
		}
		close(sub.ch)
		m.mu.Unlock()
	}()
	return sub.ch, nil
}

// Subscribers reports the number of live subscriptions on channel.
func (m *Memory) Subscribers(channel string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[channel])
}

package pubsub

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Redis maps broker channels onto Redis pub/sub channels under a prefix,
// which lets several API instances share events.
type Redis struct {
	client *redis.Client
	prefix string
	buffer int
	logger *logrus.Logger
}

func NewRedis(client *redis.Client, prefix string, buffer int, logger *logrus.Logger) *Redis {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Redis{client: client, prefix: prefix, buffer: buffer, logger: logger}
}

func (r *Redis) Publish(ctx context.Context, channel string, payload []byte) error {
	return r.client.Publish(ctx, r.prefix+channel, payload).Err()
}

func (r *Redis) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ps := r.client.Subscribe(ctx, r.prefix+channel)
	// wait for the subscription confirmation so no event published after
	// Subscribe returns is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	out := make(chan []byte, r.buffer)
	go func() {
		defer close(out)
		defer func() { _ = ps.Close() }()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					if r.logger != nil {
						r.logger.WithField("channel", channel).Warn("redis subscription closed")
					}
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

package pubsub

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const DefaultBuffer = 64

// Broker is the publish/subscribe capability every implementation offers.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// Options configures New.
type Options struct {
	Driver   string // memory | redis | amqp
	Redis    *redis.Client
	Prefix   string
	AMQPURL  string
	Exchange string
	Buffer   int
	Logger   *logrus.Logger
}

// New builds the broker selected by opts.Driver. The returned close func
// releases connections owned by the broker.
func New(opts Options) (Broker, func(), error) {
	switch strings.ToLower(opts.Driver) {
	case "", "memory":
		return NewMemory(opts.Buffer, opts.Logger), func() {}, nil
	case "redis":
		if opts.Redis == nil {
			return nil, nil, fmt.Errorf("redis broker: no redis client")
		}
		return NewRedis(opts.Redis, opts.Prefix, opts.Buffer, opts.Logger), func() {}, nil
	case "amqp", "rabbitmq":
		b, err := NewAMQP(opts.AMQPURL, opts.Exchange, opts.Buffer, opts.Logger)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown broker driver %q", opts.Driver)
}

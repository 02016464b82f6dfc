package container

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-graphql-blog/config"
	"github.com/oksasatya/go-graphql-blog/internal/application"
	repo "github.com/oksasatya/go-graphql-blog/internal/domain/repository"
	"github.com/oksasatya/go-graphql-blog/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-graphql-blog/internal/infrastructure/postgres"
	"github.com/oksasatya/go-graphql-blog/internal/infrastructure/pubsub"
	"github.com/oksasatya/go-graphql-blog/internal/infrastructure/search"
	gql "github.com/oksasatya/go-graphql-blog/internal/interface/graphql"
	"github.com/oksasatya/go-graphql-blog/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router wires its modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client

	jwtManager *helpers.JWTManager
	broker     pubsub.Broker
	service    *application.Service
	schema     *graphql.Schema

	rabbitPub *helpers.RabbitPublisher
	esClient  *elasticsearch.Client
)

func SetConfig(c *config.Config)              { cfg = c }
func GetConfig() *config.Config               { return cfg }
func SetLogger(l *logrus.Logger)              { logger = l }
func GetLogger() *logrus.Logger               { return logger }
func SetPGPool(p *pgxpool.Pool)               { pgPool = p }
func GetPGPool() *pgxpool.Pool                { return pgPool }
func SetRedis(r *redis.Client)                { redisClient = r }
func GetRedis() *redis.Client                 { return redisClient }
func SetJWT(m *helpers.JWTManager)            { jwtManager = m }
func GetJWT() *helpers.JWTManager             { return jwtManager }
func SetBroker(b pubsub.Broker)               { broker = b }
func GetBroker() pubsub.Broker                { return broker }
func SetService(s *application.Service)       { service = s }
func GetService() *application.Service        { return service }
func SetSchema(s *graphql.Schema)             { schema = s }
func GetSchema() *graphql.Schema              { return schema }
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }

// Build constructs every component selected by c and stores it in the
// container. The returned func releases connections in reverse order.
func Build(ctx context.Context, c *config.Config, l *logrus.Logger) (func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (func(), error) {
		cleanup()
		return nil, err
	}

	SetConfig(c)
	SetLogger(l)
	SetJWT(helpers.NewJWTManager(c.JWTSecret, c.JWTTTL))

	if c.NeedsRedis() {
		rdb := helpers.NewRedisClient(c.RedisAddr, c.RedisPassword, c.RedisDB)
		if err := helpers.PingRedis(ctx, rdb); err != nil {
			_ = rdb.Close()
			if c.BrokerDriver == "redis" {
				return fail(fmt.Errorf("redis: %w", err))
			}
			// only the rate limiter wanted it; it fails open
			l.WithError(err).Warn("redis unavailable, rate limiting disabled")
		} else {
			SetRedis(rdb)
			closers = append(closers, func() { _ = rdb.Close() })
		}
	}

	users, posts, comments, err := buildStore(ctx, c, l, &closers)
	if err != nil {
		return fail(err)
	}

	b, closeBroker, err := pubsub.New(pubsub.Options{
		Driver:   c.BrokerDriver,
		Redis:    GetRedis(),
		Prefix:   c.RedisChannelPrefix,
		AMQPURL:  c.RabbitMQURL,
		Exchange: c.RabbitMQEventsExchange,
		Buffer:   c.BrokerBuffer,
		Logger:   l,
	})
	if err != nil {
		return fail(fmt.Errorf("broker: %w", err))
	}
	closers = append(closers, closeBroker)
	SetBroker(b)

	svc := application.NewService(users, posts, comments, GetJWT(), helpers.NewBcryptHasher(c.BcryptCost), b, l)
	svc.Policy = application.PasswordPolicy{MinLength: c.PasswordMinLength, ForbidWord: c.PasswordForbidWord}
	svc.AppName = c.AppName

	if c.SearchEnabled {
		es, err := helpers.NewESClient(c.ESAddrs(), c.ElasticsearchUser, c.ElasticsearchPass)
		if err != nil {
			return fail(fmt.Errorf("elasticsearch: %w", err))
		}
		idx := search.NewPostIndex(es, c.ESPostsIndex)
		if err := idx.EnsureIndex(ctx); err != nil {
			l.WithError(err).WithField("index", c.ESPostsIndex).Warn("ensure search index failed")
		}
		SetES(es)
		svc.Indexer = idx
	}

	if c.MailSendEnabled {
		pub, err := helpers.NewRabbitPublisher(c.RabbitMQURL, c.RabbitMQEmailQueue)
		if err != nil {
			l.WithError(err).Warn("rabbitmq unavailable, welcome emails disabled")
		} else {
			SetRabbitPub(pub)
			closers = append(closers, pub.Close)
			svc.Mail = pub
		}
	}
	SetService(svc)

	s, err := gql.NewSchema(svc, l)
	if err != nil {
		return fail(fmt.Errorf("graphql schema: %w", err))
	}
	SetSchema(s)

	helpers.LogInfo(l, "container built", logrus.Fields{
		"store":  c.StoreDriver,
		"broker": c.BrokerDriver,
		"search": c.SearchEnabled,
		"mail":   svc.Mail != nil,
	})
	return cleanup, nil
}

func buildStore(ctx context.Context, c *config.Config, l *logrus.Logger, closers *[]func()) (repo.UserRepository, repo.PostRepository, repo.CommentRepository, error) {
	switch c.StoreDriver {
	case "", "memory":
		store := memory.NewStore()
		return store.Users(), store.Posts(), store.Comments(), nil
	case "postgres":
		if c.AutoMigrate {
			if err := pginfra.Migrate(c.PostgresDSN(), c.MigrationsDir, l); err != nil {
				return nil, nil, nil, fmt.Errorf("migrate: %w", err)
			}
		}
		pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{
			DSN:             c.PostgresDSN(),
			MaxConns:        c.DBMaxConns,
			MinConns:        c.DBMinConns,
			MaxConnLifetime: c.DBMaxConnLife,
		}, l)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("postgres: %w", err)
		}
		SetPGPool(pool)
		*closers = append(*closers, pool.Close)
		return pginfra.NewUserRepository(pool), pginfra.NewPostRepository(pool), pginfra.NewCommentRepository(pool), nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store driver %q", c.StoreDriver)
}

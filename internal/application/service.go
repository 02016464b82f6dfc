package application

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-graphql-blog/internal/domain/entity"
	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
	repo "github.com/oksasatya/go-graphql-blog/internal/domain/repository"
	"github.com/oksasatya/go-graphql-blog/pkg/helpers"
	"github.com/oksasatya/go-graphql-blog/pkg/validation"
)

// PasswordHasher is a one-way, cost-factored hash.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) bool
}

// Broker is a named-channel publish/subscribe transport with at-most-once
// delivery to currently connected listeners. Subscribe's channel is closed
// once ctx is done.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// PostIndexer mirrors published posts into a search index.
type PostIndexer interface {
	IndexPost(ctx context.Context, p *entity.Post) error
	RemovePost(ctx context.Context, id string) error
}

// EmailQueue enqueues mail jobs for the email worker.
type EmailQueue interface {
	PublishJSON(ctx context.Context, body any) error
}

// Service is the entity rule engine. Optional collaborators (Indexer, Mail)
// may be left nil.
type Service struct {
	Users    repo.UserRepository
	Posts    repo.PostRepository
	Comments repo.CommentRepository

	Identity *Identity
	Tokens   TokenService
	Hasher   PasswordHasher
	Broker   Broker
	Policy   PasswordPolicy
	Validate *validator.Validate
	Logger   *logrus.Logger

	Indexer PostIndexer
	Mail    EmailQueue
	AppName string
}

func NewService(users repo.UserRepository, posts repo.PostRepository, comments repo.CommentRepository, tokens TokenService, hasher PasswordHasher, broker Broker, logger *logrus.Logger) *Service {
	return &Service{
		Users:    users,
		Posts:    posts,
		Comments: comments,
		Identity: NewIdentity(tokens),
		Tokens:   tokens,
		Hasher:   hasher,
		Broker:   broker,
		Policy:   DefaultPasswordPolicy,
		Validate: validation.New(),
		Logger:   logger,
	}
}

// Viewer returns the optional principal of the call.
func (s *Service) Viewer(ctx context.Context) (string, error) {
	return s.Identity.Principal(ctx, false)
}

// PageInput is the pagination part of a listing call.
type PageInput struct {
	First   int
	Skip    int
	After   string
	OrderBy string
}

func pageFor(fields filter.Schema, in PageInput) (repo.Page, error) {
	if in.First < 0 || in.Skip < 0 {
		return repo.Page{}, invalidInput(map[string]string{"pagination": "first and skip must not be negative"})
	}
	order, err := fields.ParseOrder(in.OrderBy)
	if err != nil {
		return repo.Page{}, invalidInput(map[string]string{"orderBy": err.Error()})
	}
	return repo.Page{First: in.First, Skip: in.Skip, After: in.After, OrderBy: order}, nil
}

func (s *Service) validateStruct(v any) error {
	if s.Validate == nil {
		return nil
	}
	if err := s.Validate.Struct(v); err != nil {
		return invalidInput(validation.ToDetails(err))
	}
	return nil
}

func (s *Service) warn(err error, msg string, fields logrus.Fields) {
	helpers.LogWarn(s.Logger, msg, err, fields)
}

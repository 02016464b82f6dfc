// Package graphql exposes the blog over a schema-first GraphQL API.
package graphql

import (
	"context"
	_ "embed"
	"errors"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-graphql-blog/internal/application"
	"github.com/oksasatya/go-graphql-blog/pkg/helpers"
)

//go:embed schema.graphql
var schemaSDL string

// MaxDepth bounds query nesting (user -> posts -> comments -> author ...).
const MaxDepth = 12

func NewSchema(svc *application.Service, logger *logrus.Logger) (*graphql.Schema, error) {
	return graphql.ParseSchema(schemaSDL, NewResolver(svc, logger),
		graphql.MaxDepth(MaxDepth),
		graphql.Logger(panicLogger{logger}),
	)
}

type panicLogger struct {
	logger *logrus.Logger
}

func (l panicLogger) LogPanic(_ context.Context, value interface{}) {
	if l.logger != nil {
		l.logger.WithField("panic", value).Error("graphql resolver panic")
	}
}

// internalError hides store and transport failures from API callers.
type internalError struct{}

func (internalError) Error() string { return "internal server error" }

func (internalError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": "INTERNAL_SERVER_ERROR"}
}

// Resolver is the root resolver. Query, mutation and subscription fields are
// served by separate resolvers since Query.post and Subscription.post differ.
type Resolver struct {
	svc    *application.Service
	logger *logrus.Logger
}

func NewResolver(svc *application.Service, logger *logrus.Logger) *Resolver {
	return &Resolver{svc: svc, logger: logger}
}

func (r *Resolver) Query() *queryResolver               { return &queryResolver{r} }
func (r *Resolver) Mutation() *mutationResolver         { return &mutationResolver{r} }
func (r *Resolver) Subscription() *subscriptionResolver { return &subscriptionResolver{r} }

// fail passes rule-engine errors through and masks everything else.
func (r *Resolver) fail(err error) error {
	var appErr *application.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	helpers.LogError(r.logger, "graphql operation failed", err, nil)
	return internalError{}
}

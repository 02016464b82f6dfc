package repository

import (
	"context"

	"github.com/oksasatya/go-graphql-blog/internal/domain/entity"
	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
)

type CommentRepository interface {
	Create(ctx context.Context, c *entity.Comment) error
	FindOne(ctx context.Context, where filter.Expr) (*entity.Comment, error)
	Find(ctx context.Context, q Query) ([]*entity.Comment, error)
	Update(ctx context.Context, c *entity.Comment) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, where filter.Expr) (int, error)
	Exists(ctx context.Context, where filter.Expr) (bool, error)
	Count(ctx context.Context, where filter.Expr) (int, error)
}

package repository

import (
	"context"

	"github.com/oksasatya/go-graphql-blog/internal/domain/entity"
	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
)

type PostRepository interface {
	Create(ctx context.Context, p *entity.Post) error
	FindOne(ctx context.Context, where filter.Expr) (*entity.Post, error)
	Find(ctx context.Context, q Query) ([]*entity.Post, error)
	Update(ctx context.Context, p *entity.Post) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, where filter.Expr) (int, error)
	Exists(ctx context.Context, where filter.Expr) (bool, error)
	Count(ctx context.Context, where filter.Expr) (int, error)
}

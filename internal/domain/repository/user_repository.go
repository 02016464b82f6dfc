package repository

import (
	"context"

	"github.com/oksasatya/go-graphql-blog/internal/domain/entity"
	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
)

// UserRepository defines the data store operations for users.
// Create and Update return ErrConflict when the email is already used.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	FindOne(ctx context.Context, where filter.Expr) (*entity.User, error)
	Find(ctx context.Context, q Query) ([]*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, where filter.Expr) (bool, error)
	Count(ctx context.Context, where filter.Expr) (int, error)
}

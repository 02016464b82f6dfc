package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-graphql-blog/internal/domain/entity"
	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
	"github.com/oksasatya/go-graphql-blog/internal/domain/repository"
)

const userColumns = "t.id, t.name, t.email, t.password_hash, t.age, t.created_at, t.updated_at"

type UserRepository struct {
	base
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{base{db: pool, t: usersTable}}
}

func scanUser(row scanner) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Age, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, age)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, u.Name, u.Email, u.Password, u.Age)
	return mapError(row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt))
}

func (r *UserRepository) FindOne(ctx context.Context, where filter.Expr) (*entity.User, error) {
	return findOne(ctx, r.base, userColumns, where, scanUser)
}

func (r *UserRepository) Find(ctx context.Context, q repository.Query) ([]*entity.User, error) {
	return findAll(ctx, r.base, userColumns, q, scanUser)
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		UPDATE users
		SET name = $2, email = $3, password_hash = $4, age = $5, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, u.ID, u.Name, u.Email, u.Password, u.Age)
	return mapError(row.Scan(&u.CreatedAt, &u.UpdatedAt))
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, id)
}

func (r *UserRepository) Exists(ctx context.Context, where filter.Expr) (bool, error) {
	return r.exists(ctx, where)
}

func (r *UserRepository) Count(ctx context.Context, where filter.Expr) (int, error) {
	return r.count(ctx, where)
}

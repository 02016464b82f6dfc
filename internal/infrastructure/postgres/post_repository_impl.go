package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-graphql-blog/internal/domain/entity"
	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
	"github.com/oksasatya/go-graphql-blog/internal/domain/repository"
)

const postColumns = "t.id, t.title, t.body, t.published, t.author_id, t.created_at, t.updated_at"

type PostRepository struct {
	base
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{base{db: pool, t: postsTable}}
}

func scanPost(row scanner) (*entity.Post, error) {
	p := &entity.Post{}
	if err := row.Scan(&p.ID, &p.Title, &p.Body, &p.Published, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *PostRepository) Create(ctx context.Context, p *entity.Post) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO posts (title, body, published, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, p.Title, p.Body, p.Published, p.AuthorID)
	return mapError(row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt))
}

func (r *PostRepository) FindOne(ctx context.Context, where filter.Expr) (*entity.Post, error) {
	return findOne(ctx, r.base, postColumns, where, scanPost)
}

func (r *PostRepository) Find(ctx context.Context, q repository.Query) ([]*entity.Post, error) {
	return findAll(ctx, r.base, postColumns, q, scanPost)
}

// Update writes the mutable fields. author_id is never changed.
func (r *PostRepository) Update(ctx context.Context, p *entity.Post) error {
	row := r.db.QueryRow(ctx, `
		UPDATE posts
		SET title = $2, body = $3, published = $4, updated_at = now()
		WHERE id = $1
		RETURNING author_id, created_at, updated_at
	`, p.ID, p.Title, p.Body, p.Published)
	return mapError(row.Scan(&p.AuthorID, &p.CreatedAt, &p.UpdatedAt))
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, id)
}

func (r *PostRepository) DeleteMany(ctx context.Context, where filter.Expr) (int, error) {
	return r.deleteMany(ctx, where)
}

func (r *PostRepository) Exists(ctx context.Context, where filter.Expr) (bool, error) {
	return r.exists(ctx, where)
}

func (r *PostRepository) Count(ctx context.Context, where filter.Expr) (int, error) {
	return r.count(ctx, where)
}

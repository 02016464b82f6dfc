package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-graphql-blog/internal/domain/entity"
	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
	"github.com/oksasatya/go-graphql-blog/internal/domain/repository"
)

const commentColumns = "t.id, t.text, t.author_id, t.post_id, t.created_at, t.updated_at"

type CommentRepository struct {
	base
}

func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{base{db: pool, t: commentsTable}}
}

func scanComment(row scanner) (*entity.Comment, error) {
	c := &entity.Comment{}
	if err := row.Scan(&c.ID, &c.Text, &c.AuthorID, &c.PostID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

func (r *CommentRepository) Create(ctx context.Context, c *entity.Comment) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO comments (text, author_id, post_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, c.Text, c.AuthorID, c.PostID)
	return mapError(row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt))
}

func (r *CommentRepository) FindOne(ctx context.Context, where filter.Expr) (*entity.Comment, error) {
	return findOne(ctx, r.base, commentColumns, where, scanComment)
}

func (r *CommentRepository) Find(ctx context.Context, q repository.Query) ([]*entity.Comment, error) {
	return findAll(ctx, r.base, commentColumns, q, scanComment)
}

func (r *CommentRepository) Update(ctx context.Context, c *entity.Comment) error {
	row := r.db.QueryRow(ctx, `
		UPDATE comments
		SET text = $2, updated_at = now()
		WHERE id = $1
		RETURNING author_id, post_id, created_at, updated_at
	`, c.ID, c.Text)
	return mapError(row.Scan(&c.AuthorID, &c.PostID, &c.CreatedAt, &c.UpdatedAt))
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, id)
}

func (r *CommentRepository) DeleteMany(ctx context.Context, where filter.Expr) (int, error) {
	return r.deleteMany(ctx, where)
}

func (r *CommentRepository) Exists(ctx context.Context, where filter.Expr) (bool, error) {
	return r.exists(ctx, where)
}

func (r *CommentRepository) Count(ctx context.Context, where filter.Expr) (int, error) {
	return r.count(ctx, where)
}

var (
	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.PostRepository    = (*PostRepository)(nil)
	_ repository.CommentRepository = (*CommentRepository)(nil)
)

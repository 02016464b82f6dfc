// Package memory is an in-process data store. It backs tests and the
// STORE_DRIVER=memory development mode.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-graphql-blog/internal/domain/entity"
	"github.com/oksasatya/go-graphql-blog/internal/domain/repository"
)

type Store struct {
	mu       sync.RWMutex
	users    *table[*entity.User]
	posts    *table[*entity.Post]
	comments *table[*entity.Comment]

	now   func() time.Time
	newID func() string
}

func NewStore() *Store {
	return &Store{
		users:    newTable[*entity.User](entity.UserFields),
		posts:    newTable[*entity.Post](entity.PostFields),
		comments: newTable[*entity.Comment](entity.CommentFields),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{collection[*entity.User]{s: s, t: s.users}}
}

func (s *Store) Posts() *PostRepository {
	return &PostRepository{collection[*entity.Post]{s: s, t: s.posts}}
}

func (s *Store) Comments() *CommentRepository {
	return &CommentRepository{collection[*entity.Comment]{s: s, t: s.comments}}
}

type UserRepository struct {
	collection[*entity.User]
}

func (r *UserRepository) emailTaken(email, exceptID string) bool {
	for id, u := range r.t.rows {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.emailTaken(u.Email, "") {
		return repository.ErrConflict
	}
	now := r.s.now()
	u.ID = r.s.newID()
	u.CreatedAt, u.UpdatedAt = now, now
	r.t.insert(u.Clone())
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.t.rows[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return repository.ErrConflict
	}
	u.CreatedAt = cur.CreatedAt
	u.UpdatedAt = r.s.now()
	r.t.insert(u.Clone())
	return nil
}

type PostRepository struct {
	collection[*entity.Post]
}

func (r *PostRepository) Create(ctx context.Context, p *entity.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users.rows[p.AuthorID]; !ok {
		return repository.ErrNotFound
	}
	now := r.s.now()
	p.ID = r.s.newID()
	p.CreatedAt, p.UpdatedAt = now, now
	r.t.insert(p.Clone())
	return nil
}

func (r *PostRepository) Update(ctx context.Context, p *entity.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.t.rows[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.AuthorID = cur.AuthorID
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = r.s.now()
	r.t.insert(p.Clone())
	return nil
}

type CommentRepository struct {
	collection[*entity.Comment]
}

func (r *CommentRepository) Create(ctx context.Context, c *entity.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users.rows[c.AuthorID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.s.posts.rows[c.PostID]; !ok {
		return repository.ErrNotFound
	}
	now := r.s.now()
	c.ID = r.s.newID()
	c.CreatedAt, c.UpdatedAt = now, now
	r.t.insert(c.Clone())
	return nil
}

func (r *CommentRepository) Update(ctx context.Context, c *entity.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.t.rows[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	c.AuthorID, c.PostID = cur.AuthorID, cur.PostID
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = r.s.now()
	r.t.insert(c.Clone())
	return nil
}

var (
	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.PostRepository    = (*PostRepository)(nil)
	_ repository.CommentRepository = (*CommentRepository)(nil)
)

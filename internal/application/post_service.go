package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-graphql-blog/internal/domain/entity"
	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
	repo "github.com/oksasatya/go-graphql-blog/internal/domain/repository"
	"github.com/oksasatya/go-graphql-blog/pkg/optional"
)

type CreatePostInput struct {
	Title     string `json:"title" validate:"required"`
	Body      string `json:"body" validate:"notblank"`
	Published bool   `json:"published"`
}

type UpdatePostInput struct {
	Title     optional.Value[string]
	Body      optional.Value[string]
	Published optional.Value[bool]
}

func (s *Service) CreatePost(ctx context.Context, in CreatePostInput) (*entity.Post, error) {
	uid, err := s.Identity.Principal(ctx, true)
	if err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}
	p := &entity.Post{Title: in.Title, Body: in.Body, Published: in.Published, AuthorID: uid}
	if err := s.Posts.Create(ctx, p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("create post: %w", err)
	}
	if p.Published {
		s.publishPost(ctx, entity.MutationCreated, p)
		s.index(ctx, p)
	}
	return p, nil
}

// ownPost loads a post the principal may mutate. Missing and foreign posts
// are both reported as ErrPermissionDenied.
func (s *Service) ownPost(ctx context.Context, id string) (*entity.Post, error) {
	uid, err := s.Identity.Principal(ctx, true)
	if err != nil {
		return nil, err
	}
	p, err := s.Posts.FindOne(ctx, filter.Eq("id", id))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPermissionDenied
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	if p.AuthorID != uid {
		return nil, ErrPermissionDenied
	}
	return p, nil
}

// UpdatePost applies a partial update. Unpublishing removes the post's
// comments before the post itself is written.
func (s *Service) UpdatePost(ctx context.Context, id string, in UpdatePostInput) (*entity.Post, error) {
	p, err := s.ownPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if title, ok := in.Title.Get(); ok && strings.TrimSpace(title) == "" {
		return nil, invalidInput(map[string]string{"title": "is required"})
	}
	before := p.Clone()

	if title, ok := in.Title.Get(); ok {
		p.Title = strings.TrimSpace(title)
	}
	if body, ok := in.Body.Get(); ok {
		p.Body = body
	}
	if published, ok := in.Published.Get(); ok {
		p.Published = published
	}
	// Comments go first: a failed cascade must leave the post published.
	if before.Published && !p.Published {
		n, err := s.Comments.DeleteMany(ctx, filter.Eq("post", p.ID))
		if err != nil {
			return nil, fmt.Errorf("delete comments: %w", err)
		}
		if s.Logger != nil && n > 0 {
			s.Logger.WithFields(logrus.Fields{"post_id": p.ID, "comments": n}).Debug("post unpublished, comments removed")
		}
	}
	if err := s.Posts.Update(ctx, p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("update post: %w", err)
	}

	if kind, node, ok := ClassifyPostUpdate(before, p, in.Published.IsSet()); ok {
		s.publishPost(ctx, kind, node)
	}
	switch {
	case p.Published:
		s.index(ctx, p)
	case before.Published:
		s.unindex(ctx, p.ID)
	}
	return p, nil
}

// DeletePost removes the post and its comments and returns the removed post.
func (s *Service) DeletePost(ctx context.Context, id string) (*entity.Post, error) {
	p, err := s.ownPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.Comments.DeleteMany(ctx, filter.Eq("post", p.ID)); err != nil {
		return nil, fmt.Errorf("delete comments: %w", err)
	}
	if err := s.Posts.Delete(ctx, p.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("delete post: %w", err)
	}
	if p.Published {
		s.publishPost(ctx, entity.MutationDeleted, p)
		s.unindex(ctx, p.ID)
	}
	return p, nil
}

func searchPosts(query string) filter.Expr {
	if query == "" {
		return nil
	}
	return filter.Any(filter.Contains("title", query), filter.Contains("body", query))
}

// ListPosts lists published posts, optionally matching query in title or body.
func (s *Service) ListPosts(ctx context.Context, query string, page PageInput) ([]*entity.Post, error) {
	if _, err := s.Viewer(ctx); err != nil {
		return nil, err
	}
	p, err := pageFor(entity.PostFields, page)
	if err != nil {
		return nil, err
	}
	where := filter.All(filter.Eq("published", true), searchPosts(query))
	return s.Posts.Find(ctx, repo.Query{Where: where, Page: p})
}

// MyPosts lists the principal's posts, drafts included.
func (s *Service) MyPosts(ctx context.Context, query string, page PageInput) ([]*entity.Post, error) {
	uid, err := s.Identity.Principal(ctx, true)
	if err != nil {
		return nil, err
	}
	p, err := pageFor(entity.PostFields, page)
	if err != nil {
		return nil, err
	}
	where := filter.All(filter.Eq("author", uid), searchPosts(query))
	return s.Posts.Find(ctx, repo.Query{Where: where, Page: p})
}

// Post returns a single post if the viewer may read it.
func (s *Service) Post(ctx context.Context, id string) (*entity.Post, error) {
	viewer, err := s.Viewer(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.PostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.VisibleTo(viewer) {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) PostByID(ctx context.Context, id string) (*entity.Post, error) {
	p, err := s.Posts.FindOne(ctx, filter.Eq("id", id))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

// PostsByAuthor resolves User.posts: the author sees drafts, others only
// published posts.
func (s *Service) PostsByAuthor(ctx context.Context, authorID string) ([]*entity.Post, error) {
	viewer, err := s.Viewer(ctx)
	if err != nil {
		return nil, err
	}
	where := filter.Expr(filter.Eq("author", authorID))
	if viewer != authorID {
		where = filter.All(where, filter.Eq("published", true))
	}
	return s.Posts.Find(ctx, repo.Query{Where: where})
}

func (s *Service) index(ctx context.Context, p *entity.Post) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.IndexPost(ctx, p); err != nil {
		s.warn(err, "index post failed", logrus.Fields{"post_id": p.ID})
	}
}

func (s *Service) unindex(ctx context.Context, id string) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.RemovePost(ctx, id); err != nil {
		s.warn(err, "remove post from index failed", logrus.Fields{"post_id": id})
	}
}

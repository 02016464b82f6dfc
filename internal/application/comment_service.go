package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oksasatya/go-graphql-blog/internal/domain/entity"
	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
	repo "github.com/oksasatya/go-graphql-blog/internal/domain/repository"
)

type CreateCommentInput struct {
	Text   string `json:"text" validate:"required"`
	PostID string `json:"post" validate:"required"`
}

// CreateComment adds a comment to a published post.
func (s *Service) CreateComment(ctx context.Context, in CreateCommentInput) (*entity.Comment, error) {
	uid, err := s.Identity.Principal(ctx, true)
	if err != nil {
		return nil, err
	}
	in.Text = strings.TrimSpace(in.Text)
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}
	ok, err := s.Posts.Exists(ctx, filter.All(filter.Eq("id", in.PostID), filter.Eq("published", true)))
	if err != nil {
		return nil, fmt.Errorf("check post: %w", err)
	}
	if !ok {
		return nil, ErrCommentOnUnpublished
	}
	c := &entity.Comment{Text: in.Text, AuthorID: uid, PostID: in.PostID}
	if err := s.Comments.Create(ctx, c); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCommentOnUnpublished
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}
	s.publishComment(ctx, entity.MutationCreated, c)
	return c, nil
}

func (s *Service) ownComment(ctx context.Context, id string) (*entity.Comment, error) {
	uid, err := s.Identity.Principal(ctx, true)
	if err != nil {
		return nil, err
	}
	c, err := s.Comments.FindOne(ctx, filter.Eq("id", id))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPermissionDenied
	}
	if err != nil {
		return nil, fmt.Errorf("find comment: %w", err)
	}
	if c.AuthorID != uid {
		return nil, ErrPermissionDenied
	}
	return c, nil
}

func (s *Service) UpdateComment(ctx context.Context, id, text string) (*entity.Comment, error) {
	c, err := s.ownComment(ctx, id)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidInput(map[string]string{"text": "is required"})
	}
	c.Text = text
	if err := s.Comments.Update(ctx, c); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("update comment: %w", err)
	}
	s.publishComment(ctx, entity.MutationUpdated, c)
	return c, nil
}

func (s *Service) DeleteComment(ctx context.Context, id string) (*entity.Comment, error) {
	c, err := s.ownComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Comments.Delete(ctx, c.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("delete comment: %w", err)
	}
	s.publishComment(ctx, entity.MutationDeleted, c)
	return c, nil
}

func (s *Service) ListComments(ctx context.Context, page PageInput) ([]*entity.Comment, error) {
	if _, err := s.Viewer(ctx); err != nil {
		return nil, err
	}
	p, err := pageFor(entity.CommentFields, page)
	if err != nil {
		return nil, err
	}
	return s.Comments.Find(ctx, repo.Query{Page: p})
}

func (s *Service) CommentsByPost(ctx context.Context, postID string) ([]*entity.Comment, error) {
	return s.Comments.Find(ctx, repo.Query{Where: filter.Eq("post", postID)})
}

func (s *Service) CommentsByAuthor(ctx context.Context, authorID string) ([]*entity.Comment, error) {
	return s.Comments.Find(ctx, repo.Query{Where: filter.Eq("author", authorID)})
}

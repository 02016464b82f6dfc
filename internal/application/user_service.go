package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-graphql-blog/internal/domain/entity"
	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
	repo "github.com/oksasatya/go-graphql-blog/internal/domain/repository"
	"github.com/oksasatya/go-graphql-blog/pkg/mailer"
	"github.com/oksasatya/go-graphql-blog/pkg/optional"
)

type CreateUserInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password"`
	Age      *int   `json:"age" validate:"omitempty,gte=0"`
}

type LoginInput struct {
	Email    string
	Password string
}

// UpdateUserInput is a partial update; unset fields are left untouched.
// Age set to nil clears it.
type UpdateUserInput struct {
	Name     optional.Value[string]
	Email    optional.Value[string]
	Age      optional.Value[*int]
	Password optional.Value[string]
}

type AuthPayload struct {
	User      *entity.User
	Token     string
	ExpiresAt time.Time
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser signs a new user up and returns a session token for it.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*AuthPayload, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}
	if err := s.Policy.Check(in.Password); err != nil {
		return nil, err
	}
	taken, err := s.Users.Exists(ctx, filter.Eq("email", in.Email))
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}
	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{Name: in.Name, Email: in.Email, Password: hash, Age: in.Age}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	payload, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	s.enqueueWelcome(ctx, u)
	return payload, nil
}

// Login checks credentials. Unknown email and wrong password fail with the
// same error.
func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthPayload, error) {
	u, err := s.Users.FindOne(ctx, filter.Eq("email", normalizeEmail(in.Email)))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrAuthenticationFailed
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !s.Hasher.Compare(u.Password, in.Password) {
		return nil, ErrAuthenticationFailed
	}
	return s.issue(u)
}

func (s *Service) issue(u *entity.User) (*AuthPayload, error) {
	token, exp, err := s.Tokens.GenerateToken(u.ID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate token failed")
		}
		return nil, err
	}
	return &AuthPayload{User: u, Token: token, ExpiresAt: exp}, nil
}

func (s *Service) enqueueWelcome(ctx context.Context, u *entity.User) {
	if s.Mail == nil {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: mailer.TemplateWelcome,
		Data:     map[string]any{"Name": u.Name, "AppName": s.AppName},
	}
	if err := s.Mail.PublishJSON(ctx, job); err != nil {
		s.warn(err, "enqueue welcome email failed", logrus.Fields{"user_id": u.ID})
	}
}

// self loads the principal's own user record. A token for a user that no
// longer exists is treated as a permission failure.
func (s *Service) self(ctx context.Context) (*entity.User, error) {
	uid, err := s.Identity.Principal(ctx, true)
	if err != nil {
		return nil, err
	}
	u, err := s.Users.FindOne(ctx, filter.Eq("id", uid))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPermissionDenied
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *Service) UpdateUser(ctx context.Context, in UpdateUserInput) (*entity.User, error) {
	u, err := s.self(ctx)
	if err != nil {
		return nil, err
	}

	details := map[string]string{}
	if name, ok := in.Name.Get(); ok {
		name = strings.TrimSpace(name)
		if name == "" {
			details["name"] = "is required"
		}
		in.Name = optional.Of(name)
	}
	if email, ok := in.Email.Get(); ok {
		email = normalizeEmail(email)
		if s.Validate != nil && s.Validate.Var(email, "required,email") != nil {
			details["email"] = "must be a valid email"
		}
		in.Email = optional.Of(email)
	}
	if age, ok := in.Age.Get(); ok && age != nil && *age < 0 {
		details["age"] = "must be greater than or equal to 0"
	}
	if len(details) > 0 {
		return nil, invalidInput(details)
	}
	if pwd, ok := in.Password.Get(); ok {
		if err := s.Policy.Check(pwd); err != nil {
			return nil, err
		}
	}
	if email, ok := in.Email.Get(); ok && email != u.Email {
		taken, err := s.Users.Exists(ctx, filter.All(filter.Eq("email", email), filter.Neq("id", u.ID)))
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken {
			return nil, ErrEmailTaken
		}
	}

	if name, ok := in.Name.Get(); ok {
		u.Name = name
	}
	if email, ok := in.Email.Get(); ok {
		u.Email = email
	}
	if age, ok := in.Age.Get(); ok {
		u.Age = age
	}
	if pwd, ok := in.Password.Get(); ok {
		hash, err := s.Hasher.Hash(pwd)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.Password = hash
	}
	if err := s.Users.Update(ctx, u); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, ErrEmailTaken
		}
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// DeleteUser removes the principal together with its posts, the comments on
// those posts and its own comments. No event is published.
func (s *Service) DeleteUser(ctx context.Context) (*entity.User, error) {
	u, err := s.self(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := s.Posts.Find(ctx, repo.Query{Where: filter.Eq("author", u.ID)})
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	postIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
	}
	where := filter.Any(filter.Eq("author", u.ID), filter.InStrings("post", postIDs))
	if _, err := s.Comments.DeleteMany(ctx, where); err != nil {
		return nil, fmt.Errorf("delete comments: %w", err)
	}
	if _, err := s.Posts.DeleteMany(ctx, filter.Eq("author", u.ID)); err != nil {
		return nil, fmt.Errorf("delete posts: %w", err)
	}
	if err := s.Users.Delete(ctx, u.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	for _, p := range posts {
		if p.Published {
			s.unindex(ctx, p.ID)
		}
	}
	return u, nil
}

func (s *Service) Me(ctx context.Context) (*entity.User, error) {
	uid, err := s.Identity.Principal(ctx, true)
	if err != nil {
		return nil, err
	}
	return s.UserByID(ctx, uid)
}

// ListUsers lists users, optionally filtered by a case-insensitive name match.
func (s *Service) ListUsers(ctx context.Context, query string, page PageInput) ([]*entity.User, error) {
	if _, err := s.Viewer(ctx); err != nil {
		return nil, err
	}
	p, err := pageFor(entity.UserOrderFields, page)
	if err != nil {
		return nil, err
	}
	var where filter.Expr
	if query != "" {
		where = filter.Contains("name", query)
	}
	return s.Users.Find(ctx, repo.Query{Where: where, Page: p})
}

func (s *Service) UserByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Users.FindOne(ctx, filter.Eq("id", id))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}

// VisibleEmail returns the user's email only when the viewer is that user.
func (s *Service) VisibleEmail(ctx context.Context, u *entity.User) (*string, error) {
	viewer, err := s.Viewer(ctx)
	if err != nil {
		return nil, err
	}
	if viewer == "" || viewer != u.ID {
		return nil, nil
	}
	email := u.Email
	return &email, nil
}

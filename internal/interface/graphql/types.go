package graphql

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/oksasatya/go-graphql-blog/internal/application"
	"github.com/oksasatya/go-graphql-blog/internal/domain/entity"
)

type userResolver struct {
	r *Resolver
	u *entity.User
}

func (x *userResolver) ID() graphql.ID          { return graphql.ID(x.u.ID) }
func (x *userResolver) Name() string            { return x.u.Name }
func (x *userResolver) CreatedAt() graphql.Time { return graphql.Time{Time: x.u.CreatedAt} }
func (x *userResolver) UpdatedAt() graphql.Time { return graphql.Time{Time: x.u.UpdatedAt} }

func (x *userResolver) Email(ctx context.Context) (*string, error) {
	email, err := x.r.svc.VisibleEmail(ctx, x.u)
	if err != nil {
		return nil, x.r.fail(err)
	}
	return email, nil
}

func (x *userResolver) Age() *int32 {
	if x.u.Age == nil {
		return nil
	}
	age := int32(*x.u.Age)
	return &age
}

func (x *userResolver) Posts(ctx context.Context) ([]*postResolver, error) {
	posts, err := x.r.svc.PostsByAuthor(ctx, x.u.ID)
	if err != nil {
		return nil, x.r.fail(err)
	}
	return x.r.posts(posts), nil
}

func (x *userResolver) Comments(ctx context.Context) ([]*commentResolver, error) {
	comments, err := x.r.svc.CommentsByAuthor(ctx, x.u.ID)
	if err != nil {
		return nil, x.r.fail(err)
	}
	return x.r.comments(comments), nil
}

type postResolver struct {
	r *Resolver
	p *entity.Post
}

func (x *postResolver) ID() graphql.ID          { return graphql.ID(x.p.ID) }
func (x *postResolver) Title() string           { return x.p.Title }
func (x *postResolver) Body() string            { return x.p.Body }
func (x *postResolver) Published() bool         { return x.p.Published }
func (x *postResolver) CreatedAt() graphql.Time { return graphql.Time{Time: x.p.CreatedAt} }
func (x *postResolver) UpdatedAt() graphql.Time { return graphql.Time{Time: x.p.UpdatedAt} }

func (x *postResolver) Author(ctx context.Context) (*userResolver, error) {
	u, err := x.r.svc.UserByID(ctx, x.p.AuthorID)
	if err != nil {
		return nil, x.r.fail(err)
	}
	return &userResolver{x.r, u}, nil
}

func (x *postResolver) Comments(ctx context.Context) ([]*commentResolver, error) {
	comments, err := x.r.svc.CommentsByPost(ctx, x.p.ID)
	if err != nil {
		return nil, x.r.fail(err)
	}
	return x.r.comments(comments), nil
}

type commentResolver struct {
	r *Resolver
	c *entity.Comment
}

func (x *commentResolver) ID() graphql.ID          { return graphql.ID(x.c.ID) }
func (x *commentResolver) Text() string            { return x.c.Text }
func (x *commentResolver) CreatedAt() graphql.Time { return graphql.Time{Time: x.c.CreatedAt} }
func (x *commentResolver) UpdatedAt() graphql.Time { return graphql.Time{Time: x.c.UpdatedAt} }

func (x *commentResolver) Author(ctx context.Context) (*userResolver, error) {
	u, err := x.r.svc.UserByID(ctx, x.c.AuthorID)
	if err != nil {
		return nil, x.r.fail(err)
	}
	return &userResolver{x.r, u}, nil
}

func (x *commentResolver) Post(ctx context.Context) (*postResolver, error) {
	p, err := x.r.svc.PostByID(ctx, x.c.PostID)
	if err != nil {
		return nil, x.r.fail(err)
	}
	return &postResolver{x.r, p}, nil
}

type authPayloadResolver struct {
	r *Resolver
	a *application.AuthPayload
}

func (x *authPayloadResolver) Token() string           { return x.a.Token }
func (x *authPayloadResolver) ExpiresAt() graphql.Time { return graphql.Time{Time: x.a.ExpiresAt} }
func (x *authPayloadResolver) User() *userResolver     { return &userResolver{x.r, x.a.User} }

type postEventResolver struct {
	r  *Resolver
	ev entity.PostEvent
}

func (x *postEventResolver) Mutation() string    { return string(x.ev.Mutation) }
func (x *postEventResolver) Node() *postResolver { return &postResolver{x.r, x.ev.Node} }

type commentEventResolver struct {
	r  *Resolver
	ev entity.CommentEvent
}

func (x *commentEventResolver) Mutation() string       { return string(x.ev.Mutation) }
func (x *commentEventResolver) Node() *commentResolver { return &commentResolver{x.r, x.ev.Node} }

func (r *Resolver) users(in []*entity.User) []*userResolver {
	out := make([]*userResolver, 0, len(in))
	for _, u := range in {
		out = append(out, &userResolver{r, u})
	}
	return out
}

func (r *Resolver) posts(in []*entity.Post) []*postResolver {
	out := make([]*postResolver, 0, len(in))
	for _, p := range in {
		out = append(out, &postResolver{r, p})
	}
	return out
}

func (r *Resolver) comments(in []*entity.Comment) []*commentResolver {
	out := make([]*commentResolver, 0, len(in))
	for _, c := range in {
		out = append(out, &commentResolver{r, c})
	}
	return out
}

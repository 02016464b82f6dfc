package graphql

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/oksasatya/go-graphql-blog/internal/application"
	"github.com/oksasatya/go-graphql-blog/pkg/optional"
)

type mutationResolver struct {
	*Resolver
}

type createUserInput struct {
	Name     string
	Email    string
	Password string
	Age      *int32
}

type loginInput struct {
	Email    string
	Password string
}

// Update inputs use the Null* wrappers so an omitted field can be told
// apart from an explicit null.
type updateUserInput struct {
	Name     graphql.NullString
	Email    graphql.NullString
	Password graphql.NullString
	Age      graphql.NullInt
}

type createPostInput struct {
	Title     string
	Body      string
	Published bool
}

type updatePostInput struct {
	Title     graphql.NullString
	Body      graphql.NullString
	Published graphql.NullBool
}

type createCommentInput struct {
	Text string
	Post graphql.ID
}

type updateCommentInput struct {
	Text *string
}

// present converts a nullable input field; an explicit null counts as absent
// for non-nullable targets.
func present[T any](set bool, v *T) optional.Value[T] {
	if !set || v == nil {
		return optional.Value[T]{}
	}
	return optional.Of(*v)
}

func (m *mutationResolver) CreateUser(ctx context.Context, args struct{ Data createUserInput }) (*authPayloadResolver, error) {
	in := application.CreateUserInput{Name: args.Data.Name, Email: args.Data.Email, Password: args.Data.Password}
	if args.Data.Age != nil {
		age := int(*args.Data.Age)
		in.Age = &age
	}
	res, err := m.svc.CreateUser(ctx, in)
	if err != nil {
		return nil, m.fail(err)
	}
	return &authPayloadResolver{m.Resolver, res}, nil
}

func (m *mutationResolver) Login(ctx context.Context, args struct{ Data loginInput }) (*authPayloadResolver, error) {
	res, err := m.svc.Login(ctx, application.LoginInput{Email: args.Data.Email, Password: args.Data.Password})
	if err != nil {
		return nil, m.fail(err)
	}
	return &authPayloadResolver{m.Resolver, res}, nil
}

func (m *mutationResolver) UpdateUser(ctx context.Context, args struct{ Data updateUserInput }) (*userResolver, error) {
	d := args.Data
	in := application.UpdateUserInput{
		Name:     present(d.Name.Set, d.Name.Value),
		Email:    present(d.Email.Set, d.Email.Value),
		Password: present(d.Password.Set, d.Password.Value),
	}
	if d.Age.Set {
		var age *int
		if d.Age.Value != nil {
			v := int(*d.Age.Value)
			age = &v
		}
		in.Age = optional.Of(age)
	}
	u, err := m.svc.UpdateUser(ctx, in)
	if err != nil {
		return nil, m.fail(err)
	}
	return &userResolver{m.Resolver, u}, nil
}

func (m *mutationResolver) DeleteUser(ctx context.Context) (*userResolver, error) {
	u, err := m.svc.DeleteUser(ctx)
	if err != nil {
		return nil, m.fail(err)
	}
	return &userResolver{m.Resolver, u}, nil
}

func (m *mutationResolver) CreatePost(ctx context.Context, args struct{ Data createPostInput }) (*postResolver, error) {
	p, err := m.svc.CreatePost(ctx, application.CreatePostInput{
		Title:     args.Data.Title,
		Body:      args.Data.Body,
		Published: args.Data.Published,
	})
	if err != nil {
		return nil, m.fail(err)
	}
	return &postResolver{m.Resolver, p}, nil
}

func (m *mutationResolver) UpdatePost(ctx context.Context, args struct {
	ID   graphql.ID
	Data updatePostInput
}) (*postResolver, error) {
	d := args.Data
	p, err := m.svc.UpdatePost(ctx, string(args.ID), application.UpdatePostInput{
		Title:     present(d.Title.Set, d.Title.Value),
		Body:      present(d.Body.Set, d.Body.Value),
		Published: present(d.Published.Set, d.Published.Value),
	})
	if err != nil {
		return nil, m.fail(err)
	}
	return &postResolver{m.Resolver, p}, nil
}

func (m *mutationResolver) DeletePost(ctx context.Context, args struct{ ID graphql.ID }) (*postResolver, error) {
	p, err := m.svc.DeletePost(ctx, string(args.ID))
	if err != nil {
		return nil, m.fail(err)
	}
	return &postResolver{m.Resolver, p}, nil
}

func (m *mutationResolver) CreateComment(ctx context.Context, args struct{ Data createCommentInput }) (*commentResolver, error) {
	c, err := m.svc.CreateComment(ctx, application.CreateCommentInput{Text: args.Data.Text, PostID: string(args.Data.Post)})
	if err != nil {
		return nil, m.fail(err)
	}
	return &commentResolver{m.Resolver, c}, nil
}

func (m *mutationResolver) UpdateComment(ctx context.Context, args struct {
	ID   graphql.ID
	Data updateCommentInput
}) (*commentResolver, error) {
	c, err := m.svc.UpdateComment(ctx, string(args.ID), deref(args.Data.Text))
	if err != nil {
		return nil, m.fail(err)
	}
	return &commentResolver{m.Resolver, c}, nil
}

func (m *mutationResolver) DeleteComment(ctx context.Context, args struct{ ID graphql.ID }) (*commentResolver, error) {
	c, err := m.svc.DeleteComment(ctx, string(args.ID))
	if err != nil {
		return nil, m.fail(err)
	}
	return &commentResolver{m.Resolver, c}, nil
}

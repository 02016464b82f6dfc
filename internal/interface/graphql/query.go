package graphql

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/oksasatya/go-graphql-blog/internal/application"
)

type queryResolver struct {
	*Resolver
}

type listArgs struct {
	Query   *string
	First   *int32
	Skip    *int32
	After   *string
	OrderBy *string
}

type pageArgs struct {
	First   *int32
	Skip    *int32
	After   *string
	OrderBy *string
}

func pageInput(first, skip *int32, after, orderBy *string) application.PageInput {
	var in application.PageInput
	if first != nil {
		in.First = int(*first)
	}
	if skip != nil {
		in.Skip = int(*skip)
	}
	if after != nil {
		in.After = *after
	}
	if orderBy != nil {
		in.OrderBy = *orderBy
	}
	return in
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (q *queryResolver) Users(ctx context.Context, args listArgs) ([]*userResolver, error) {
	users, err := q.svc.ListUsers(ctx, deref(args.Query), pageInput(args.First, args.Skip, args.After, args.OrderBy))
	if err != nil {
		return nil, q.fail(err)
	}
	return q.users(users), nil
}

func (q *queryResolver) Posts(ctx context.Context, args listArgs) ([]*postResolver, error) {
	posts, err := q.svc.ListPosts(ctx, deref(args.Query), pageInput(args.First, args.Skip, args.After, args.OrderBy))
	if err != nil {
		return nil, q.fail(err)
	}
	return q.posts(posts), nil
}

func (q *queryResolver) MyPosts(ctx context.Context, args listArgs) ([]*postResolver, error) {
	posts, err := q.svc.MyPosts(ctx, deref(args.Query), pageInput(args.First, args.Skip, args.After, args.OrderBy))
	if err != nil {
		return nil, q.fail(err)
	}
	return q.posts(posts), nil
}

func (q *queryResolver) Post(ctx context.Context, args struct{ ID graphql.ID }) (*postResolver, error) {
	p, err := q.svc.Post(ctx, string(args.ID))
	if err != nil {
		return nil, q.fail(err)
	}
	return &postResolver{q.Resolver, p}, nil
}

func (q *queryResolver) Comments(ctx context.Context, args pageArgs) ([]*commentResolver, error) {
	comments, err := q.svc.ListComments(ctx, pageInput(args.First, args.Skip, args.After, args.OrderBy))
	if err != nil {
		return nil, q.fail(err)
	}
	return q.comments(comments), nil
}

func (q *queryResolver) Me(ctx context.Context) (*userResolver, error) {
	u, err := q.svc.Me(ctx)
	if err != nil {
		return nil, q.fail(err)
	}
	return &userResolver{q.Resolver, u}, nil
}

package graphql

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"
)

type subscriptionResolver struct {
	*Resolver
}

func (s *subscriptionResolver) Post(ctx context.Context) (<-chan *postEventResolver, error) {
	events, err := s.svc.SubscribePosts(ctx)
	if err != nil {
		return nil, s.fail(err)
	}
	out := make(chan *postEventResolver)
	go func() {
		defer close(out)
		for ev := range events {
			select {
			case out <- &postEventResolver{s.Resolver, ev}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *subscriptionResolver) Comment(ctx context.Context, args struct{ PostID graphql.ID }) (<-chan *commentEventResolver, error) {
	events, err := s.svc.SubscribeComments(ctx, string(args.PostID))
	if err != nil {
		return nil, s.fail(err)
	}
	out := make(chan *commentEventResolver)
	go func() {
		defer close(out)
		for ev := range events {
			select {
			case out <- &commentEventResolver{s.Resolver, ev}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

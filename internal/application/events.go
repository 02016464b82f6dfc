package application

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-graphql-blog/internal/domain/entity"
	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
)

// ClassifyPostUpdate decides which event an update produces. before and after
// are the snapshots around the write; publishedSet reports whether the input
// carried the published field. ok is false when no event is due.
func ClassifyPostUpdate(before, after *entity.Post, publishedSet bool) (kind entity.MutationKind, node *entity.Post, ok bool) {
	if !publishedSet {
		return "", nil, false
	}
	switch {
	case before.Published && !after.Published:
		return entity.MutationDeleted, before, true
	case !before.Published && after.Published:
		return entity.MutationCreated, after, true
	case before.Published && after.Published:
		return entity.MutationUpdated, after, true
	}
	return "", nil, false
}

func (s *Service) publishPost(ctx context.Context, kind entity.MutationKind, p *entity.Post) {
	s.publish(ctx, entity.PostChannel, entity.PostEvent{Mutation: kind, Node: p})
}

func (s *Service) publishComment(ctx context.Context, kind entity.MutationKind, c *entity.Comment) {
	s.publish(ctx, entity.CommentChannel(c.PostID), entity.CommentEvent{Mutation: kind, Node: c})
}

// publish is best effort: the mutation has already been applied, so a broker
// failure is logged and swallowed.
func (s *Service) publish(ctx context.Context, channel string, event any) {
	if s.Broker == nil {
		return
	}
	b, err := json.Marshal(event)
	if err != nil {
		s.warn(err, "encode event failed", logrus.Fields{"channel": channel})
		return
	}
	if err := s.Broker.Publish(ctx, channel, b); err != nil {
		s.warn(err, "publish event failed", logrus.Fields{"channel": channel})
	}
}

// SubscribePosts streams change events of published posts until ctx ends.
func (s *Service) SubscribePosts(ctx context.Context) (<-chan entity.PostEvent, error) {
	raw, err := s.Broker.Subscribe(ctx, entity.PostChannel)
	if err != nil {
		return nil, err
	}
	return decodeStream[entity.PostEvent](ctx, s, entity.PostChannel, raw), nil
}

// SubscribeComments streams comment events of one post. The post must exist
// and be published.
func (s *Service) SubscribeComments(ctx context.Context, postID string) (<-chan entity.CommentEvent, error) {
	ok, err := s.Posts.Exists(ctx, filter.All(filter.Eq("id", postID), filter.Eq("published", true)))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	channel := entity.CommentChannel(postID)
	raw, err := s.Broker.Subscribe(ctx, channel)
	if err != nil {
		return nil, err
	}
	return decodeStream[entity.CommentEvent](ctx, s, channel, raw), nil
}

func decodeStream[T any](ctx context.Context, s *Service, channel string, raw <-chan []byte) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for b := range raw {
			var ev T
			if err := json.Unmarshal(b, &ev); err != nil {
				s.warn(err, "decode event failed", logrus.Fields{"channel": channel})
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-graphql-blog/internal/application"
	"github.com/oksasatya/go-graphql-blog/internal/domain/entity"
	"github.com/oksasatya/go-graphql-blog/internal/infrastructure/memory"
	"github.com/oksasatya/go-graphql-blog/internal/infrastructure/pubsub"
	"github.com/oksasatya/go-graphql-blog/pkg/helpers"
)

type published struct {
	channel string
	payload []byte
}

// recordingBroker remembers every publish and forwards it to an in-process
// broker so subscriptions still work.
type recordingBroker struct {
	*pubsub.Memory
	mu   sync.Mutex
	msgs []published
	fail error
}

func (b *recordingBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	b.msgs = append(b.msgs, published{channel, payload})
	fail := b.fail
	b.mu.Unlock()
	if fail != nil {
		return fail
	}
	return b.Memory.Publish(ctx, channel, payload)
}

func (b *recordingBroker) postEvents(t *testing.T) []entity.PostEvent {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []entity.PostEvent
	for _, m := range b.msgs {
		if m.channel != entity.PostChannel {
			continue
		}
		var ev entity.PostEvent
		require.NoError(t, json.Unmarshal(m.payload, &ev))
		out = append(out, ev)
	}
	return out
}

func (b *recordingBroker) commentEvents(t *testing.T, postID string) []entity.CommentEvent {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []entity.CommentEvent
	for _, m := range b.msgs {
		if m.channel != entity.CommentChannel(postID) {
			continue
		}
		var ev entity.CommentEvent
		require.NoError(t, json.Unmarshal(m.payload, &ev))
		out = append(out, ev)
	}
	return out
}

func (b *recordingBroker) reset() {
	b.mu.Lock()
	b.msgs = nil
	b.mu.Unlock()
}

type fakeIndexer struct {
	docs map[string]*entity.Post
}

func (f *fakeIndexer) IndexPost(_ context.Context, p *entity.Post) error {
	f.docs[p.ID] = p.Clone()
	return nil
}

func (f *fakeIndexer) RemovePost(_ context.Context, id string) error {
	delete(f.docs, id)
	return nil
}

type fakeQueue struct {
	jobs []any
	err  error
}

func (q *fakeQueue) PublishJSON(_ context.Context, body any) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, body)
	return nil
}

type fixture struct {
	svc     *application.Service
	store   *memory.Store
	broker  *recordingBroker
	indexer *fakeIndexer
	mail    *fakeQueue
	tokens  *helpers.JWTManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	broker := &recordingBroker{Memory: pubsub.NewMemory(8, nil)}
	tokens := helpers.NewJWTManager("test-secret", time.Hour)
	svc := application.NewService(store.Users(), store.Posts(), store.Comments(), tokens,
		helpers.NewBcryptHasher(bcrypt.MinCost), broker, helpers.NewDiscardLogger())
	f := &fixture{
		svc:     svc,
		store:   store,
		broker:  broker,
		indexer: &fakeIndexer{docs: map[string]*entity.Post{}},
		mail:    &fakeQueue{},
		tokens:  tokens,
	}
	svc.Indexer = f.indexer
	svc.Mail = f.mail
	svc.AppName = "Blog"
	return f
}

// signup creates a user and returns it with a context authenticated as it.
func (f *fixture) signup(t *testing.T, name, email string) (*entity.User, context.Context) {
	t.Helper()
	res, err := f.svc.CreateUser(context.Background(), application.CreateUserInput{
		Name:     name,
		Email:    email,
		Password: "guadalupana",
	})
	require.NoError(t, err)
	return res.User, authed(res.Token)
}

func authed(token string) context.Context {
	return application.WithRequestCredential(context.Background(), "Bearer "+token)
}

func (f *fixture) post(t *testing.T, ctx context.Context, title string, published bool) *entity.Post {
	t.Helper()
	p, err := f.svc.CreatePost(ctx, application.CreatePostInput{Title: title, Body: title + " body", Published: published})
	require.NoError(t, err)
	return p
}

func (f *fixture) comment(t *testing.T, ctx context.Context, postID, text string) *entity.Comment {
	t.Helper()
	c, err := f.svc.CreateComment(ctx, application.CreateCommentInput{PostID: postID, Text: text})
	require.NoError(t, err)
	return c
}

func code(err error) string {
	var e *application.Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

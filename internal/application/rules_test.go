package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-graphql-blog/internal/application"
	"github.com/oksasatya/go-graphql-blog/internal/domain/entity"
	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
	"github.com/oksasatya/go-graphql-blog/pkg/optional"
)

func TestOwnershipEnforced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, owner := f.signup(t, "Owner", "owner@x.com")
	_, other := f.signup(t, "Other", "other@x.com")
	p := f.post(t, owner, "mine", true)
	c := f.comment(t, owner, p.ID, "mine too")

	_, err := f.svc.UpdatePost(other, p.ID, application.UpdatePostInput{Body: optional.Of("hacked")})
	assert.ErrorIs(t, err, application.ErrPermissionDenied)
	_, err = f.svc.DeletePost(other, p.ID)
	assert.ErrorIs(t, err, application.ErrPermissionDenied)
	_, err = f.svc.UpdateComment(other, c.ID, "hacked")
	assert.ErrorIs(t, err, application.ErrPermissionDenied)
	_, err = f.svc.DeleteComment(other, c.ID)
	assert.ErrorIs(t, err, application.ErrPermissionDenied)

	gotPost, err := f.store.Posts().FindOne(ctx, filter.Eq("id", p.ID))
	require.NoError(t, err)
	assert.Equal(t, p, gotPost)
	gotComment, err := f.store.Comments().FindOne(ctx, filter.Eq("id", c.ID))
	require.NoError(t, err)
	assert.Equal(t, c, gotComment)
}

func TestMissingTargetIsPermissionDenied(t *testing.T) {
	f := newFixture(t)
	_, u := f.signup(t, "U", "u@x.com")

	_, err := f.svc.UpdatePost(u, "nope", application.UpdatePostInput{})
	assert.ErrorIs(t, err, application.ErrPermissionDenied)
	_, err = f.svc.DeletePost(u, "nope")
	assert.ErrorIs(t, err, application.ErrPermissionDenied)
	_, err = f.svc.UpdateComment(u, "nope", "x")
	assert.ErrorIs(t, err, application.ErrPermissionDenied)
	_, err = f.svc.DeleteComment(u, "nope")
	assert.ErrorIs(t, err, application.ErrPermissionDenied)
}

func TestMutationsRequireAuthentication(t *testing.T) {
	f := newFixture(t)
	anon := context.Background()
	bad := application.WithRequestCredential(anon, "Bearer not-a-token")

	for _, ctx := range []context.Context{anon, bad} {
		_, err := f.svc.CreatePost(ctx, application.CreatePostInput{Title: "t", Body: "b"})
		assert.ErrorIs(t, err, application.ErrAuthenticationRequired)
		_, err = f.svc.CreateComment(ctx, application.CreateCommentInput{PostID: "p", Text: "t"})
		assert.ErrorIs(t, err, application.ErrAuthenticationRequired)
		_, err = f.svc.UpdateUser(ctx, application.UpdateUserInput{})
		assert.ErrorIs(t, err, application.ErrAuthenticationRequired)
		_, err = f.svc.DeleteUser(ctx)
		assert.ErrorIs(t, err, application.ErrAuthenticationRequired)
		_, err = f.svc.Me(ctx)
		assert.ErrorIs(t, err, application.ErrAuthenticationRequired)
		_, err = f.svc.MyPosts(ctx, "", application.PageInput{})
		assert.ErrorIs(t, err, application.ErrAuthenticationRequired)
	}

	// Optional-auth reads still reject a bad credential.
	_, err := f.svc.ListPosts(bad, "", application.PageInput{})
	assert.ErrorIs(t, err, application.ErrAuthenticationRequired)
	_, err = f.svc.ListPosts(anon, "", application.PageInput{})
	assert.NoError(t, err)
}

func TestUpdatePostTransitions(t *testing.T) {
	tests := []struct {
		name      string
		initial   bool
		published optional.Value[bool]
		want      entity.MutationKind
		wantTitle string
	}{
		{"published to draft", true, optional.Of(false), entity.MutationDeleted, "before"},
		{"draft to published", false, optional.Of(true), entity.MutationCreated, "after"},
		{"published stays published", true, optional.Of(true), entity.MutationUpdated, "after"},
		{"draft stays draft", false, optional.Of(false), "", ""},
		{"published field absent", true, optional.Value[bool]{}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, u := f.signup(t, "U", "u@x.com")
			p := f.post(t, u, "before", tt.initial)
			f.broker.reset()

			_, err := f.svc.UpdatePost(u, p.ID, application.UpdatePostInput{
				Title:     optional.Of("after"),
				Published: tt.published,
			})
			require.NoError(t, err)

			events := f.broker.postEvents(t)
			if tt.want == "" {
				assert.Empty(t, events)
				return
			}
			require.Len(t, events, 1)
			assert.Equal(t, tt.want, events[0].Mutation)
			assert.Equal(t, tt.wantTitle, events[0].Node.Title)
		})
	}
}

func TestClassifyPostUpdate(t *testing.T) {
	pub := &entity.Post{ID: "1", Published: true}
	draft := &entity.Post{ID: "1"}

	kind, node, ok := application.ClassifyPostUpdate(pub, draft, true)
	assert.True(t, ok)
	assert.Equal(t, entity.MutationDeleted, kind)
	assert.Same(t, pub, node)

	_, _, ok = application.ClassifyPostUpdate(pub, draft, false)
	assert.False(t, ok)
	_, _, ok = application.ClassifyPostUpdate(draft, draft, true)
	assert.False(t, ok)
}

func TestCreatePostEvents(t *testing.T) {
	f := newFixture(t)
	_, u := f.signup(t, "U", "u@x.com")
	draft := f.post(t, u, "draft", false)
	pub := f.post(t, u, "live", true)

	events := f.broker.postEvents(t)
	require.Len(t, events, 1)
	assert.Equal(t, entity.MutationCreated, events[0].Mutation)
	assert.Equal(t, pub.ID, events[0].Node.ID)
	assert.Contains(t, f.indexer.docs, pub.ID)
	assert.NotContains(t, f.indexer.docs, draft.ID)
}

func TestCreatePostForcesAuthor(t *testing.T) {
	f := newFixture(t)
	me, ctx := f.signup(t, "U", "u@x.com")
	p := f.post(t, ctx, "t", false)
	assert.Equal(t, me.ID, p.AuthorID)
}

func TestDeletePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, u := f.signup(t, "U", "u@x.com")
	pub := f.post(t, u, "live", true)
	draft := f.post(t, u, "draft", false)
	f.comment(t, u, pub.ID, "c1")
	f.broker.reset()

	got, err := f.svc.DeletePost(u, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, pub.ID, got.ID)
	n, err := f.store.Comments().Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.svc.DeletePost(u, draft.ID)
	require.NoError(t, err)

	events := f.broker.postEvents(t)
	require.Len(t, events, 1)
	assert.Equal(t, entity.MutationDeleted, events[0].Mutation)
	assert.Equal(t, pub.ID, events[0].Node.ID)
}

func TestCommentEvents(t *testing.T) {
	f := newFixture(t)
	_, u := f.signup(t, "U", "u@x.com")
	p := f.post(t, u, "live", true)
	c := f.comment(t, u, p.ID, "hello")

	_, err := f.svc.UpdateComment(u, c.ID, "edited")
	require.NoError(t, err)
	_, err = f.svc.DeleteComment(u, c.ID)
	require.NoError(t, err)

	events := f.broker.commentEvents(t, p.ID)
	require.Len(t, events, 3)
	assert.Equal(t, entity.MutationCreated, events[0].Mutation)
	assert.Equal(t, entity.MutationUpdated, events[1].Mutation)
	assert.Equal(t, "edited", events[1].Node.Text)
	assert.Equal(t, entity.MutationDeleted, events[2].Mutation)
	assert.Equal(t, c.ID, events[2].Node.ID)
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t)
	_, u := f.signup(t, "U", "u@x.com")
	f.broker.fail = assert.AnError

	p, err := f.svc.CreatePost(u, application.CreatePostInput{Title: "t", Body: "b", Published: true})
	require.NoError(t, err)
	_, err = f.svc.PostByID(context.Background(), p.ID)
	assert.NoError(t, err)
}

func TestDeleteUserCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	victim, vctx := f.signup(t, "Victim", "v@x.com")
	_, octx := f.signup(t, "Other", "o@x.com")

	vPost := f.post(t, vctx, "victim post", true)
	oPost := f.post(t, octx, "other post", true)
	f.comment(t, octx, vPost.ID, "on victim post")
	f.comment(t, vctx, oPost.ID, "victim comment elsewhere")
	keep := f.comment(t, octx, oPost.ID, "kept")
	f.broker.reset()

	got, err := f.svc.DeleteUser(vctx)
	require.NoError(t, err)
	assert.Equal(t, victim.ID, got.ID)

	ok, err := f.store.Users().Exists(ctx, filter.Eq("id", victim.ID))
	require.NoError(t, err)
	assert.False(t, ok)
	n, err := f.store.Posts().Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	comments, err := f.store.Comments().Find(ctx, repoAll())
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, keep.ID, comments[0].ID)

	assert.Empty(t, f.broker.postEvents(t))
	assert.NotContains(t, f.indexer.docs, vPost.ID)

	_, err = f.svc.Me(vctx)
	assert.ErrorIs(t, err, application.ErrNotFound)
	_, err = f.svc.UpdateUser(vctx, application.UpdateUserInput{Name: optional.Of("ghost")})
	assert.ErrorIs(t, err, application.ErrPermissionDenied)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me, mctx := f.signup(t, "Me", "me@x.com")
	f.signup(t, "Taken", "taken@x.com")

	_, err := f.svc.UpdateUser(mctx, application.UpdateUserInput{Email: optional.Of("taken@x.com")})
	assert.ErrorIs(t, err, application.ErrEmailTaken)
	_, err = f.svc.UpdateUser(mctx, application.UpdateUserInput{Name: optional.Of("New"), Password: optional.Of("short")})
	assert.ErrorIs(t, err, application.ErrInvalidPassword)
	_, err = f.svc.UpdateUser(mctx, application.UpdateUserInput{Name: optional.Of("New"), Email: optional.Of("bad")})
	assert.Equal(t, "BAD_USER_INPUT", code(err))

	unchanged, err := f.svc.UserByID(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, "Me", unchanged.Name)

	age := 30
	got, err := f.svc.UpdateUser(mctx, application.UpdateUserInput{
		Name:     optional.Of("New"),
		Age:      optional.Of(&age),
		Password: optional.Of("another-secret"),
	})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, "me@x.com", got.Email)
	require.NotNil(t, got.Age)
	assert.Equal(t, 30, *got.Age)

	_, err = f.svc.Login(ctx, application.LoginInput{Email: "me@x.com", Password: "guadalupana"})
	assert.ErrorIs(t, err, application.ErrAuthenticationFailed)
	_, err = f.svc.Login(ctx, application.LoginInput{Email: "me@x.com", Password: "another-secret"})
	assert.NoError(t, err)

	got, err = f.svc.UpdateUser(mctx, application.UpdateUserInput{Age: optional.Of[*int](nil)})
	require.NoError(t, err)
	assert.Nil(t, got.Age)
}

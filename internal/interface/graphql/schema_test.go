package graphql

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-graphql-blog/internal/application"
	"github.com/oksasatya/go-graphql-blog/internal/infrastructure/memory"
	"github.com/oksasatya/go-graphql-blog/internal/infrastructure/pubsub"
	"github.com/oksasatya/go-graphql-blog/pkg/helpers"
)

type harness struct {
	schema *graphql.Schema
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	logger := helpers.NewDiscardLogger()
	svc := application.NewService(store.Users(), store.Posts(), store.Comments(),
		helpers.NewJWTManager("secret", time.Hour), helpers.NewBcryptHasher(bcrypt.MinCost),
		pubsub.NewMemory(8, logger), logger)
	schema, err := NewSchema(svc, logger)
	require.NoError(t, err)
	return &harness{schema: schema}
}

func (h *harness) exec(t *testing.T, token, query string, vars map[string]interface{}) *graphql.Response {
	t.Helper()
	ctx := context.Background()
	if token != "" {
		ctx = application.WithRequestCredential(ctx, "Bearer "+token)
	}
	return h.schema.Exec(ctx, query, "", vars)
}

func (h *harness) mustExec(t *testing.T, token, query string, vars map[string]interface{}, out interface{}) {
	t.Helper()
	res := h.exec(t, token, query, vars)
	require.Empty(t, res.Errors, "unexpected errors: %v", res.Errors)
	require.NoError(t, json.Unmarshal(res.Data, out))
}

func errCode(t *testing.T, res *graphql.Response) string {
	t.Helper()
	require.NotEmpty(t, res.Errors)
	code, _ := res.Errors[0].Extensions["code"].(string)
	return code
}

const signupMutation = `mutation($name: String!, $email: String!) {
  createUser(data: {name: $name, email: $email, password: "guadalupana"}) {
    token
    user { id name email }
  }
}`

func (h *harness) signup(t *testing.T, name, email string) (id, token string) {
	t.Helper()
	var out struct {
		CreateUser struct {
			Token string
			User  struct{ ID string }
		}
	}
	h.mustExec(t, "", signupMutation, map[string]interface{}{"name": name, "email": email}, &out)
	return out.CreateUser.User.ID, out.CreateUser.Token
}

func (h *harness) createPost(t *testing.T, token, title string, published bool) string {
	t.Helper()
	var out struct {
		CreatePost struct{ ID string }
	}
	h.mustExec(t, token, `mutation($title: String!, $published: Boolean!) {
  createPost(data: {title: $title, body: "body", published: $published}) { id }
}`, map[string]interface{}{"title": title, "published": published}, &out)
	return out.CreatePost.ID
}

func TestSchemaParses(t *testing.T) {
	newHarness(t)
}

func TestEmailRedaction(t *testing.T) {
	h := newHarness(t)
	anaID, anaToken := h.signup(t, "Ana", "ana@x.com")
	_, bobToken := h.signup(t, "Bob", "bob@x.com")

	query := `{ users(orderBy: "name_ASC") { id name email } }`
	type users struct {
		Users []struct {
			ID    string
			Name  string
			Email *string
		}
	}

	var asAna users
	h.mustExec(t, anaToken, query, nil, &asAna)
	require.Len(t, asAna.Users, 2)
	assert.Equal(t, anaID, asAna.Users[0].ID)
	require.NotNil(t, asAna.Users[0].Email)
	assert.Equal(t, "ana@x.com", *asAna.Users[0].Email)
	assert.Nil(t, asAna.Users[1].Email)

	var asBob users
	h.mustExec(t, bobToken, query, nil, &asBob)
	assert.Nil(t, asBob.Users[0].Email)

	var anon users
	h.mustExec(t, "", query, nil, &anon)
	assert.Nil(t, anon.Users[0].Email)
	assert.Nil(t, anon.Users[1].Email)
}

func TestPasswordNotInSchema(t *testing.T) {
	h := newHarness(t)
	res := h.exec(t, "", `{ users { password } }`, nil)
	assert.NotEmpty(t, res.Errors)
}

func TestDraftVisibilityThroughGraph(t *testing.T) {
	h := newHarness(t)
	_, owner := h.signup(t, "Owner", "owner@x.com")
	_, other := h.signup(t, "Other", "other@x.com")
	draft := h.createPost(t, owner, "draft", false)
	h.createPost(t, owner, "live", true)

	query := `query($id: ID!) { post(id: $id) { id title author { name } } }`
	res := h.exec(t, other, query, map[string]interface{}{"id": draft})
	assert.Equal(t, "NOT_FOUND", errCode(t, res))

	var out struct {
		Post struct {
			Title  string
			Author struct{ Name string }
		}
	}
	h.mustExec(t, owner, query, map[string]interface{}{"id": draft}, &out)
	assert.Equal(t, "draft", out.Post.Title)
	assert.Equal(t, "Owner", out.Post.Author.Name)

	var me struct {
		Me struct {
			Posts []struct{ Title string }
		}
	}
	h.mustExec(t, owner, `{ me { posts { title } } }`, nil, &me)
	assert.Len(t, me.Me.Posts, 2)

	var list struct {
		Users []struct {
			Name  string
			Posts []struct{ Title string }
		}
	}
	h.mustExec(t, other, `{ users(query: "owner") { name posts { title } } }`, nil, &list)
	require.Len(t, list.Users, 1)
	require.Len(t, list.Users[0].Posts, 1)
	assert.Equal(t, "live", list.Users[0].Posts[0].Title)
}

func TestErrorCodes(t *testing.T) {
	h := newHarness(t)
	_, owner := h.signup(t, "Owner", "owner@x.com")
	_, other := h.signup(t, "Other", "other@x.com")
	post := h.createPost(t, owner, "p", false)

	res := h.exec(t, "", `{ me { id } }`, nil)
	assert.Equal(t, "UNAUTHENTICATED", errCode(t, res))

	res = h.exec(t, "", signupMutation, map[string]interface{}{"name": "Dup", "email": "owner@x.com"})
	assert.Equal(t, "EMAIL_TAKEN", errCode(t, res))

	res = h.exec(t, other, `mutation($id: ID!) { deletePost(id: $id) { id } }`, map[string]interface{}{"id": post})
	assert.Equal(t, "FORBIDDEN", errCode(t, res))

	res = h.exec(t, other, `mutation($id: ID!) { createComment(data: {post: $id, text: "hi"}) { id } }`, map[string]interface{}{"id": post})
	assert.Equal(t, "COMMENT_ON_UNPUBLISHED", errCode(t, res))

	res = h.exec(t, "", `mutation { login(data: {email: "owner@x.com", password: "nope"}) { token } }`, nil)
	assert.Equal(t, "AUTHENTICATION_FAILED", errCode(t, res))

	res = h.exec(t, "", `{ posts(orderBy: "nope_ASC") { id } }`, nil)
	assert.Equal(t, "BAD_USER_INPUT", errCode(t, res))
}

func TestUpdateUserNullableFields(t *testing.T) {
	h := newHarness(t)
	_, token := h.signup(t, "Ana", "ana@x.com")

	var out struct {
		UpdateUser struct {
			Name string
			Age  *int
		}
	}
	h.mustExec(t, token, `mutation { updateUser(data: {age: 31}) { name age } }`, nil, &out)
	assert.Equal(t, "Ana", out.UpdateUser.Name)
	require.NotNil(t, out.UpdateUser.Age)
	assert.Equal(t, 31, *out.UpdateUser.Age)

	h.mustExec(t, token, `mutation { updateUser(data: {name: "Ana B"}) { name age } }`, nil, &out)
	assert.Equal(t, "Ana B", out.UpdateUser.Name)
	require.NotNil(t, out.UpdateUser.Age)

	h.mustExec(t, token, `mutation { updateUser(data: {age: null}) { name age } }`, nil, &out)
	assert.Nil(t, out.UpdateUser.Age)
}

func TestUnpublishThroughGraph(t *testing.T) {
	h := newHarness(t)
	_, token := h.signup(t, "Ana", "ana@x.com")
	post := h.createPost(t, token, "p", true)
	h.mustExec(t, token, `mutation($id: ID!) { createComment(data: {post: $id, text: "c"}) { id } }`,
		map[string]interface{}{"id": post}, &struct{}{})

	var out struct {
		UpdatePost struct {
			Published bool
			Comments  []struct{ ID string }
		}
	}
	h.mustExec(t, token, `mutation($id: ID!) { updatePost(id: $id, data: {published: false}) { published comments { id } } }`,
		map[string]interface{}{"id": post}, &out)
	assert.False(t, out.UpdatePost.Published)
	assert.Empty(t, out.UpdatePost.Comments)
}

func TestPostSubscription(t *testing.T) {
	h := newHarness(t)
	_, token := h.signup(t, "Ana", "ana@x.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, err := h.schema.Subscribe(ctx, `subscription { post { mutation node { title author { name } } } }`, "", nil)
	require.NoError(t, err)

	h.createPost(t, token, "hello", true)

	select {
	case msg := <-stream:
		res, ok := msg.(*graphql.Response)
		require.True(t, ok)
		require.Empty(t, res.Errors)
		assert.JSONEq(t, `{"post":{"mutation":"CREATED","node":{"title":"hello","author":{"name":"Ana"}}}}`, string(res.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("no subscription payload")
	}
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-graphql-blog/internal/application"
	"github.com/oksasatya/go-graphql-blog/internal/domain/entity"
	"github.com/oksasatya/go-graphql-blog/internal/infrastructure/memory"
	"github.com/oksasatya/go-graphql-blog/internal/infrastructure/pubsub"
	gql "github.com/oksasatya/go-graphql-blog/internal/interface/graphql"
	"github.com/oksasatya/go-graphql-blog/internal/interface/middleware"
	"github.com/oksasatya/go-graphql-blog/pkg/helpers"
)

type testEnv struct {
	svc    *application.Service
	broker *pubsub.Memory
	engine *gin.Engine
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := helpers.NewDiscardLogger()
	store := memory.NewStore()
	broker := pubsub.NewMemory(8, logger)
	tokens := helpers.NewJWTManager("secret", time.Hour)
	svc := application.NewService(store.Users(), store.Posts(), store.Comments(),
		tokens, helpers.NewBcryptHasher(bcrypt.MinCost), broker, logger)
	schema, err := gql.NewSchema(svc, logger)
	require.NoError(t, err)

	q := NewGraphQLHandler(schema, logger)
	subs := NewSubscriptionHandler(schema, logger, nil)
	subs.KeepAlive = 0

	r := gin.New()
	r.Use(middleware.Credential(tokens))
	r.POST("/graphql", q.Serve)
	r.GET("/graphql", func(c *gin.Context) {
		if websocket.IsWebSocketUpgrade(c.Request) {
			subs.Serve(c)
			return
		}
		q.Serve(c)
	})
	return &testEnv{svc: svc, broker: broker, engine: r}
}

func (e *testEnv) signup(t *testing.T, name, email string) string {
	t.Helper()
	out, err := e.svc.CreateUser(context.Background(), application.CreateUserInput{Name: name, Email: email, Password: "guadalupana"})
	require.NoError(t, err)
	return out.Token
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

type gqlResponse struct {
	Data   json.RawMessage
	Errors []struct {
		Message    string
		Extensions map[string]interface{}
	}
}

func decodeGQL(t *testing.T, w *httptest.ResponseRecorder) gqlResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res gqlResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestPostJSONWithAuthorization(t *testing.T) {
	e := newEnv(t)
	token := e.signup(t, "Ana", "ana@x.com")

	body := `{"query":"{ me { name email } }"}`
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	res := decodeGQL(t, e.do(req))
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"me":{"name":"Ana","email":"ana@x.com"}}`, string(res.Data))

	req = httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res = decodeGQL(t, e.do(req))
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, "UNAUTHENTICATED", res.Errors[0].Extensions["code"])
}

func TestGetWithVariables(t *testing.T) {
	e := newEnv(t)
	e.signup(t, "Ana", "ana@x.com")
	e.signup(t, "Bob", "bob@x.com")

	params := url.Values{}
	params.Set("query", `query($q: String) { users(query: $q) { name email } }`)
	params.Set("variables", `{"q":"bo"}`)
	res := decodeGQL(t, e.do(httptest.NewRequest(http.MethodGet, "/graphql?"+params.Encode(), nil)))
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"users":[{"name":"Bob","email":null}]}`, string(res.Data))
}

func TestGetRejectsMutations(t *testing.T) {
	e := newEnv(t)
	mutation := `mutation { createUser(data: {name: "Eve", email: "eve@x.com", password: "guadalupana"}) { token } }`

	for _, tt := range []struct {
		name, query, op string
	}{
		{"anonymous", mutation, ""},
		{"named", `query Q { posts { id } } mutation M { deleteUser { id } }`, "M"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			params := url.Values{}
			params.Set("query", tt.query)
			if tt.op != "" {
				params.Set("operationName", tt.op)
			}
			w := e.do(httptest.NewRequest(http.MethodGet, "/graphql?"+params.Encode(), nil))
			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
			assert.Equal(t, http.MethodPost, w.Header().Get("Allow"))
		})
	}

	params := url.Values{}
	params.Set("query", `query Q { posts { id } } mutation M { deleteUser { id } }`)
	params.Set("operationName", "Q")
	res := decodeGQL(t, e.do(httptest.NewRequest(http.MethodGet, "/graphql?"+params.Encode(), nil)))
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"posts":[]}`, string(res.Data))

	users := url.Values{}
	users.Set("query", `{ users { name } }`)
	res = decodeGQL(t, e.do(httptest.NewRequest(http.MethodGet, "/graphql?"+users.Encode(), nil)))
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"users":[]}`, string(res.Data))
}

func TestGraphQLContentType(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{ posts { id } }`))
	req.Header.Set("Content-Type", "application/graphql")
	res := decodeGQL(t, e.do(req))
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"posts":[]}`, string(res.Data))
}

func TestMalformedRequests(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name string
		req  *http.Request
	}{
		{"bad json", httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewBufferString(`{"query":`))},
		{"no query", httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewBufferString(`{}`))},
		{"bad variables", httptest.NewRequest(http.MethodGet, "/graphql?query=%7Bme%7Bid%7D%7D&variables=nope", nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var env struct {
				Success bool
				Message string
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.False(t, env.Success)
			assert.Equal(t, "invalid graphql request", env.Message)
		})
	}
}

// wsClient speaks graphql-ws against a test server.
type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, e *testEnv) *wsClient {
	t.Helper()
	srv := httptest.NewServer(e.engine)
	t.Cleanup(srv.Close)
	dialer := websocket.Dialer{Subprotocols: []string{Subprotocol}, HandshakeTimeout: 2 * time.Second}
	conn, resp, err := dialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/graphql", nil)
	require.NoError(t, err)
	assert.Equal(t, Subprotocol, resp.Header.Get("Sec-WebSocket-Protocol"))
	t.Cleanup(func() { _ = conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(id, typ string, payload interface{}) {
	c.t.Helper()
	msg := map[string]interface{}{"type": typ}
	if id != "" {
		msg["id"] = id
	}
	if payload != nil {
		msg["payload"] = payload
	}
	require.NoError(c.t, c.conn.WriteJSON(msg))
}

func (c *wsClient) read() operationMessage {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg operationMessage
	require.NoError(c.t, c.conn.ReadJSON(&msg))
	return msg
}

func TestSubscriptionLifecycle(t *testing.T) {
	e := newEnv(t)
	token := e.signup(t, "Ana", "ana@x.com")
	c := dial(t, e)

	c.send("", msgConnectionInit, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, msgConnectionAck, c.read().Type)

	c.send("1", msgStart, map[string]interface{}{
		"query": `subscription { post { mutation node { title author { name email } } } }`,
	})
	require.Eventually(t, func() bool { return e.broker.Subscribers(entity.PostChannel) == 1 }, 2*time.Second, 10*time.Millisecond)

	ctx := application.WithRequestCredential(context.Background(), "Bearer "+token)
	_, err := e.svc.CreatePost(ctx, application.CreatePostInput{Title: "hello", Body: "b", Published: true})
	require.NoError(t, err)

	msg := c.read()
	require.Equal(t, msgData, msg.Type)
	assert.Equal(t, "1", msg.ID)
	var payload gqlResponse
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	// the connection credential makes the subscriber the author
	assert.JSONEq(t, `{"post":{"mutation":"CREATED","node":{"title":"hello","author":{"name":"Ana","email":"ana@x.com"}}}}`, string(payload.Data))

	c.send("1", msgStop, nil)
	require.Eventually(t, func() bool { return e.broker.Subscribers(entity.PostChannel) == 0 }, 2*time.Second, 10*time.Millisecond)

	c.send("", msgConnectionTerminate, nil)
	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err = c.conn.ReadMessage()
	assert.Error(t, err)
}

func TestSubscriptionErrors(t *testing.T) {
	e := newEnv(t)
	c := dial(t, e)

	c.send("1", msgStart, map[string]interface{}{"query": `subscription { post { mutation } }`})
	msg := c.read()
	assert.Equal(t, msgError, msg.Type)
	assert.Equal(t, "1", msg.ID)

	c.send("", msgConnectionInit, nil)
	assert.Equal(t, msgConnectionAck, c.read().Type)

	c.send("2", msgStart, map[string]interface{}{
		"query":     `subscription($id: ID!) { comment(postId: $id) { mutation } }`,
		"variables": map[string]interface{}{"id": "missing"},
	})
	msg = c.read()
	require.Equal(t, msgError, msg.Type)
	assert.Equal(t, "2", msg.ID)
	var qerr struct {
		Extensions map[string]interface{}
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &qerr))
	assert.Equal(t, "NOT_FOUND", qerr.Extensions["code"])

	c.send("3", "bogus", nil)
	msg = c.read()
	assert.Equal(t, msgError, msg.Type)
	assert.Equal(t, "3", msg.ID)
}

func TestCheckOrigin(t *testing.T) {
	allow := checkOrigin([]string{"http://app.test"})
	req := httptest.NewRequest(http.MethodGet, "/graphql", nil)
	assert.True(t, allow(req))
	req.Header.Set("Origin", "http://app.test")
	assert.True(t, allow(req))
	req.Header.Set("Origin", "http://evil.test")
	assert.False(t, allow(req))
	assert.True(t, checkOrigin(nil)(req))
}

package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	handlers "github.com/oksasatya/go-graphql-blog/internal/interface/http"
	"github.com/oksasatya/go-graphql-blog/internal/interface/middleware"
)

// GraphQLModule serves the API at /graphql:
// POST and GET for queries and mutations, GET with a websocket upgrade for
// subscriptions.
type GraphQLModule struct {
	Query     *handlers.GraphQLHandler
	Subs      *handlers.SubscriptionHandler
	Tokens    middleware.TokenParser
	RateLimit gin.HandlerFunc
}

func NewGraphQLModule(query *handlers.GraphQLHandler, subs *handlers.SubscriptionHandler, tokens middleware.TokenParser, rateLimit gin.HandlerFunc) *GraphQLModule {
	return &GraphQLModule{Query: query, Subs: subs, Tokens: tokens, RateLimit: rateLimit}
}

func (m *GraphQLModule) Register(rg *gin.RouterGroup) {
	chain := func(h gin.HandlerFunc) []gin.HandlerFunc {
		hs := []gin.HandlerFunc{middleware.Credential(m.Tokens)}
		if m.RateLimit != nil {
			hs = append(hs, m.RateLimit)
		}
		return append(hs, h)
	}
	rg.POST("/graphql", chain(m.Query.Serve)...)
	rg.GET("/graphql", chain(m.serveGet)...)
}

func (m *GraphQLModule) serveGet(c *gin.Context) {
	if m.Subs != nil && websocket.IsWebSocketUpgrade(c.Request) {
		m.Subs.Serve(c)
		return
	}
	m.Query.Serve(c)
}

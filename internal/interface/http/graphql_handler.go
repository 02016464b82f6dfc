package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/sirupsen/logrus"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/oksasatya/go-graphql-blog/pkg/response"
)

// maxBodyBytes caps a request/response operation document plus variables.
const maxBodyBytes = 1 << 20

// Executor runs request/response operations; *graphql.Schema satisfies it.
type Executor interface {
	Exec(ctx context.Context, queryString string, operationName string, variables map[string]interface{}) *graphql.Response
}

type GraphQLHandler struct {
	Schema Executor
	Logger *logrus.Logger
}

func NewGraphQLHandler(schema Executor, logger *logrus.Logger) *GraphQLHandler {
	return &GraphQLHandler{Schema: schema, Logger: logger}
}

type graphqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Serve handles POST (application/json or application/graphql bodies) and
// GET (query, operationName and variables as URL parameters). GraphQL-level
// failures are reported in the response's errors with status 200; only
// unreadable requests get a 400 envelope. Mutations over GET get a 405.
func (h *GraphQLHandler) Serve(c *gin.Context) {
	req, err := h.decode(c)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid graphql request", err.Error())
		return
	}
	if req.Query == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid graphql request", "query is required")
		return
	}
	if c.Request.Method == http.MethodGet && isMutation(req.Query, req.OperationName) {
		c.Header("Allow", http.MethodPost)
		response.Error[any](c, http.StatusMethodNotAllowed, "mutations require POST", nil)
		return
	}

	res := h.Schema.Exec(c.Request.Context(), req.Query, req.OperationName, req.Variables)
	if len(res.Errors) > 0 && h.Logger != nil {
		h.Logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"operation":  req.OperationName,
			"errors":     len(res.Errors),
		}).Debug("graphql operation returned errors")
	}
	c.JSON(http.StatusOK, res)
}

func (h *GraphQLHandler) decode(c *gin.Context) (graphqlRequest, error) {
	var req graphqlRequest
	if c.Request.Method == http.MethodGet {
		req.Query = c.Query("query")
		req.OperationName = c.Query("operationName")
		if v := c.Query("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
				return req, err
			}
		}
		return req, nil
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if c.ContentType() == "application/graphql" {
		b, err := io.ReadAll(body)
		if err != nil {
			return req, err
		}
		req.Query = string(b)
		return req, nil
	}
	err := json.NewDecoder(body).Decode(&req)
	return req, err
}

// isMutation reports whether the operation that would run is a mutation.
// Unparseable documents return false and are left to the executor to reject.
func isMutation(query, operationName string) bool {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return false
	}
	op := doc.Operations.ForName(operationName)
	return op != nil && op.Operation == ast.Mutation
}

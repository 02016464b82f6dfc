package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oksasatya/go-graphql-blog/internal/domain/entity"
	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
	"github.com/oksasatya/go-graphql-blog/internal/domain/repository"
)

// sqlTable maps the filterable fields of an entity onto table columns.
// Every table carries a seq column that fixes the default (creation) order.
type sqlTable struct {
	name    string
	schema  filter.Schema
	columns map[string]string
}

var (
	usersTable = sqlTable{
		name:   "users",
		schema: entity.UserFields,
		columns: map[string]string{
			"id": "id", "name": "name", "email": "email", "age": "age",
			"createdAt": "created_at", "updatedAt": "updated_at",
		},
	}
	postsTable = sqlTable{
		name:   "posts",
		schema: entity.PostFields,
		columns: map[string]string{
			"id": "id", "title": "title", "body": "body", "published": "published", "author": "author_id",
			"createdAt": "created_at", "updatedAt": "updated_at",
		},
	}
	commentsTable = sqlTable{
		name:   "comments",
		schema: entity.CommentFields,
		columns: map[string]string{
			"id": "id", "text": "text", "author": "author_id", "post": "post_id",
			"createdAt": "created_at", "updatedAt": "updated_at",
		},
	}
)

func (t sqlTable) column(field string) (string, error) {
	col, ok := t.columns[field]
	if !ok {
		return "", &filter.Error{Field: field, Reason: "unknown field"}
	}
	return col, nil
}

// stmt accumulates positional arguments while a statement is built.
type stmt struct {
	args []any
}

func (s *stmt) bind(v any) string {
	s.args = append(s.args, v)
	return "$" + strconv.Itoa(len(s.args))
}

// where compiles e against table alias t. A nil expression is TRUE.
func (s *stmt) where(t sqlTable, e filter.Expr) (string, error) {
	if err := t.schema.Validate(e); err != nil {
		return "", err
	}
	return s.expr(t, e)
}

func (s *stmt) expr(t sqlTable, e filter.Expr) (string, error) {
	switch x := e.(type) {
	case nil:
		return "TRUE", nil
	case filter.Cond:
		return s.cond(t, x)
	case filter.And:
		return s.join(t, x, " AND ", "TRUE")
	case filter.Or:
		return s.join(t, x, " OR ", "FALSE")
	}
	return "", fmt.Errorf("unsupported filter expression %T", e)
}

func (s *stmt) join(t sqlTable, exprs []filter.Expr, sep, empty string) (string, error) {
	if len(exprs) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		p, err := s.expr(t, e)
		if err != nil {
			return "", err
		}
		parts = append(parts, p)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func (s *stmt) cond(t sqlTable, c filter.Cond) (string, error) {
	col, err := t.column(c.Field)
	if err != nil {
		return "", err
	}
	col = "t." + col
	switch c.Op {
	case filter.OpEq:
		if c.Value == nil {
			return col + " IS NULL", nil
		}
		return col + " = " + s.bind(c.Value), nil
	case filter.OpNeq:
		if c.Value == nil {
			return col + " IS NOT NULL", nil
		}
		return col + " IS DISTINCT FROM " + s.bind(c.Value), nil
	case filter.OpIn:
		values, _ := c.Value.([]any)
		if len(values) == 0 {
			return "FALSE", nil
		}
		ph := make([]string, 0, len(values))
		for _, v := range values {
			ph = append(ph, s.bind(v))
		}
		return col + " IN (" + strings.Join(ph, ", ") + ")", nil
	case filter.OpContains:
		v, _ := c.Value.(string)
		return col + " ILIKE '%' || " + s.bind(escapeLike(v)) + " || '%'", nil
	}
	return "", &filter.Error{Field: c.Field, Reason: fmt.Sprintf("unsupported operator %q", c.Op)}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// selectSQL builds a paged SELECT of cols from t.
func (s *stmt) selectSQL(t sqlTable, cols string, q repository.Query) (string, error) {
	cond, err := s.where(t, q.Where)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s t WHERE %s", cols, t.name, cond)

	p := q.Page
	order := "t.seq"
	cmp := "t.seq > c.seq"
	if !p.OrderBy.IsZero() {
		col, err := t.column(p.OrderBy.Field)
		if err != nil {
			return "", err
		}
		dir, op := "ASC", ">"
		if p.OrderBy.Desc {
			dir, op = "DESC", "<"
		}
		order = fmt.Sprintf("t.%s %s, t.seq", col, dir)
		cmp = fmt.Sprintf("(t.%[1]s %[2]s c.%[1]s OR (t.%[1]s = c.%[1]s AND t.seq > c.seq))", col, op)
	}
	if p.After != "" {
		fmt.Fprintf(&b, " AND EXISTS (SELECT 1 FROM %s c WHERE c.id = %s AND %s)", t.name, s.bind(p.After), cmp)
	}
	b.WriteString(" ORDER BY " + order)
	if p.First > 0 {
		b.WriteString(" LIMIT " + s.bind(p.First))
	}
	if p.Skip > 0 {
		b.WriteString(" OFFSET " + s.bind(p.Skip))
	}
	return b.String(), nil
}

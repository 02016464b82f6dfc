// Package filter provides an explicit filter expression that stores can
// validate and evaluate (in-process) or compile (SQL).
//
// An expression is a tree of conditions (field, operator, value) joined by
// And / Or. A nil Expr matches every record.
package filter

import (
	"fmt"
	"strings"
	"time"
)

type Kind int

const (
	KindString Kind = iota + 1
	KindBool
	KindInt
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

type Op string

const (
	OpEq       Op = "eq"
	OpNeq      Op = "neq"
	OpIn       Op = "in"
	OpContains Op = "contains" // case-insensitive substring
)

type Expr interface {
	isExpr()
}

// Cond compares a single field against a value.
type Cond struct {
	Field string
	Op    Op
	Value any
}

type And []Expr

type Or []Expr

func (Cond) isExpr() {}
func (And) isExpr()  {}
func (Or) isExpr()   {}

func Eq(field string, v any) Cond  { return Cond{Field: field, Op: OpEq, Value: normalize(v)} }
func Neq(field string, v any) Cond { return Cond{Field: field, Op: OpNeq, Value: normalize(v)} }

func Contains(field, substr string) Cond {
	return Cond{Field: field, Op: OpContains, Value: substr}
}

func In(field string, values ...any) Cond {
	vs := make([]any, 0, len(values))
	for _, v := range values {
		vs = append(vs, normalize(v))
	}
	return Cond{Field: field, Op: OpIn, Value: vs}
}

func InStrings(field string, values []string) Cond {
	vs := make([]any, 0, len(values))
	for _, v := range values {
		vs = append(vs, v)
	}
	return Cond{Field: field, Op: OpIn, Value: vs}
}

// All joins the non-nil expressions with AND. It returns nil when nothing is left.
func All(exprs ...Expr) Expr {
	out := compact(exprs)
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return And(out)
}

// Any joins the non-nil expressions with OR. It returns nil when nothing is left.
func Any(exprs ...Expr) Expr {
	out := compact(exprs)
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return Or(out)
}

func compact(exprs []Expr) []Expr {
	out := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func normalize(v any) any {
	switch x := v.(type) {
	case int32:
		return int(x)
	case int64:
		return int(x)
	case *int:
		if x == nil {
			return nil
		}
		return *x
	case *string:
		if x == nil {
			return nil
		}
		return *x
	}
	return v
}

// Schema lists the filterable fields of an entity and their kinds.
type Schema map[string]Kind

// Error reports a structurally invalid expression.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return "invalid filter: " + e.Reason
	}
	return fmt.Sprintf("invalid filter on %q: %s", e.Field, e.Reason)
}

// Validate checks every condition of e against the schema.
func (s Schema) Validate(e Expr) error {
	switch x := e.(type) {
	case nil:
		return nil
	case Cond:
		return s.validateCond(x)
	case And:
		for _, sub := range x {
			if err := s.Validate(sub); err != nil {
				return err
			}
		}
		return nil
	case Or:
		for _, sub := range x {
			if err := s.Validate(sub); err != nil {
				return err
			}
		}
		return nil
	default:
		return &Error{Reason: fmt.Sprintf("unsupported expression %T", e)}
	}
}

func (s Schema) validateCond(c Cond) error {
	kind, ok := s[c.Field]
	if !ok {
		return &Error{Field: c.Field, Reason: "unknown field"}
	}
	switch c.Op {
	case OpEq, OpNeq:
		if c.Value == nil {
			return nil
		}
		if !kindOf(kind, c.Value) {
			return &Error{Field: c.Field, Reason: fmt.Sprintf("expected %s value, got %T", kind, c.Value)}
		}
	case OpContains:
		if kind != KindString {
			return &Error{Field: c.Field, Reason: "contains requires a string field"}
		}
		if _, ok := c.Value.(string); !ok {
			return &Error{Field: c.Field, Reason: fmt.Sprintf("contains requires a string value, got %T", c.Value)}
		}
	case OpIn:
		vs, ok := c.Value.([]any)
		if !ok {
			return &Error{Field: c.Field, Reason: fmt.Sprintf("in requires a list, got %T", c.Value)}
		}
		for _, v := range vs {
			if !kindOf(kind, v) {
				return &Error{Field: c.Field, Reason: fmt.Sprintf("expected %s list element, got %T", kind, v)}
			}
		}
	default:
		return &Error{Field: c.Field, Reason: fmt.Sprintf("unknown operator %q", c.Op)}
	}
	return nil
}

func kindOf(k Kind, v any) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindInt:
		_, ok := v.(int)
		return ok
	case KindTime:
		_, ok := v.(time.Time)
		return ok
	}
	return false
}

// Record exposes field values for in-process evaluation. Absent optional
// values are reported as nil.
type Record interface {
	Field(name string) (any, bool)
}

// Match evaluates e against r. Unknown fields never match.
func Match(e Expr, r Record) bool {
	switch x := e.(type) {
	case nil:
		return true
	case Cond:
		return matchCond(x, r)
	case And:
		for _, sub := range x {
			if !Match(sub, r) {
				return false
			}
		}
		return true
	case Or:
		for _, sub := range x {
			if Match(sub, r) {
				return true
			}
		}
		return false
	}
	return false
}

func matchCond(c Cond, r Record) bool {
	v, ok := r.Field(c.Field)
	if !ok {
		return false
	}
	switch c.Op {
	case OpEq:
		return Compare(v, c.Value) == 0
	case OpNeq:
		return Compare(v, c.Value) != 0
	case OpContains:
		s, ok := v.(string)
		sub, ok2 := c.Value.(string)
		if !ok || !ok2 {
			return false
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	case OpIn:
		vs, _ := c.Value.([]any)
		for _, candidate := range vs {
			if Compare(v, candidate) == 0 {
				return true
			}
		}
	}
	return false
}

// Compare orders two values of the same kind. nil sorts first; values of
// mismatched kinds compare by their kind order.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case int:
		if y, ok := b.(int); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b))
}

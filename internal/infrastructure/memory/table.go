package memory

import (
	"context"
	"sort"

	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
	"github.com/oksasatya/go-graphql-blog/internal/domain/repository"
)

type record[T any] interface {
	filter.Record
	GetID() string
	Clone() T
}

// table keeps rows keyed by id plus their insertion sequence, which is the
// default listing order. Callers hold the store lock.
type table[T record[T]] struct {
	schema filter.Schema
	rows   map[string]T
	seq    map[string]uint64
	next   uint64
}

func newTable[T record[T]](schema filter.Schema) *table[T] {
	return &table[T]{schema: schema, rows: map[string]T{}, seq: map[string]uint64{}}
}

func (t *table[T]) insert(v T) {
	id := v.GetID()
	if _, ok := t.seq[id]; !ok {
		t.next++
		t.seq[id] = t.next
	}
	t.rows[id] = v
}

func (t *table[T]) remove(id string) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	delete(t.seq, id)
	return true
}

func (t *table[T]) match(where filter.Expr) ([]T, error) {
	if err := t.schema.Validate(where); err != nil {
		return nil, err
	}
	out := make([]T, 0)
	for _, v := range t.rows {
		if filter.Match(where, v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return t.seq[out[i].GetID()] < t.seq[out[j].GetID()]
	})
	return out, nil
}

func (t *table[T]) list(q repository.Query) ([]T, error) {
	rows, err := t.match(q.Where)
	if err != nil {
		return nil, err
	}
	page := q.Page
	if !page.OrderBy.IsZero() {
		if _, ok := t.schema[page.OrderBy.Field]; !ok {
			return nil, &filter.Error{Field: page.OrderBy.Field, Reason: "unknown order field"}
		}
		sort.SliceStable(rows, func(i, j int) bool {
			a, _ := rows[i].Field(page.OrderBy.Field)
			b, _ := rows[j].Field(page.OrderBy.Field)
			c := filter.Compare(a, b)
			if page.OrderBy.Desc {
				c = -c
			}
			return c < 0
		})
	}
	if page.After != "" {
		idx := -1
		for i, v := range rows {
			if v.GetID() == page.After {
				idx = i
				break
			}
		}
		if idx < 0 {
			return []T{}, nil
		}
		rows = rows[idx+1:]
	}
	if page.Skip > 0 {
		if page.Skip >= len(rows) {
			return []T{}, nil
		}
		rows = rows[page.Skip:]
	}
	if page.First > 0 && page.First < len(rows) {
		rows = rows[:page.First]
	}
	out := make([]T, 0, len(rows))
	for _, v := range rows {
		out = append(out, v.Clone())
	}
	return out, nil
}

// collection implements the read and delete side shared by every repository.
type collection[T record[T]] struct {
	s *Store
	t *table[T]
}

func (c collection[T]) FindOne(ctx context.Context, where filter.Expr) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	rows, err := c.t.match(where)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, repository.ErrNotFound
	}
	return rows[0].Clone(), nil
}

func (c collection[T]) Find(ctx context.Context, q repository.Query) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	return c.t.list(q)
}

func (c collection[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if !c.t.remove(id) {
		return repository.ErrNotFound
	}
	return nil
}

func (c collection[T]) DeleteMany(ctx context.Context, where filter.Expr) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	rows, err := c.t.match(where)
	if err != nil {
		return 0, err
	}
	for _, v := range rows {
		c.t.remove(v.GetID())
	}
	return len(rows), nil
}

func (c collection[T]) Exists(ctx context.Context, where filter.Expr) (bool, error) {
	n, err := c.Count(ctx, where)
	return n > 0, err
}

func (c collection[T]) Count(ctx context.Context, where filter.Expr) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	rows, err := c.t.match(where)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
	"github.com/oksasatya/go-graphql-blog/internal/domain/repository"
)

// querier is the subset of *pgxpool.Pool (and pgx.Tx) the repositories use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// mapError translates driver errors into repository errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return repository.ErrConflict
		case "23503": // foreign_key_violation: the referenced parent is gone
			return repository.ErrNotFound
		}
	}
	return err
}

// base implements the statements that look the same for every table.
type base struct {
	db querier
	t  sqlTable
}

func (b base) delete(ctx context.Context, id string) error {
	tag, err := b.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", b.t.name), id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (b base) deleteMany(ctx context.Context, where filter.Expr) (int, error) {
	var s stmt
	cond, err := s.where(b.t, where)
	if err != nil {
		return 0, err
	}
	tag, err := b.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s t WHERE %s", b.t.name, cond), s.args...)
	if err != nil {
		return 0, mapError(err)
	}
	return int(tag.RowsAffected()), nil
}

func (b base) count(ctx context.Context, where filter.Expr) (int, error) {
	var s stmt
	cond, err := s.where(b.t, where)
	if err != nil {
		return 0, err
	}
	var n int
	err = b.db.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s t WHERE %s", b.t.name, cond), s.args...).Scan(&n)
	return n, mapError(err)
}

func (b base) exists(ctx context.Context, where filter.Expr) (bool, error) {
	var s stmt
	cond, err := s.where(b.t, where)
	if err != nil {
		return false, err
	}
	var ok bool
	err = b.db.QueryRow(ctx, fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s t WHERE %s)", b.t.name, cond), s.args...).Scan(&ok)
	return ok, mapError(err)
}

func findAll[T any](ctx context.Context, b base, cols string, q repository.Query, scan func(scanner) (T, error)) ([]T, error) {
	var s stmt
	sql, err := s.selectSQL(b.t, cols, q)
	if err != nil {
		return nil, err
	}
	rows, err := b.db.Query(ctx, sql, s.args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func findOne[T any](ctx context.Context, b base, cols string, where filter.Expr, scan func(scanner) (T, error)) (T, error) {
	var zero T
	found, err := findAll(ctx, b, cols, repository.Query{Where: where, Page: repository.Page{First: 1}}, scan)
	if err != nil {
		return zero, err
	}
	if len(found) == 0 {
		return zero, repository.ErrNotFound
	}
	return found[0], nil
}

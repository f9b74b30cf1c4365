// Package xpgx adapts a pgx connection pool to squirrel queries and struct scanning.
package xpgx

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ougirez/restorank/internal/pkg/constants"
)

// Pool is the query surface the store works against. A transaction opened by
// InTx travels in the context, so every call made with that context joins it.
type Pool interface {
	Getx(ctx context.Context, dst interface{}, sqlizer squirrel.Sqlizer) error
	Selectx(ctx context.Context, dst interface{}, sqlizer squirrel.Sqlizer) error
	Execx(ctx context.Context, sqlizer squirrel.Sqlizer) (int64, error)
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	Driver() string
	Close()
}

type txKey struct{}

type querier interface {
	pgxscan.Querier
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

type pool struct {
	pool *pgxpool.Pool
}

func NewPool(ctx context.Context, dsn string) (Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}

	if err = p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &pool{pool: p}, nil
}

func (p *pool) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return p.pool
}

func (p *pool) Getx(ctx context.Context, dst interface{}, sqlizer squirrel.Sqlizer) error {
	query, args, err := sqlizer.ToSql()
	if err != nil {
		return fmt.Errorf("ToSql: %w", err)
	}
	return pgxscan.Get(ctx, p.q(ctx), dst, query, args...)
}

func (p *pool) Selectx(ctx context.Context, dst interface{}, sqlizer squirrel.Sqlizer) error {
	query, args, err := sqlizer.ToSql()
	if err != nil {
		return fmt.Errorf("ToSql: %w", err)
	}
	return pgxscan.Select(ctx, p.q(ctx), dst, query, args...)
}

func (p *pool) Execx(ctx context.Context, sqlizer squirrel.Sqlizer) (int64, error) {
	query, args, err := sqlizer.ToSql()
	if err != nil {
		return 0, fmt.Errorf("ToSql: %w", err)
	}

	tag, err := p.q(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *pool) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (p *pool) Driver() string { return constants.DriverPostgres }

func (p *pool) Close() { p.pool.Close() }

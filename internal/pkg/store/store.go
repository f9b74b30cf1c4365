package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/ougirez/restorank/internal/pkg/store/xpgx"
	"github.com/ougirez/restorank/internal/pkg/store/xsqlite"
)

type Pool = xpgx.Pool

var (
	//go:embed migrations/postgres.sql
	postgresSchema string
	//go:embed migrations/sqlite.sql
	sqliteSchema string
)

// Store is the single repository over every entity the service persists.
type Store interface {
	RestaurantStore
	SourceRatingStore
	ReviewStore
	WeightsStore
	RankingStore
	RegionStore
	KeywordStore

	// InTx runs fn in one transaction; store calls made with the ctx passed to fn join it.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	Migrate(ctx context.Context) error
	Close()
}

type store struct {
	pool Pool
}

func NewStore(pool Pool) Store {
	return &store{pool}
}

// Open connects to the configured backend.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		pool Pool
		err  error
	)

	switch driver {
	case constants.DriverPostgres:
		pool, err = xpgx.NewPool(ctx, dsn)
	case constants.DriverSQLite:
		pool, err = xsqlite.Open(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %q", constants.ErrUnsupportedDriver, driver)
	}
	if err != nil {
		return nil, err
	}

	return NewStore(pool), nil
}

func (s *store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.pool.InTx(ctx, fn)
}

func (s *store) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if s.pool.Driver() == constants.DriverPostgres {
		schema = postgresSchema
	}

	if _, err := s.pool.Execx(ctx, squirrel.Expr(schema)); err != nil {
		return fmt.Errorf("migrate %s: %w", s.pool.Driver(), err)
	}
	return nil
}

func (s *store) Close() {
	s.pool.Close()
}

package store

import (
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/ougirez/restorank/internal/pkg/constants"
)

const (
	tableRegions        = "regions"
	tableRestaurants    = "restaurants"
	tableSourceRatings  = "source_ratings"
	tableReviews        = "reviews"
	tableRankingWeights = "ranking_weights"
	tableRankings       = "rankings"
	tableCustomKeywords = "custom_keywords"
)

// errNoRowsAffected marks an update that matched nothing.
var errNoRowsAffected = errors.New("no rows affected")

var mapping = map[error]error{
	pgx.ErrNoRows:     constants.ErrDBNotFound,
	sql.ErrNoRows:     constants.ErrDBNotFound,
	errNoRowsAffected: constants.ErrDBNotFound,
}

func wrapErr(err error) error {
	for k, v := range mapping {
		if errors.Is(err, k) {
			return v
		}
	}
	return err
}

// builder возвращает squirrel SQL Builder обьект с плейсхолдерами нужного диалекта.
func (s *store) builder() squirrel.StatementBuilderType {
	if s.pool.Driver() == constants.DriverPostgres {
		return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

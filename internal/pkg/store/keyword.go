package store

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ougirez/restorank/internal/domain"
)

type KeywordStore interface {
	ListActiveKeywords(ctx context.Context) ([]*domain.CustomKeyword, error)
	InsertKeyword(ctx context.Context, kw *domain.CustomKeyword) (int64, error)
	SetKeywordActive(ctx context.Context, id int64, active bool) error
}

var keywordColumns = []string{"id", "category", "sentiment", "keyword", "is_active", "created_at"}

func (s *store) ListActiveKeywords(ctx context.Context) ([]*domain.CustomKeyword, error) {
	query := s.builder().Select(keywordColumns...).
		From(tableCustomKeywords).
		Where(sq.Eq{"is_active": true}).
		OrderBy("id")

	var selected []*domain.CustomKeyword
	if err := s.pool.Selectx(ctx, &selected, query); err != nil {
		return nil, wrapErr(err)
	}
	return selected, nil
}

func (s *store) InsertKeyword(ctx context.Context, kw *domain.CustomKeyword) (int64, error) {
	query := s.builder().Insert(tableCustomKeywords).
		Columns(keywordColumns[1:]...).
		Values(kw.Category, kw.Sentiment, kw.Keyword, kw.IsActive, time.Now().UTC()).
		Suffix(`on conflict (category, sentiment, keyword) do update set is_active=excluded.is_active returning id`)

	var id int64
	if err := s.pool.Getx(ctx, &id, query); err != nil {
		return 0, wrapErr(err)
	}
	return id, nil
}

func (s *store) SetKeywordActive(ctx context.Context, id int64, active bool) error {
	query := s.builder().Update(tableCustomKeywords).
		Set("is_active", active).
		Where(sq.Eq{"id": id})

	n, err := s.pool.Execx(ctx, query)
	if err != nil {
		return wrapErr(err)
	}
	if n == 0 {
		return wrapErr(errNoRowsAffected)
	}
	return nil
}

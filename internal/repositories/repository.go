package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	db "inspection-system/internal/infrastructure/bd"
	"inspection-system/pkg/types"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ListSpec описывает постраничную выборку из одной таблицы.
type ListSpec struct {
	Table         string
	Columns       string
	SearchColumns []string
	Filters       map[string]string
	Sortable      map[string]string
	DefaultSort   string
}

// fetchPage выполняет COUNT и SELECT с одинаковыми условиями.
func fetchPage[T any](ctx context.Context, q Querier, spec ListSpec, filter types.Filter, scan func(pgx.Row) (T, error)) ([]T, uint64, error) {
	countQuery, countArgs, err := db.ApplyFilters(psql.Select("COUNT(*)").From(spec.Table), filter, spec.Filters, spec.SearchColumns).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL count для %s: %w", spec.Table, err)
	}

	var total uint64
	if err := q.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения count для %s: %w", spec.Table, err)
	}
	if total == 0 {
		return []T{}, 0, nil
	}

	selectBuilder := db.ApplyFilters(psql.Select(spec.Columns).From(spec.Table), filter, spec.Filters, spec.SearchColumns)
	selectBuilder = db.ApplyListParams(selectBuilder, filter, spec.Sortable, spec.DefaultSort)

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL select для %s: %w", spec.Table, err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения select для %s: %w", spec.Table, err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ошибка итерации rows для %s: %w", spec.Table, err)
	}
	return items, total, nil
}

// queryAll выполняет готовый запрос и сканирует все строки.
func queryAll[T any](ctx context.Context, q Querier, builder sq.Sqlizer, scan func(pgx.Row) (T, error)) ([]T, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL: %w", err)
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// execCount выполняет изменяющий запрос и возвращает число затронутых строк.
func execCount(ctx context.Context, q Querier, builder sq.Sqlizer) (int64, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки SQL: %w", err)
	}
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

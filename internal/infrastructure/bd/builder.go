package db

import (
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"inspection-system/pkg/types"
)

// ApplyFilters добавляет поиск и фильтры из белого списка. Значение
// фильтра со списком через запятую превращается в IN.
func ApplyFilters(builder sq.SelectBuilder, filter types.Filter, allowedMap map[string]string, searchColumns []string) sq.SelectBuilder {
	if filter.Search != "" && len(searchColumns) > 0 {
		or := sq.Or{}
		for _, col := range searchColumns {
			or = append(or, sq.ILike{col: "%" + filter.Search + "%"})
		}
		builder = builder.Where(or)
	}

	for jsonField, val := range filter.Filter {
		dbCol, ok := allowedMap[jsonField]
		if !ok {
			continue
		}

		if s, ok := val.(string); ok && strings.Contains(s, ",") {
			builder = builder.Where(sq.Eq{dbCol: strings.Split(s, ",")})
		} else {
			builder = builder.Where(sq.Eq{dbCol: val})
		}
	}
	return builder
}

// ApplyListParams добавляет сортировку из белого списка и пагинацию.
func ApplyListParams(builder sq.SelectBuilder, filter types.Filter, allowedSort map[string]string, defaultSort string) sq.SelectBuilder {
	fields := make([]string, 0, len(filter.Sort))
	for jsonField := range filter.Sort {
		if _, ok := allowedSort[jsonField]; ok {
			fields = append(fields, jsonField)
		}
	}
	sort.Strings(fields)

	for _, jsonField := range fields {
		sqlDir := "ASC"
		if strings.ToLower(filter.Sort[jsonField]) == "desc" {
			sqlDir = "DESC"
		}
		builder = builder.OrderBy(fmt.Sprintf("%s %s", allowedSort[jsonField], sqlDir))
	}
	if len(fields) == 0 && defaultSort != "" {
		builder = builder.OrderBy(defaultSort)
	}

	if filter.WithPagination {
		if filter.Limit > 0 {
			builder = builder.Limit(uint64(filter.Limit))
		}
		if filter.Offset > 0 {
			builder = builder.Offset(uint64(filter.Offset))
		}
	}
	return builder
}

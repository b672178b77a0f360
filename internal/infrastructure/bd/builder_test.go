package db

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inspection-system/pkg/types"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func TestApplyFilters(t *testing.T) {
	filter := types.Filter{
		Search: "jlg",
		Filter: map[string]interface{}{
			"type":    "BOOM_LIFT,FORKLIFT",
			"status":  "OPERATIONAL",
			"unknown": "x",
		},
	}
	allowed := map[string]string{"type": "type", "status": "status"}

	b := ApplyFilters(psql.Select("id").From("equipments"), filter, allowed, []string{"model", "serial_number"})
	query, args, err := b.ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "(model ILIKE $1 OR serial_number ILIKE $2)")
	assert.Contains(t, query, "type IN (")
	assert.Contains(t, query, "status = ")
	assert.NotContains(t, query, "unknown")
	assert.Contains(t, args, "%jlg%")
	assert.Contains(t, args, "BOOM_LIFT")
	assert.Contains(t, args, "FORKLIFT")
}

func TestApplyListParams(t *testing.T) {
	allowed := map[string]string{"serial_number": "serial_number", "created_at": "created_at"}

	t.Run("whitelisted sort and pagination", func(t *testing.T) {
		filter := types.Filter{
			Sort:           map[string]string{"serial_number": "desc", "created_at": "asc", "password": "asc"},
			Limit:          10,
			Offset:         20,
			WithPagination: true,
		}
		query, _, err := ApplyListParams(psql.Select("id").From("equipments"), filter, allowed, "id DESC").ToSql()
		require.NoError(t, err)
		assert.Contains(t, query, "ORDER BY created_at ASC, serial_number DESC")
		assert.Contains(t, query, "LIMIT 10")
		assert.Contains(t, query, "OFFSET 20")
		assert.NotContains(t, query, "password")
	})

	t.Run("default sort without pagination", func(t *testing.T) {
		query, _, err := ApplyListParams(psql.Select("id").From("equipments"), types.Filter{Limit: 10}, allowed, "id DESC").ToSql()
		require.NoError(t, err)
		assert.Contains(t, query, "ORDER BY id DESC")
		assert.NotContains(t, query, "LIMIT")
	})
}

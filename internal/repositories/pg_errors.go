package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
)

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsRetryable - ошибки, после которых сериализуемую транзакцию стоит повторить.
// Нарушение уникальности сюда входит: на повторе конкурент уже виден.
func IsRetryable(err error) bool {
	switch pgErrCode(err) {
	case pgSerializationFailure, pgDeadlockDetected, pgUniqueViolation:
		return true
	}
	return false
}

func IsUniqueViolation(err error) bool {
	return pgErrCode(err) == pgUniqueViolation
}

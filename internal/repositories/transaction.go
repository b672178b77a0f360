package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const defaultSerializableRetries = 5

type TxManagerInterface interface {
	RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
	// RunInSerializableTransaction выполняет fn с уровнем SERIALIZABLE и
	// повторяет её целиком при конфликте сериализации.
	RunInSerializableTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type TxManager struct {
	pool       *pgxpool.Pool
	logger     *zap.Logger
	maxRetries uint64
}

func NewTxManager(pool *pgxpool.Pool, logger *zap.Logger) TxManagerInterface {
	return &TxManager{pool: pool, logger: logger, maxRetries: defaultSerializableRetries}
}

func (m *TxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return m.run(ctx, pgx.TxOptions{}, fn)
}

func (m *TxManager) RunInSerializableTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	backoff := retry.WithMaxRetries(m.maxRetries,
		retry.WithJitter(5*time.Millisecond, retry.NewExponential(10*time.Millisecond)))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := m.run(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, fn)
		if err != nil && IsRetryable(err) {
			m.logger.Debug("Конфликт сериализуемой транзакции, повтор",
				zap.Int("attempt", attempt),
				zap.String("pgCode", pgErrCode(err)),
			)
			return retry.RetryableError(err)
		}
		return err
	})
}

// run: откат при ошибке или панике, иначе коммит. Ошибка коммита
// возвращается вызывающему через именованный результат.
func (m *TxManager) run(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) (err error) {
	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("не удалось начать транзакцию: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
			if err != nil {
				err = fmt.Errorf("ошибка при коммите транзакции: %w", err)
			}
		}
	}()

	err = fn(tx)
	return err
}

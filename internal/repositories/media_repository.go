package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"inspection-system/internal/entities"
	apperrors "inspection-system/pkg/errors"
)

const (
	mediaTable      = "media"
	mediaMetaFields = "m.id, m.checkpoint_id, m.media_type, m.storage, m.object_key, m.filename, m.mime_type, m.size, m.created_at"
)

type MediaRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, m entities.Media) (uint64, error)
	// FindByID с withData=true читает и содержимое inline-файла.
	FindByID(ctx context.Context, tx pgx.Tx, id uint64, withData bool) (*entities.Media, error)
	ListByCheckpoint(ctx context.Context, tx pgx.Tx, checkpointID uint64) ([]entities.Media, error)
	ListByInspection(ctx context.Context, tx pgx.Tx, inspectionID uint64) ([]entities.Media, error)
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
	DeleteByCheckpoint(ctx context.Context, tx pgx.Tx, checkpointID uint64) (int64, error)
	// ReferencedKeys возвращает те ключи из списка, на которые есть строки media.
	ReferencedKeys(ctx context.Context, keys []string) (map[string]bool, error)
}

type mediaRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewMediaRepository(storage *pgxpool.Pool, logger *zap.Logger) MediaRepositoryInterface {
	return &mediaRepository{storage: storage, logger: logger}
}

func (r *mediaRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func scanMedia(row pgx.Row) (entities.Media, error) {
	var m entities.Media
	err := row.Scan(&m.ID, &m.CheckpointID, &m.MediaType, &m.Storage, &m.ObjectKey, &m.Filename, &m.MimeType, &m.Size, &m.CreatedAt)
	if err != nil {
		return m, fmt.Errorf("ошибка сканирования media: %w", err)
	}
	return m, nil
}

func listMediaByInspection(ctx context.Context, q Querier, inspectionID uint64) ([]entities.Media, error) {
	return queryAll(ctx, q,
		psql.Select(mediaMetaFields).From(mediaTable+" m").
			Join(checkpointTable+" c ON c.id = m.checkpoint_id").
			Join(sectionTable+" s ON s.id = c.section_id").
			Where(sq.Eq{"s.inspection_id": inspectionID}).
			OrderBy("m.id"),
		scanMedia)
}

func (r *mediaRepository) Create(ctx context.Context, tx pgx.Tx, m entities.Media) (uint64, error) {
	query, args, err := psql.Insert(mediaTable).
		Columns("checkpoint_id", "media_type", "storage", "data", "object_key", "filename", "mime_type", "size").
		Values(m.CheckpointID, m.MediaType, m.Storage, m.Data, m.ObjectKey, m.Filename, m.MimeType, m.Size).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create: %w", err)
	}

	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return 0, apperrors.NotFound("контрольная точка", m.CheckpointID)
		}
		return 0, fmt.Errorf("ошибка создания media: %w", err)
	}
	return id, nil
}

func (r *mediaRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64, withData bool) (*entities.Media, error) {
	columns := mediaMetaFields
	if withData {
		columns += ", m.data"
	}
	query, args, err := psql.Select(columns).From(mediaTable + " m").Where(sq.Eq{"m.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для media: %w", err)
	}

	var m entities.Media
	dest := []any{&m.ID, &m.CheckpointID, &m.MediaType, &m.Storage, &m.ObjectKey, &m.Filename, &m.MimeType, &m.Size, &m.CreatedAt}
	if withData {
		dest = append(dest, &m.Data)
	}
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("медиафайл", id)
		}
		return nil, fmt.Errorf("ошибка сканирования media: %w", err)
	}
	return &m, nil
}

func (r *mediaRepository) ListByCheckpoint(ctx context.Context, tx pgx.Tx, checkpointID uint64) ([]entities.Media, error) {
	return queryAll(ctx, r.getQuerier(tx),
		psql.Select(mediaMetaFields).From(mediaTable+" m").
			Where(sq.Eq{"m.checkpoint_id": checkpointID}).
			OrderBy("m.id"),
		scanMedia)
}

func (r *mediaRepository) ListByInspection(ctx context.Context, tx pgx.Tx, inspectionID uint64) ([]entities.Media, error) {
	return listMediaByInspection(ctx, r.getQuerier(tx), inspectionID)
}

func (r *mediaRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	n, err := execCount(ctx, r.getQuerier(tx), psql.Delete(mediaTable).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("ошибка удаления media: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("медиафайл", id)
	}
	return nil
}

func (r *mediaRepository) DeleteByCheckpoint(ctx context.Context, tx pgx.Tx, checkpointID uint64) (int64, error) {
	n, err := execCount(ctx, r.getQuerier(tx), psql.Delete(mediaTable).Where(sq.Eq{"checkpoint_id": checkpointID}))
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления media точки %d: %w", checkpointID, err)
	}
	return n, nil
}

func (r *mediaRepository) ReferencedKeys(ctx context.Context, keys []string) (map[string]bool, error) {
	found := make(map[string]bool, len(keys))
	if len(keys) == 0 {
		return found, nil
	}
	existing, err := queryAll(ctx, r.storage,
		psql.Select("object_key").From(mediaTable).Where(sq.Eq{"object_key": keys}),
		func(row pgx.Row) (string, error) {
			var key string
			err := row.Scan(&key)
			return key, err
		})
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска ключей media: %w", err)
	}
	for _, k := range existing {
		found[k] = true
	}
	return found, nil
}

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
	"inspection-system/pkg/constants"
	apperrors "inspection-system/pkg/errors"
)

const (
	sectionTable     = "sections"
	sectionFields    = "id, inspection_id, name, code, sort_order"
	checkpointTable  = "checkpoints"
	checkpointFields = "c.id, c.section_id, c.name, c.critical, c.sort_order, c.status, c.notes, c.estimated_hours"
)

// CheckpointWithInspection - точка вместе со статусом её осмотра.
type CheckpointWithInspection struct {
	entities.Checkpoint
	InspectionID     uint64
	InspectionStatus string
}

type CheckpointRepositoryInterface interface {
	CreateSection(ctx context.Context, tx pgx.Tx, s entities.Section) (uint64, error)
	CreateCheckpoint(ctx context.Context, tx pgx.Tx, c entities.Checkpoint) (uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*CheckpointWithInspection, error)
	Update(ctx context.Context, tx pgx.Tx, id uint64, status string, notes *string, estimatedHours *float64) error
	ListSections(ctx context.Context, tx pgx.Tx, inspectionID uint64) ([]entities.Section, error)
	ListByInspection(ctx context.Context, tx pgx.Tx, inspectionID uint64) ([]entities.Checkpoint, error)
	// MarkUnsetAsPass ставит PASS всем точкам без статуса и возвращает их число.
	MarkUnsetAsPass(ctx context.Context, tx pgx.Tx, inspectionID uint64) (int64, error)
}

type checkpointRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewCheckpointRepository(storage *pgxpool.Pool, logger *zap.Logger) CheckpointRepositoryInterface {
	return &checkpointRepository{storage: storage, logger: logger}
}

func (r *checkpointRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func scanSection(row pgx.Row) (entities.Section, error) {
	var s entities.Section
	if err := row.Scan(&s.ID, &s.InspectionID, &s.Name, &s.Code, &s.Order); err != nil {
		return s, fmt.Errorf("ошибка сканирования sections: %w", err)
	}
	return s, nil
}

func scanCheckpoint(row pgx.Row) (entities.Checkpoint, error) {
	var c entities.Checkpoint
	if err := row.Scan(&c.ID, &c.SectionID, &c.Name, &c.Critical, &c.Order, &c.Status, &c.Notes, &c.EstimatedHours); err != nil {
		return c, fmt.Errorf("ошибка сканирования checkpoints: %w", err)
	}
	return c, nil
}

func listSections(ctx context.Context, q Querier, inspectionID uint64) ([]entities.Section, error) {
	return queryAll(ctx, q,
		psql.Select(sectionFields).From(sectionTable).
			Where(sq.Eq{"inspection_id": inspectionID}).
			OrderBy("sort_order", "id"),
		scanSection)
}

func listCheckpointsByInspection(ctx context.Context, q Querier, inspectionID uint64) ([]entities.Checkpoint, error) {
	return queryAll(ctx, q,
		psql.Select(checkpointFields).From(checkpointTable+" c").
			Join(sectionTable+" s ON s.id = c.section_id").
			Where(sq.Eq{"s.inspection_id": inspectionID}).
			OrderBy("s.sort_order", "c.sort_order", "c.id"),
		scanCheckpoint)
}

func (r *checkpointRepository) CreateSection(ctx context.Context, tx pgx.Tx, s entities.Section) (uint64, error) {
	query, args, err := psql.Insert(sectionTable).
		Columns("inspection_id", "name", "code", "sort_order").
		Values(s.InspectionID, s.Name, s.Code, s.Order).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса CreateSection: %w", err)
	}
	var id uint64
	if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("ошибка создания sections: %w", err)
	}
	return id, nil
}

func (r *checkpointRepository) CreateCheckpoint(ctx context.Context, tx pgx.Tx, c entities.Checkpoint) (uint64, error) {
	query, args, err := psql.Insert(checkpointTable).
		Columns("section_id", "name", "critical", "sort_order", "status", "notes", "estimated_hours").
		Values(c.SectionID, c.Name, c.Critical, c.Order, c.Status, c.Notes, c.EstimatedHours).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса CreateCheckpoint: %w", err)
	}
	var id uint64
	if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("ошибка создания checkpoints: %w", err)
	}
	return id, nil
}

// FindByID внутри транзакции берёт FOR SHARE на строку осмотра: завершение
// (FOR UPDATE) и правка точки не проходят одновременно, и после ожидания
// статус осмотра перечитывается.
func (r *checkpointRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*CheckpointWithInspection, error) {
	builder := psql.Select(checkpointFields, "i.id", "i.status").
		From(checkpointTable + " c").
		Join(sectionTable + " s ON s.id = c.section_id").
		Join(inspectionTable + " i ON i.id = s.inspection_id").
		Where(sq.Eq{"c.id": id})
	if tx != nil {
		builder = builder.Suffix("FOR SHARE OF i")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для checkpoints: %w", err)
	}

	var out CheckpointWithInspection
	c := &out.Checkpoint
	err = r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.SectionID, &c.Name, &c.Critical, &c.Order, &c.Status, &c.Notes, &c.EstimatedHours,
		&out.InspectionID, &out.InspectionStatus,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("контрольная точка", id)
		}
		return nil, fmt.Errorf("ошибка сканирования checkpoints: %w", err)
	}
	return &out, nil
}

func (r *checkpointRepository) Update(ctx context.Context, tx pgx.Tx, id uint64, status string, notes *string, estimatedHours *float64) error {
	n, err := execCount(ctx, r.getQuerier(tx), psql.Update(checkpointTable).
		Set("status", status).
		Set("notes", notes).
		Set("estimated_hours", estimatedHours).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("ошибка обновления checkpoints: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("контрольная точка", id)
	}
	return nil
}

func (r *checkpointRepository) ListSections(ctx context.Context, tx pgx.Tx, inspectionID uint64) ([]entities.Section, error) {
	return listSections(ctx, r.getQuerier(tx), inspectionID)
}

func (r *checkpointRepository) ListByInspection(ctx context.Context, tx pgx.Tx, inspectionID uint64) ([]entities.Checkpoint, error) {
	return listCheckpointsByInspection(ctx, r.getQuerier(tx), inspectionID)
}

func (r *checkpointRepository) MarkUnsetAsPass(ctx context.Context, tx pgx.Tx, inspectionID uint64) (int64, error) {
	// Подзапрос с "?": плейсхолдеры перенумерует внешний запрос.
	sections := sq.Select("id").From(sectionTable).Where(sq.Eq{"inspection_id": inspectionID})
	sectionsSQL, sectionsArgs, err := sections.ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки подзапроса: %w", err)
	}

	n, err := execCount(ctx, r.getQuerier(tx), sq.Update(checkpointTable).
		Set("status", constants.CheckpointStatusPass).
		Set("notes", nil).
		Set("estimated_hours", nil).
		Where(sq.Eq{"status": nil}).
		Where(sq.Expr("section_id IN ("+sectionsSQL+")", sectionsArgs...)).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return 0, fmt.Errorf("ошибка массового обновления checkpoints: %w", err)
	}
	return n, nil
}

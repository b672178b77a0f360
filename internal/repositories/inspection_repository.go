package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"inspection-system/internal/entities"
	"inspection-system/pkg/constants"
	apperrors "inspection-system/pkg/errors"
	"inspection-system/pkg/types"
)

const (
	inspectionTable  = "inspections"
	inspectionFields = "id, equipment_id, technician_id, template_id, task_id, serial_number, freight_id, technician_remarks, status, started_at, completed_at"
)

var allowedInspectionFilters = map[string]string{
	"equipmentId":  "equipment_id",
	"technicianId": "technician_id",
	"status":       "status",
	"taskId":       "task_id",
	"freightId":    "freight_id",
}

var allowedInspectionSort = map[string]string{
	"id":          "id",
	"startedAt":   "started_at",
	"completedAt": "completed_at",
}

type InspectionRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Inspection, error)
	// FindByIDForUpdate блокирует строку осмотра до конца транзакции.
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Inspection, error)
	FindActiveByEquipment(ctx context.Context, tx pgx.Tx, equipmentID uint64) (*entities.Inspection, error)
	GetAll(ctx context.Context, filter types.Filter) ([]*entities.Inspection, uint64, error)
	Create(ctx context.Context, tx pgx.Tx, i entities.Inspection) (uint64, error)
	MarkCompleted(ctx context.Context, tx pgx.Tx, id uint64, completedAt time.Time, remarks *string) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
	LoadDetail(ctx context.Context, tx pgx.Tx, id uint64) (*entities.InspectionDetail, error)
}

type inspectionRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewInspectionRepository(storage *pgxpool.Pool, logger *zap.Logger) InspectionRepositoryInterface {
	return &inspectionRepository{storage: storage, logger: logger}
}

func (r *inspectionRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func scanInspection(row pgx.Row) (*entities.Inspection, error) {
	var i entities.Inspection
	err := row.Scan(
		&i.ID, &i.EquipmentID, &i.TechnicianID, &i.TemplateID, &i.TaskID, &i.SerialNumber,
		&i.FreightID, &i.TechnicianRemarks, &i.Status, &i.StartedAt, &i.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования inspections: %w", err)
	}
	return &i, nil
}

func (r *inspectionRepository) findOne(ctx context.Context, querier Querier, builder sq.SelectBuilder) (*entities.Inspection, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для inspections: %w", err)
	}
	return scanInspection(querier.QueryRow(ctx, query, args...))
}

func (r *inspectionRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Inspection, error) {
	i, err := r.findOne(ctx, r.getQuerier(tx), psql.Select(inspectionFields).From(inspectionTable).Where(sq.Eq{"id": id}))
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.NotFound("осмотр", id)
	}
	return i, err
}

func (r *inspectionRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Inspection, error) {
	i, err := r.findOne(ctx, tx, psql.Select(inspectionFields).From(inspectionTable).Where(sq.Eq{"id": id}).Suffix("FOR UPDATE"))
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.NotFound("осмотр", id)
	}
	return i, err
}

func (r *inspectionRepository) FindActiveByEquipment(ctx context.Context, tx pgx.Tx, equipmentID uint64) (*entities.Inspection, error) {
	return r.findOne(ctx, r.getQuerier(tx), psql.Select(inspectionFields).From(inspectionTable).
		Where(sq.Eq{"equipment_id": equipmentID, "status": constants.InspectionStatusInProgress}).
		Limit(1))
}

func (r *inspectionRepository) GetAll(ctx context.Context, filter types.Filter) ([]*entities.Inspection, uint64, error) {
	return fetchPage(ctx, r.storage, ListSpec{
		Table:         inspectionTable,
		Columns:       inspectionFields,
		SearchColumns: []string{"serial_number", "task_id", "freight_id"},
		Filters:       allowedInspectionFilters,
		Sortable:      allowedInspectionSort,
		DefaultSort:   "started_at DESC",
	}, filter, scanInspection)
}

// Create не переводит нарушение уникальности в Conflict: код ошибки
// нужен менеджеру транзакций для повтора.
func (r *inspectionRepository) Create(ctx context.Context, tx pgx.Tx, i entities.Inspection) (uint64, error) {
	query, args, err := psql.Insert(inspectionTable).
		Columns("equipment_id", "technician_id", "template_id", "task_id", "serial_number", "freight_id", "technician_remarks", "status", "started_at").
		Values(i.EquipmentID, i.TechnicianID, i.TemplateID, i.TaskID, i.SerialNumber, i.FreightID, i.TechnicianRemarks, i.Status, i.StartedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create: %w", err)
	}

	var newID uint64
	if err := tx.QueryRow(ctx, query, args...).Scan(&newID); err != nil {
		return 0, fmt.Errorf("ошибка создания inspections: %w", err)
	}
	return newID, nil
}

func (r *inspectionRepository) MarkCompleted(ctx context.Context, tx pgx.Tx, id uint64, completedAt time.Time, remarks *string) error {
	update := psql.Update(inspectionTable).
		Set("status", constants.InspectionStatusCompleted).
		Set("completed_at", completedAt)
	if remarks != nil {
		update = update.Set("technician_remarks", *remarks)
	}
	n, err := execCount(ctx, tx, update.
		Where(sq.Eq{"id": id, "status": constants.InspectionStatusInProgress}))
	if err != nil {
		return fmt.Errorf("ошибка завершения inspections: %w", err)
	}
	if n == 0 {
		return apperrors.InvalidArgument("осмотр %d не находится в работе", id)
	}
	return nil
}

func (r *inspectionRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	n, err := execCount(ctx, r.getQuerier(tx), psql.Delete(inspectionTable).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("ошибка удаления inspections: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("осмотр", id)
	}
	return nil
}

// LoadDetail собирает дерево осмотра: технику, техника, разделы, точки и
// метаданные медиа (без содержимого файлов).
func (r *inspectionRepository) LoadDetail(ctx context.Context, tx pgx.Tx, id uint64) (*entities.InspectionDetail, error) {
	q := r.getQuerier(tx)

	query, args, err := psql.Select(
		"i.id, i.equipment_id, i.technician_id, i.template_id, i.task_id, i.serial_number, i.freight_id, i.technician_remarks, i.status, i.started_at, i.completed_at",
		"e.id, e.type, e.model, e.serial_number, e.location, e.hours_used, e.status, e.task_id, e.created_at, e.updated_at",
		"u.id, u.name, u.email",
		"t.name",
	).
		From(inspectionTable + " i").
		Join(equipmentTable + " e ON e.id = i.equipment_id").
		Join(userTable + " u ON u.id = i.technician_id").
		LeftJoin(templateTable + " t ON t.id = i.template_id").
		Where(sq.Eq{"i.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL LoadDetail: %w", err)
	}

	var d entities.InspectionDetail
	err = q.QueryRow(ctx, query, args...).Scan(
		&d.ID, &d.EquipmentID, &d.TechnicianID, &d.TemplateID, &d.TaskID, &d.SerialNumber,
		&d.FreightID, &d.TechnicianRemarks, &d.Status, &d.StartedAt, &d.CompletedAt,
		&d.Equipment.ID, &d.Equipment.Type, &d.Equipment.Model, &d.Equipment.SerialNumber, &d.Equipment.Location,
		&d.Equipment.HoursUsed, &d.Equipment.Status, &d.Equipment.TaskID, &d.Equipment.CreatedAt, &d.Equipment.UpdatedAt,
		&d.Technician.ID, &d.Technician.Name, &d.Technician.Email,
		&d.TemplateName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("осмотр", id)
		}
		return nil, fmt.Errorf("ошибка загрузки осмотра %d: %w", id, err)
	}

	sections, err := listSections(ctx, q, id)
	if err != nil {
		return nil, err
	}
	checkpoints, err := listCheckpointsByInspection(ctx, q, id)
	if err != nil {
		return nil, err
	}
	media, err := listMediaByInspection(ctx, q, id)
	if err != nil {
		return nil, err
	}

	mediaByCheckpoint := make(map[uint64][]entities.Media)
	for _, m := range media {
		mediaByCheckpoint[m.CheckpointID] = append(mediaByCheckpoint[m.CheckpointID], m)
	}

	index := make(map[uint64]int, len(sections))
	d.Sections = make([]entities.SectionDetail, 0, len(sections))
	for i, s := range sections {
		index[s.ID] = i
		d.Sections = append(d.Sections, entities.SectionDetail{Section: s, Checkpoints: []entities.CheckpointDetail{}})
	}
	for _, c := range checkpoints {
		i, ok := index[c.SectionID]
		if !ok {
			continue
		}
		cm := mediaByCheckpoint[c.ID]
		if cm == nil {
			cm = []entities.Media{}
		}
		d.Sections[i].Checkpoints = append(d.Sections[i].Checkpoints, entities.CheckpointDetail{Checkpoint: c, Media: cm})
	}
	return &d, nil
}

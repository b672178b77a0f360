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
	"inspection-system/pkg/types"
)

const (
	equipmentTable  = "equipments"
	equipmentFields = "id, type, model, serial_number, location, hours_used, status, task_id, created_at, updated_at"
)

// allowedEquipmentFilters - БЕЛЫЙ СПИСОК для фильтрации
var allowedEquipmentFilters = map[string]string{
	"id":     "id",
	"type":   "type",
	"status": "status",
}

var allowedEquipmentSort = map[string]string{
	"id":           "id",
	"model":        "model",
	"serialNumber": "serial_number",
	"hoursUsed":    "hours_used",
	"createdAt":    "created_at",
}

type EquipmentRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error)
	FindBySerial(ctx context.Context, tx pgx.Tx, serial string) (*entities.Equipment, error)
	GetAll(ctx context.Context, filter types.Filter) ([]*entities.Equipment, uint64, error)
	Create(ctx context.Context, tx pgx.Tx, e entities.Equipment) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, id uint64, e entities.Equipment) error
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type equipmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEquipmentRepository(storage *pgxpool.Pool, logger *zap.Logger) EquipmentRepositoryInterface {
	return &equipmentRepository{storage: storage, logger: logger}
}

func (r *equipmentRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func scanEquipment(row pgx.Row) (*entities.Equipment, error) {
	var e entities.Equipment
	err := row.Scan(
		&e.ID, &e.Type, &e.Model, &e.SerialNumber, &e.Location,
		&e.HoursUsed, &e.Status, &e.TaskID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования equipments: %w", err)
	}
	return &e, nil
}

func (r *equipmentRepository) findOne(ctx context.Context, querier Querier, where sq.Eq) (*entities.Equipment, error) {
	query, args, err := psql.Select(equipmentFields).From(equipmentTable).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для equipments: %w", err)
	}
	return scanEquipment(querier.QueryRow(ctx, query, args...))
}

func (r *equipmentRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	return r.findOne(ctx, r.getQuerier(tx), sq.Eq{"id": id})
}

func (r *equipmentRepository) FindBySerial(ctx context.Context, tx pgx.Tx, serial string) (*entities.Equipment, error) {
	return r.findOne(ctx, r.getQuerier(tx), sq.Eq{"serial_number": serial})
}

func (r *equipmentRepository) GetAll(ctx context.Context, filter types.Filter) ([]*entities.Equipment, uint64, error) {
	return fetchPage(ctx, r.storage, ListSpec{
		Table:         equipmentTable,
		Columns:       equipmentFields,
		SearchColumns: []string{"model", "serial_number", "location"},
		Filters:       allowedEquipmentFilters,
		Sortable:      allowedEquipmentSort,
		DefaultSort:   "id DESC",
	}, filter, scanEquipment)
}

func (r *equipmentRepository) Create(ctx context.Context, tx pgx.Tx, e entities.Equipment) (uint64, error) {
	query, args, err := psql.Insert(equipmentTable).
		Columns("type", "model", "serial_number", "location", "hours_used", "status", "task_id").
		Values(e.Type, e.Model, e.SerialNumber, e.Location, e.HoursUsed, e.Status, e.TaskID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create: %w", err)
	}

	var newID uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&newID); err != nil {
		if IsUniqueViolation(err) {
			return 0, apperrors.Conflict("техника с серийным номером %s уже существует", e.SerialNumber)
		}
		return 0, fmt.Errorf("ошибка создания equipments: %w", err)
	}
	return newID, nil
}

func (r *equipmentRepository) Update(ctx context.Context, tx pgx.Tx, id uint64, e entities.Equipment) error {
	n, err := execCount(ctx, r.getQuerier(tx), psql.Update(equipmentTable).
		Set("type", e.Type).
		Set("model", e.Model).
		Set("serial_number", e.SerialNumber).
		Set("location", e.Location).
		Set("hours_used", e.HoursUsed).
		Set("status", e.Status).
		Set("task_id", e.TaskID).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}))
	if err != nil {
		if IsUniqueViolation(err) {
			return apperrors.Conflict("техника с серийным номером %s уже существует", e.SerialNumber)
		}
		return fmt.Errorf("ошибка обновления equipments: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("техника", id)
	}
	return nil
}

func (r *equipmentRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error {
	n, err := execCount(ctx, r.getQuerier(tx), psql.Update(equipmentTable).
		Set("status", status).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса equipments: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("техника", id)
	}
	return nil
}

func (r *equipmentRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	n, err := execCount(ctx, r.getQuerier(tx), psql.Delete(equipmentTable).Where(sq.Eq{"id": id}))
	if err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return apperrors.Conflict("технику %d нельзя удалить: по ней есть осмотры", id)
		}
		return fmt.Errorf("ошибка удаления equipments: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("техника", id)
	}
	return nil
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"inspection-system/internal/entities"
	apperrors "inspection-system/pkg/errors"
	"inspection-system/pkg/types"
)

const (
	templateTable           = "inspection_templates"
	templateFields          = "id, name, equipment_type, is_default, parent_template_id, created_at, updated_at"
	templateSectionTable    = "template_sections"
	templateCheckpointTable = "template_checkpoints"
)

var allowedTemplateFilters = map[string]string{
	"equipmentType": "equipment_type",
	"isDefault":     "is_default",
}

var allowedTemplateSort = map[string]string{
	"id":            "id",
	"name":          "name",
	"equipmentType": "equipment_type",
}

type TemplateRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.InspectionTemplate, error)
	// FindDefault возвращает шаблон по умолчанию для типа техники или ErrNotFound.
	FindDefault(ctx context.Context, tx pgx.Tx, equipmentType string) (*entities.InspectionTemplate, error)
	LoadSections(ctx context.Context, tx pgx.Tx, templateID uint64) ([]entities.TemplateSection, error)
	GetAll(ctx context.Context, filter types.Filter) ([]*entities.InspectionTemplate, uint64, error)
	Create(ctx context.Context, tx pgx.Tx, t entities.InspectionTemplate) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, id uint64, t entities.InspectionTemplate) error
	ClearDefault(ctx context.Context, tx pgx.Tx, equipmentType string, exceptID uint64) error
	ReplaceSections(ctx context.Context, tx pgx.Tx, templateID uint64, sections []entities.TemplateSection) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type templateRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewTemplateRepository(storage *pgxpool.Pool, logger *zap.Logger) TemplateRepositoryInterface {
	return &templateRepository{storage: storage, logger: logger}
}

func (r *templateRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func scanTemplate(row pgx.Row) (*entities.InspectionTemplate, error) {
	var t entities.InspectionTemplate
	err := row.Scan(&t.ID, &t.Name, &t.EquipmentType, &t.IsDefault, &t.ParentTemplateID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования inspection_templates: %w", err)
	}
	return &t, nil
}

func (r *templateRepository) findOne(ctx context.Context, querier Querier, where sq.Sqlizer) (*entities.InspectionTemplate, error) {
	query, args, err := psql.Select(templateFields).From(templateTable).Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для inspection_templates: %w", err)
	}
	return scanTemplate(querier.QueryRow(ctx, query, args...))
}

func (r *templateRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.InspectionTemplate, error) {
	t, err := r.findOne(ctx, r.getQuerier(tx), sq.Eq{"id": id})
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.NotFound("шаблон", id)
	}
	return t, err
}

func (r *templateRepository) FindDefault(ctx context.Context, tx pgx.Tx, equipmentType string) (*entities.InspectionTemplate, error) {
	return r.findOne(ctx, r.getQuerier(tx), sq.Eq{"equipment_type": equipmentType, "is_default": true})
}

func (r *templateRepository) LoadSections(ctx context.Context, tx pgx.Tx, templateID uint64) ([]entities.TemplateSection, error) {
	q := r.getQuerier(tx)

	sections, err := queryAll(ctx, q,
		psql.Select("id, template_id, name, sort_order").
			From(templateSectionTable).
			Where(sq.Eq{"template_id": templateID}).
			OrderBy("sort_order", "id"),
		func(row pgx.Row) (entities.TemplateSection, error) {
			var s entities.TemplateSection
			err := row.Scan(&s.ID, &s.TemplateID, &s.Name, &s.Order)
			return s, err
		})
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки разделов шаблона %d: %w", templateID, err)
	}

	checkpoints, err := queryAll(ctx, q,
		psql.Select("c.id, c.section_id, c.name, c.critical, c.sort_order").
			From(templateCheckpointTable+" c").
			Join(templateSectionTable+" s ON s.id = c.section_id").
			Where(sq.Eq{"s.template_id": templateID}).
			OrderBy("c.sort_order", "c.id"),
		func(row pgx.Row) (entities.TemplateCheckpoint, error) {
			var c entities.TemplateCheckpoint
			err := row.Scan(&c.ID, &c.SectionID, &c.Name, &c.Critical, &c.Order)
			return c, err
		})
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки точек шаблона %d: %w", templateID, err)
	}

	index := make(map[uint64]int, len(sections))
	for i := range sections {
		sections[i].Checkpoints = []entities.TemplateCheckpoint{}
		index[sections[i].ID] = i
	}
	for _, c := range checkpoints {
		if i, ok := index[c.SectionID]; ok {
			sections[i].Checkpoints = append(sections[i].Checkpoints, c)
		}
	}
	return sections, nil
}

func (r *templateRepository) GetAll(ctx context.Context, filter types.Filter) ([]*entities.InspectionTemplate, uint64, error) {
	return fetchPage(ctx, r.storage, ListSpec{
		Table:         templateTable,
		Columns:       templateFields,
		SearchColumns: []string{"name"},
		Filters:       allowedTemplateFilters,
		Sortable:      allowedTemplateSort,
		DefaultSort:   "id DESC",
	}, filter, scanTemplate)
}

func (r *templateRepository) Create(ctx context.Context, tx pgx.Tx, t entities.InspectionTemplate) (uint64, error) {
	query, args, err := psql.Insert(templateTable).
		Columns("name", "equipment_type", "is_default", "parent_template_id").
		Values(t.Name, t.EquipmentType, t.IsDefault, t.ParentTemplateID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create: %w", err)
	}

	var newID uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&newID); err != nil {
		if IsUniqueViolation(err) {
			return 0, apperrors.Conflict("для типа %s уже есть шаблон по умолчанию", t.EquipmentType)
		}
		return 0, fmt.Errorf("ошибка создания inspection_templates: %w", err)
	}
	return newID, nil
}

func (r *templateRepository) Update(ctx context.Context, tx pgx.Tx, id uint64, t entities.InspectionTemplate) error {
	n, err := execCount(ctx, r.getQuerier(tx), psql.Update(templateTable).
		Set("name", t.Name).
		Set("equipment_type", t.EquipmentType).
		Set("is_default", t.IsDefault).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}))
	if err != nil {
		if IsUniqueViolation(err) {
			return apperrors.Conflict("для типа %s уже есть шаблон по умолчанию", t.EquipmentType)
		}
		return fmt.Errorf("ошибка обновления inspection_templates: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("шаблон", id)
	}
	return nil
}

func (r *templateRepository) ClearDefault(ctx context.Context, tx pgx.Tx, equipmentType string, exceptID uint64) error {
	_, err := execCount(ctx, r.getQuerier(tx), psql.Update(templateTable).
		Set("is_default", false).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"equipment_type": equipmentType, "is_default": true}).
		Where(sq.NotEq{"id": exceptID}))
	if err != nil {
		return fmt.Errorf("ошибка сброса шаблона по умолчанию: %w", err)
	}
	return nil
}

// ReplaceSections удаляет разделы шаблона и вставляет переданные заново.
func (r *templateRepository) ReplaceSections(ctx context.Context, tx pgx.Tx, templateID uint64, sections []entities.TemplateSection) error {
	if _, err := execCount(ctx, tx, psql.Delete(templateSectionTable).Where(sq.Eq{"template_id": templateID})); err != nil {
		return fmt.Errorf("ошибка удаления разделов шаблона: %w", err)
	}

	sorted := append([]entities.TemplateSection(nil), sections...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	for i, s := range sorted {
		query, args, err := psql.Insert(templateSectionTable).
			Columns("template_id", "name", "sort_order").
			Values(templateID, s.Name, i+1).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("ошибка сборки запроса раздела: %w", err)
		}
		var sectionID uint64
		if err := tx.QueryRow(ctx, query, args...).Scan(&sectionID); err != nil {
			return fmt.Errorf("ошибка создания раздела шаблона: %w", err)
		}

		checkpoints := append([]entities.TemplateCheckpoint(nil), s.Checkpoints...)
		sort.SliceStable(checkpoints, func(a, b int) bool { return checkpoints[a].Order < checkpoints[b].Order })
		if len(checkpoints) == 0 {
			continue
		}

		insert := psql.Insert(templateCheckpointTable).Columns("section_id", "name", "critical", "sort_order")
		for j, c := range checkpoints {
			insert = insert.Values(sectionID, c.Name, c.Critical, j+1)
		}
		if _, err := execCount(ctx, tx, insert); err != nil {
			return fmt.Errorf("ошибка создания точек шаблона: %w", err)
		}
	}
	return nil
}

func (r *templateRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	n, err := execCount(ctx, r.getQuerier(tx), psql.Delete(templateTable).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("ошибка удаления inspection_templates: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("шаблон", id)
	}
	return nil
}

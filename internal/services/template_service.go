package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"inspection-system/internal/dto"
	"inspection-system/internal/entities"
	"inspection-system/internal/repositories"
	apperrors "inspection-system/pkg/errors"
	"inspection-system/pkg/types"
	"inspection-system/pkg/utils"
)

type TemplateServiceInterface interface {
	GetTemplates(ctx context.Context, filter types.Filter) ([]*entities.InspectionTemplate, uint64, error)
	FindTemplate(ctx context.Context, id uint64) (*entities.InspectionTemplate, error)
	CreateTemplate(ctx context.Context, payload dto.CreateTemplateDTO) (*entities.InspectionTemplate, error)
	UpdateTemplate(ctx context.Context, id uint64, payload dto.UpdateTemplateDTO) (*entities.InspectionTemplate, error)
	DeleteTemplate(ctx context.Context, id uint64) error
}

type TemplateService struct {
	txManager    repositories.TxManagerInterface
	templateRepo repositories.TemplateRepositoryInterface
	logger       *zap.Logger
}

func NewTemplateService(
	txManager repositories.TxManagerInterface,
	templateRepo repositories.TemplateRepositoryInterface,
	logger *zap.Logger,
) *TemplateService {
	return &TemplateService{
		txManager:    txManager,
		templateRepo: templateRepo,
		logger:       logger.Named("template_service"),
	}
}

func (s *TemplateService) GetTemplates(ctx context.Context, filter types.Filter) ([]*entities.InspectionTemplate, uint64, error) {
	return s.templateRepo.GetAll(ctx, filter)
}

func (s *TemplateService) FindTemplate(ctx context.Context, id uint64) (*entities.InspectionTemplate, error) {
	return s.load(ctx, nil, id)
}

func (s *TemplateService) load(ctx context.Context, tx pgx.Tx, id uint64) (*entities.InspectionTemplate, error) {
	t, err := s.templateRepo.FindByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("шаблон", id)
		}
		return nil, err
	}
	sections, err := s.templateRepo.LoadSections(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	t.Sections = sections
	return t, nil
}

// sectionsFromDTO нумерует разделы и точки по порядку в запросе, с единицы.
func sectionsFromDTO(in []dto.TemplateSectionDTO) []entities.TemplateSection {
	out := make([]entities.TemplateSection, 0, len(in))
	for _, sec := range in {
		section := entities.TemplateSection{
			Name:        strings.TrimSpace(sec.Name),
			Checkpoints: make([]entities.TemplateCheckpoint, 0, len(sec.Checkpoints)),
		}
		for _, cp := range sec.Checkpoints {
			section.Checkpoints = append(section.Checkpoints, entities.TemplateCheckpoint{
				Name:     strings.TrimSpace(cp.Name),
				Critical: cp.Critical,
			})
		}
		out = append(out, section)
	}
	return renumberSections(out)
}

// renumberSections сбрасывает идентификаторы и проставляет порядок заново,
// чтобы копия родителя и новые разделы шли одной последовательностью.
func renumberSections(sections []entities.TemplateSection) []entities.TemplateSection {
	out := make([]entities.TemplateSection, len(sections))
	for i, sec := range sections {
		cps := make([]entities.TemplateCheckpoint, len(sec.Checkpoints))
		for j, cp := range sec.Checkpoints {
			cps[j] = entities.TemplateCheckpoint{Name: cp.Name, Critical: cp.Critical, Order: j + 1}
		}
		out[i] = entities.TemplateSection{Name: sec.Name, Order: i + 1, Checkpoints: cps}
	}
	return out
}

// CreateTemplate: при parentTemplateId разделы родителя копируются в момент
// создания, разделы из запроса добавляются после них. Дальнейшие правки
// родителя на дочерний шаблон не влияют.
func (s *TemplateService) CreateTemplate(ctx context.Context, payload dto.CreateTemplateDTO) (*entities.InspectionTemplate, error) {
	template := entities.InspectionTemplate{
		Name:             strings.TrimSpace(payload.Name),
		EquipmentType:    payload.EquipmentType,
		IsDefault:        payload.IsDefault,
		ParentTemplateID: utils.NullUint64Ptr(payload.ParentTemplateID),
	}

	var id uint64
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var sections []entities.TemplateSection
		if template.ParentTemplateID != nil {
			parent, err := s.load(ctx, tx, *template.ParentTemplateID)
			if err != nil {
				return err
			}
			sections = append(sections, parent.Sections...)
		}
		sections = renumberSections(append(sections, sectionsFromDTO(payload.Sections)...))

		if template.IsDefault {
			if err := s.templateRepo.ClearDefault(ctx, tx, template.EquipmentType, 0); err != nil {
				return err
			}
		}

		newID, err := s.templateRepo.Create(ctx, tx, template)
		if err != nil {
			return err
		}
		id = newID
		return s.templateRepo.ReplaceSections(ctx, tx, id, sections)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Шаблон создан",
		zap.Uint64("id", id),
		zap.String("equipmentType", template.EquipmentType),
		zap.Bool("isDefault", template.IsDefault))
	return s.load(ctx, nil, id)
}

func (s *TemplateService) UpdateTemplate(ctx context.Context, id uint64, payload dto.UpdateTemplateDTO) (*entities.InspectionTemplate, error) {
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		template, err := s.templateRepo.FindByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NotFound("шаблон", id)
			}
			return err
		}

		if payload.Name.Valid {
			template.Name = strings.TrimSpace(payload.Name.String)
		}
		if payload.EquipmentType.Valid {
			template.EquipmentType = payload.EquipmentType.String
		}
		if payload.IsDefault.Valid {
			template.IsDefault = payload.IsDefault.Bool
		}

		if template.IsDefault {
			if err := s.templateRepo.ClearDefault(ctx, tx, template.EquipmentType, id); err != nil {
				return err
			}
		}
		if err := s.templateRepo.Update(ctx, tx, id, *template); err != nil {
			return err
		}
		if payload.Sections != nil {
			return s.templateRepo.ReplaceSections(ctx, tx, id, sectionsFromDTO(payload.Sections))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, nil, id)
}

// DeleteTemplate не трогает осмотры: их разделы - снимок, а не ссылка.
func (s *TemplateService) DeleteTemplate(ctx context.Context, id uint64) error {
	if err := s.templateRepo.Delete(ctx, nil, id); err != nil {
		return err
	}
	s.logger.Info("Шаблон удалён", zap.Uint64("id", id))
	return nil
}

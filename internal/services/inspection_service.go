package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"inspection-system/internal/core/inspection"
	"inspection-system/internal/dto"
	"inspection-system/internal/entities"
	"inspection-system/internal/events"
	"inspection-system/internal/repositories"
	"inspection-system/pkg/constants"
	apperrors "inspection-system/pkg/errors"
	"inspection-system/pkg/eventbus"
	"inspection-system/pkg/types"
	"inspection-system/pkg/utils"
)

// EventPublisher - то, что сервисам нужно от шины событий.
type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

type InspectionServiceInterface interface {
	GetOrCreate(ctx context.Context, payload dto.StartInspectionDTO) (*entities.InspectionDetail, bool, error)
	UpdateCheckpoint(ctx context.Context, checkpointID uint64, payload dto.UpdateCheckpointDTO) (*entities.Checkpoint, error)
	MarkAllUnsetAsPass(ctx context.Context, inspectionID uint64) (int64, error)
	Complete(ctx context.Context, inspectionID uint64, payload dto.CompleteInspectionDTO) (*CompletionResult, error)
	Stop(ctx context.Context, inspectionID uint64) error
	GetInspection(ctx context.Context, inspectionID uint64) (*entities.InspectionDetail, error)
	ListInspections(ctx context.Context, filter types.Filter) ([]*entities.Inspection, uint64, error)
}

// CompletionResult - итог завершения осмотра. Effects уже опубликованы
// к моменту возврата, поле оставлено для ответа и тестов.
type CompletionResult struct {
	InspectionID    uint64
	EquipmentID     uint64
	EquipmentStatus string
	CompletedAt     time.Time
	Summary         inspection.Summary
	Effects         []inspection.Effect
}

type InspectionService struct {
	txManager      repositories.TxManagerInterface
	equipmentRepo  repositories.EquipmentRepositoryInterface
	templateRepo   repositories.TemplateRepositoryInterface
	inspectionRepo repositories.InspectionRepositoryInterface
	checkpointRepo repositories.CheckpointRepositoryInterface
	mediaRepo      repositories.MediaRepositoryInterface
	bus            EventPublisher
	// reportRecipients - адреса, куда уходит отчёт после завершения.
	reportRecipients []string
	mediaURL         func(m entities.Media) string
	now              func() time.Time
	logger           *zap.Logger
}

func NewInspectionService(
	txManager repositories.TxManagerInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	templateRepo repositories.TemplateRepositoryInterface,
	inspectionRepo repositories.InspectionRepositoryInterface,
	checkpointRepo repositories.CheckpointRepositoryInterface,
	mediaRepo repositories.MediaRepositoryInterface,
	bus EventPublisher,
	reportRecipients []string,
	publicBaseURL string,
	logger *zap.Logger,
) *InspectionService {
	return &InspectionService{
		txManager:        txManager,
		equipmentRepo:    equipmentRepo,
		templateRepo:     templateRepo,
		inspectionRepo:   inspectionRepo,
		checkpointRepo:   checkpointRepo,
		mediaRepo:        mediaRepo,
		bus:              bus,
		reportRecipients: reportRecipients,
		mediaURL:         MediaURLFunc(publicBaseURL),
		now:              time.Now,
		logger:           logger.Named("inspection_service"),
	}
}

// MediaURLFunc строит публичную ссылку на медиафайл через API.
func MediaURLFunc(publicBaseURL string) func(m entities.Media) string {
	return func(m entities.Media) string {
		return fmt.Sprintf("%s/api/media/%d", publicBaseURL, m.ID)
	}
}

func (s *InspectionService) GetOrCreate(ctx context.Context, payload dto.StartInspectionDTO) (*entities.InspectionDetail, bool, error) {
	technicianID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, false, apperrors.ErrUnauthorized
	}

	var (
		inspectionID uint64
		created      bool
	)
	err = s.txManager.RunInSerializableTransaction(ctx, func(tx pgx.Tx) error {
		// fn может выполняться повторно, поэтому состояние сбрасывается.
		inspectionID, created = 0, false

		equipment, err := s.equipmentRepo.FindByID(ctx, tx, payload.EquipmentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NotFound("техника", payload.EquipmentID)
			}
			return err
		}

		existing, err := s.inspectionRepo.FindActiveByEquipment(ctx, tx, equipment.ID)
		if err == nil {
			inspectionID = existing.ID
			return nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		templateID, sections, err := s.resolveTemplate(ctx, tx, equipment.Type, utils.NullUint64Ptr(payload.TemplateID))
		if err != nil {
			return err
		}

		id, err := s.inspectionRepo.Create(ctx, tx, entities.Inspection{
			EquipmentID:  equipment.ID,
			TechnicianID: technicianID,
			TemplateID:   templateID,
			TaskID:       utils.NullStringPtr(payload.TaskID),
			SerialNumber: utils.NullStringPtr(payload.SerialNumber),
			FreightID:    utils.NullStringPtr(payload.FreightID),
			Status:       constants.InspectionStatusInProgress,
			StartedAt:    s.now().UTC(),
		})
		if err != nil {
			return err
		}

		for _, planned := range inspection.PlanSections(sections) {
			section := planned.Section
			section.InspectionID = id
			sectionID, err := s.checkpointRepo.CreateSection(ctx, tx, section)
			if err != nil {
				return err
			}
			for _, cp := range planned.Checkpoints {
				checkpoint := cp.Checkpoint
				checkpoint.SectionID = sectionID
				if _, err := s.checkpointRepo.CreateCheckpoint(ctx, tx, checkpoint); err != nil {
					return err
				}
			}
		}

		inspectionID, created = id, true
		return nil
	})
	if err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, false, apperrors.Conflict("для техники %d уже идёт осмотр", payload.EquipmentID)
		}
		s.logger.Error("Не удалось начать осмотр", zap.Uint64("equipmentID", payload.EquipmentID), zap.Error(err))
		return nil, false, err
	}

	detail, err := s.GetInspection(ctx, inspectionID)
	if err != nil {
		return nil, false, err
	}

	if created {
		s.logger.Info("Осмотр создан",
			zap.Uint64("inspectionID", inspectionID),
			zap.Uint64("equipmentID", payload.EquipmentID),
			zap.Uint64("technicianID", technicianID))
		s.bus.Publish(ctx, events.InspectionCreatedEvent{
			InspectionID: inspectionID,
			EquipmentID:  payload.EquipmentID,
			TechnicianID: technicianID,
		})
	}
	return detail, created, nil
}

// resolveTemplate: явный шаблон, затем шаблон по умолчанию для типа техники,
// затем встроенный чек-лист. Шаблон без разделов тоже заменяется встроенным.
func (s *InspectionService) resolveTemplate(ctx context.Context, tx pgx.Tx, equipmentType string, templateID *uint64) (*uint64, []entities.TemplateSection, error) {
	var template *entities.InspectionTemplate
	var err error

	if templateID != nil {
		template, err = s.templateRepo.FindByID(ctx, tx, *templateID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, nil, apperrors.NotFound("шаблон", *templateID)
			}
			return nil, nil, err
		}
	} else {
		template, err = s.templateRepo.FindDefault(ctx, tx, equipmentType)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, err
		}
	}

	if template == nil {
		return nil, inspection.FallbackSections(), nil
	}

	sections, err := s.templateRepo.LoadSections(ctx, tx, template.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(sections) == 0 {
		s.logger.Warn("Шаблон без разделов, используется встроенный чек-лист", zap.Uint64("templateID", template.ID))
		sections = inspection.FallbackSections()
	}
	id := template.ID
	return &id, sections, nil
}

func (s *InspectionService) UpdateCheckpoint(ctx context.Context, checkpointID uint64, payload dto.UpdateCheckpointDTO) (*entities.Checkpoint, error) {
	if !constants.Contains(constants.CheckpointStatuses, payload.Status) {
		return nil, apperrors.InvalidArgument("недопустимый статус контрольной точки %q", payload.Status)
	}

	var (
		updated      entities.Checkpoint
		inspectionID uint64
		purgeKeys    []string
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		purgeKeys = nil

		current, err := s.checkpointRepo.FindByID(ctx, tx, checkpointID)
		if err != nil {
			return err
		}

		notes := utils.NullStringPtr(payload.Notes)
		hours := utils.NullFloat64Ptr(payload.EstimatedHours)

		guard := inspection.CanUpdateCheckpoint(inspection.UpdateCheckpointContext{
			CheckpointID:     checkpointID,
			InspectionStatus: current.InspectionStatus,
			Status:           payload.Status,
			EstimatedHours:   hours,
		})
		if !guard.Allowed {
			return guard.Error()
		}

		if !inspection.KeepsData(payload.Status) {
			notes, hours = nil, nil
			media, err := s.mediaRepo.ListByCheckpoint(ctx, tx, checkpointID)
			if err != nil {
				return err
			}
			for _, m := range media {
				if m.ObjectKey != nil {
					purgeKeys = append(purgeKeys, *m.ObjectKey)
				}
			}
			if len(media) > 0 {
				if _, err := s.mediaRepo.DeleteByCheckpoint(ctx, tx, checkpointID); err != nil {
					return err
				}
			}
		}

		if err := s.checkpointRepo.Update(ctx, tx, checkpointID, payload.Status, notes, hours); err != nil {
			return err
		}

		status := payload.Status
		updated = current.Checkpoint
		updated.Status = &status
		updated.Notes = notes
		updated.EstimatedHours = hours
		inspectionID = current.InspectionID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(purgeKeys) > 0 {
		s.bus.Publish(ctx, events.EffectEvent{Effect: inspection.MediaPurgeEffect{ObjectKeys: purgeKeys}})
	}
	s.bus.Publish(ctx, events.CheckpointUpdatedEvent{InspectionID: inspectionID, Checkpoint: updated})

	return &updated, nil
}

func (s *InspectionService) MarkAllUnsetAsPass(ctx context.Context, inspectionID uint64) (int64, error) {
	var count int64
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		insp, err := s.inspectionRepo.FindByIDForUpdate(ctx, tx, inspectionID)
		if err != nil {
			return err
		}
		if insp.Status == constants.InspectionStatusCompleted {
			return apperrors.InvalidArgument("осмотр %d уже завершён", inspectionID)
		}
		count, err = s.checkpointRepo.MarkUnsetAsPass(ctx, tx, inspectionID)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.logger.Debug("Незаполненные точки отмечены как PASS",
		zap.Uint64("inspectionID", inspectionID), zap.Int64("count", count))
	return count, nil
}

func (s *InspectionService) Complete(ctx context.Context, inspectionID uint64, payload dto.CompleteInspectionDTO) (*CompletionResult, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil && payload.Force {
		return nil, apperrors.ErrUnauthorized
	}

	var result *CompletionResult
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		insp, err := s.inspectionRepo.FindByIDForUpdate(ctx, tx, inspectionID)
		if err != nil {
			return err
		}

		checkpoints, err := s.checkpointRepo.ListByInspection(ctx, tx, inspectionID)
		if err != nil {
			return err
		}
		summary := inspection.Summarize(checkpoints)

		guard := inspection.CanComplete(inspection.CompleteContext{
			InspectionID: inspectionID,
			Status:       insp.Status,
			UnsetCount:   summary.Unset,
			Force:        payload.Force,
			ActorRole:    actor.Role,
		})
		if !guard.Allowed {
			return guard.Error()
		}

		equipmentStatus := inspection.DeriveEquipmentStatus(checkpoints)
		completedAt := s.now().UTC()

		if err := s.inspectionRepo.MarkCompleted(ctx, tx, inspectionID, completedAt, utils.NullStringPtr(payload.TechnicianRemarks)); err != nil {
			return err
		}
		if err := s.equipmentRepo.UpdateStatus(ctx, tx, insp.EquipmentID, equipmentStatus); err != nil {
			return err
		}
		equipment, err := s.equipmentRepo.FindByID(ctx, tx, insp.EquipmentID)
		if err != nil {
			return err
		}

		result = &CompletionResult{
			InspectionID:    inspectionID,
			EquipmentID:     insp.EquipmentID,
			EquipmentStatus: equipmentStatus,
			CompletedAt:     completedAt,
			Summary:         summary,
			Effects: inspection.CompletionEffects(inspection.CompletionContext{
				Inspection:       *insp,
				Equipment:        *equipment,
				EquipmentStatus:  equipmentStatus,
				CompletedAt:      completedAt,
				ReportRecipients: s.reportRecipients,
			}),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Осмотр завершён",
		zap.Uint64("inspectionID", inspectionID),
		zap.String("equipmentStatus", result.EquipmentStatus),
		zap.Bool("force", payload.Force),
		zap.Int("effects", len(result.Effects)))

	for _, effect := range result.Effects {
		s.bus.Publish(ctx, events.EffectEvent{Effect: effect})
	}
	s.bus.Publish(ctx, events.InspectionCompletedEvent{
		InspectionID:    inspectionID,
		EquipmentID:     result.EquipmentID,
		EquipmentStatus: result.EquipmentStatus,
		CompletedAt:     result.CompletedAt,
	})
	return result, nil
}

func (s *InspectionService) Stop(ctx context.Context, inspectionID uint64) error {
	var (
		equipmentID uint64
		purgeKeys   []string
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		purgeKeys = nil

		insp, err := s.inspectionRepo.FindByIDForUpdate(ctx, tx, inspectionID)
		if err != nil {
			return err
		}
		guard := inspection.CanStop(inspection.StopContext{InspectionID: inspectionID, Status: insp.Status})
		if !guard.Allowed {
			return guard.Error()
		}

		media, err := s.mediaRepo.ListByInspection(ctx, tx, inspectionID)
		if err != nil {
			return err
		}
		for _, m := range media {
			if m.ObjectKey != nil {
				purgeKeys = append(purgeKeys, *m.ObjectKey)
			}
		}

		equipmentID = insp.EquipmentID
		return s.inspectionRepo.Delete(ctx, tx, inspectionID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Осмотр остановлен и удалён",
		zap.Uint64("inspectionID", inspectionID), zap.Int("objects", len(purgeKeys)))

	if len(purgeKeys) > 0 {
		s.bus.Publish(ctx, events.EffectEvent{Effect: inspection.MediaPurgeEffect{ObjectKeys: purgeKeys}})
	}
	s.bus.Publish(ctx, events.InspectionStoppedEvent{InspectionID: inspectionID, EquipmentID: equipmentID})
	return nil
}

func (s *InspectionService) GetInspection(ctx context.Context, inspectionID uint64) (*entities.InspectionDetail, error) {
	detail, err := s.inspectionRepo.LoadDetail(ctx, nil, inspectionID)
	if err != nil {
		return nil, err
	}
	for i := range detail.Sections {
		for j := range detail.Sections[i].Checkpoints {
			media := detail.Sections[i].Checkpoints[j].Media
			for k := range media {
				media[k].URL = s.mediaURL(media[k])
			}
		}
	}
	return detail, nil
}

func (s *InspectionService) ListInspections(ctx context.Context, filter types.Filter) ([]*entities.Inspection, uint64, error) {
	return s.inspectionRepo.GetAll(ctx, filter)
}

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
	"inspection-system/pkg/constants"
	apperrors "inspection-system/pkg/errors"
	"inspection-system/pkg/types"
	"inspection-system/pkg/utils"
)

type EquipmentServiceInterface interface {
	GetEquipments(ctx context.Context, filter types.Filter) ([]*entities.Equipment, uint64, error)
	FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error)
	CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*entities.Equipment, error)
	UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error)
	DeleteEquipment(ctx context.Context, id uint64) error
	ImportEquipment(ctx context.Context, file ImportFile) (*dto.ImportResultDTO, error)
}

type EquipmentService struct {
	txManager           repositories.TxManagerInterface
	equipmentRepository repositories.EquipmentRepositoryInterface
	logger              *zap.Logger
}

func NewEquipmentService(
	txManager repositories.TxManagerInterface,
	equipmentRepository repositories.EquipmentRepositoryInterface,
	logger *zap.Logger,
) *EquipmentService {
	return &EquipmentService{
		txManager:           txManager,
		equipmentRepository: equipmentRepository,
		logger:              logger.Named("equipment_service"),
	}
}

func (s *EquipmentService) GetEquipments(ctx context.Context, filter types.Filter) ([]*entities.Equipment, uint64, error) {
	return s.equipmentRepository.GetAll(ctx, filter)
}

func (s *EquipmentService) FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error) {
	return s.find(ctx, nil, id)
}

func (s *EquipmentService) find(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	e, err := s.equipmentRepository.FindByID(ctx, tx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.NotFound("техника", id)
	}
	return e, err
}

func (s *EquipmentService) CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*entities.Equipment, error) {
	e := entities.Equipment{
		Type:         payload.Type,
		Model:        strings.TrimSpace(payload.Model),
		SerialNumber: strings.TrimSpace(payload.SerialNumber),
		Location:     strings.TrimSpace(payload.Location),
		HoursUsed:    payload.HoursUsed,
		Status:       payload.Status.String,
		TaskID:       utils.NullStringPtr(payload.TaskID),
	}
	if e.Status == "" {
		e.Status = constants.EquipmentStatusOperational
	}
	if err := validateEquipment(e); err != nil {
		return nil, err
	}

	id, err := s.equipmentRepository.Create(ctx, nil, e)
	if err != nil {
		s.logger.Warn("Ошибка при создании техники", zap.String("serial", e.SerialNumber), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Техника создана", zap.Uint64("id", id), zap.String("serial", e.SerialNumber))
	return s.find(ctx, nil, id)
}

func (s *EquipmentService) UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error) {
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		e, err := s.find(ctx, tx, id)
		if err != nil {
			return err
		}
		applyEquipmentUpdate(e, payload)
		if err := validateEquipment(*e); err != nil {
			return err
		}
		return s.equipmentRepository.Update(ctx, tx, id, *e)
	})
	if err != nil {
		return nil, err
	}
	return s.find(ctx, nil, id)
}

func applyEquipmentUpdate(e *entities.Equipment, payload dto.UpdateEquipmentDTO) {
	if payload.Type.Valid {
		e.Type = payload.Type.String
	}
	if payload.Model.Valid {
		e.Model = strings.TrimSpace(payload.Model.String)
	}
	if payload.SerialNumber.Valid {
		e.SerialNumber = strings.TrimSpace(payload.SerialNumber.String)
	}
	if payload.Location.Valid {
		e.Location = strings.TrimSpace(payload.Location.String)
	}
	if payload.HoursUsed.Valid {
		e.HoursUsed = payload.HoursUsed.Float64
	}
	if payload.Status.Valid {
		e.Status = payload.Status.String
	}
	if payload.TaskID.Valid {
		e.TaskID = utils.NullStringPtr(payload.TaskID)
	}
}

// validateEquipment дублирует правила валидатора DTO для путей без него (импорт).
func validateEquipment(e entities.Equipment) error {
	switch {
	case !constants.Contains(constants.EquipmentTypes, e.Type):
		return apperrors.InvalidArgument("неизвестный тип техники %q", e.Type)
	case !constants.Contains(constants.EquipmentStatuses, e.Status):
		return apperrors.InvalidArgument("неизвестный статус техники %q", e.Status)
	case e.Model == "":
		return apperrors.InvalidArgument("модель не указана")
	case e.SerialNumber == "":
		return apperrors.InvalidArgument("серийный номер не указан")
	case e.HoursUsed < 0:
		return apperrors.InvalidArgument("наработка не может быть отрицательной")
	}
	return nil
}

// DeleteEquipment: техника с осмотрами не удаляется (Conflict из репозитория).
func (s *EquipmentService) DeleteEquipment(ctx context.Context, id uint64) error {
	if err := s.equipmentRepository.Delete(ctx, nil, id); err != nil {
		return err
	}
	s.logger.Info("Техника удалена", zap.Uint64("id", id))
	return nil
}

package controllers

import (
	"net/http"

	"inspection-system/internal/dto"
	"inspection-system/internal/services"
	apperrors "inspection-system/pkg/errors"
	"inspection-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type InspectionController struct {
	inspectionService services.InspectionServiceInterface
	logger            *zap.Logger
}

func NewInspectionController(inspectionService services.InspectionServiceInterface, logger *zap.Logger) *InspectionController {
	return &InspectionController{inspectionService: inspectionService, logger: logger}
}

func badBody(err error) error {
	return apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных в теле запроса", err, nil)
}

// StartInspection возвращает уже идущий осмотр техники или создаёт новый.
// 201 только когда осмотр действительно создан.
func (c *InspectionController) StartInspection(ctx echo.Context) error {
	var payload dto.StartInspectionDTO
	if err := ctx.Bind(&payload); err != nil {
		c.logger.Error("StartInspection: ошибка привязки данных", zap.Error(err))
		return utils.ErrorResponse(ctx, badBody(err), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	detail, created, err := c.inspectionService.GetOrCreate(ctx.Request().Context(), payload)
	if err != nil {
		c.logger.Error("StartInspection: не удалось начать осмотр", zap.Uint64("equipmentID", payload.EquipmentID), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	code, message := http.StatusOK, "Осмотр уже идёт"
	if created {
		code, message = http.StatusCreated, "Осмотр создан"
	}
	return utils.SuccessResponse(ctx, dto.StartInspectionResponseDTO{Inspection: detail, Created: created}, message, code)
}

func (c *InspectionController) GetInspections(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	res, total, err := c.inspectionService.ListInspections(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("GetInspections: ошибка при получении списка осмотров", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Список осмотров успешно получен", http.StatusOK, total)
}

func (c *InspectionController) FindInspection(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.inspectionService.GetInspection(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Осмотр успешно найден", http.StatusOK)
}

func (c *InspectionController) UpdateCheckpoint(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdateCheckpointDTO
	if err := ctx.Bind(&payload); err != nil {
		c.logger.Error("UpdateCheckpoint: ошибка привязки данных", zap.Error(err))
		return utils.ErrorResponse(ctx, badBody(err), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.inspectionService.UpdateCheckpoint(ctx.Request().Context(), id, payload)
	if err != nil {
		c.logger.Warn("UpdateCheckpoint: ошибка при обновлении точки", zap.Uint64("checkpointID", id), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Контрольная точка обновлена", http.StatusOK)
}

func (c *InspectionController) MarkAllPass(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	updated, err := c.inspectionService.MarkAllUnsetAsPass(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, dto.MarkAllPassResponseDTO{Updated: updated}, "Незаполненные точки отмечены как PASS", http.StatusOK)
}

func (c *InspectionController) CompleteInspection(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.CompleteInspectionDTO
	if ctx.Request().ContentLength != 0 {
		if err := ctx.Bind(&payload); err != nil {
			return utils.ErrorResponse(ctx, badBody(err), c.logger)
		}
		if err := ctx.Validate(&payload); err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}
	}

	res, err := c.inspectionService.Complete(ctx.Request().Context(), id, payload)
	if err != nil {
		c.logger.Warn("CompleteInspection: осмотр не завершён", zap.Uint64("inspectionID", id), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, dto.CompleteInspectionResponseDTO{
		InspectionID:    res.InspectionID,
		EquipmentStatus: res.EquipmentStatus,
		CompletedAt:     res.CompletedAt,
		Summary:         res.Summary,
	}, "Осмотр завершён", http.StatusOK)
}

func (c *InspectionController) StopInspection(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.inspectionService.Stop(ctx.Request().Context(), id); err != nil {
		c.logger.Warn("StopInspection: осмотр не остановлен", zap.Uint64("inspectionID", id), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Осмотр остановлен и удалён", http.StatusOK)
}

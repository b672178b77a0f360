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

type TemplateController struct {
	templateService services.TemplateServiceInterface
	logger          *zap.Logger
}

func NewTemplateController(templateService services.TemplateServiceInterface, logger *zap.Logger) *TemplateController {
	return &TemplateController{templateService: templateService, logger: logger}
}

func (c *TemplateController) GetTemplates(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	res, total, err := c.templateService.GetTemplates(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("GetTemplates: ошибка при получении списка шаблонов", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Список шаблонов успешно получен", http.StatusOK, total)
}

func (c *TemplateController) FindTemplate(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.templateService.FindTemplate(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Шаблон успешно найден", http.StatusOK)
}

func (c *TemplateController) CreateTemplate(ctx echo.Context) error {
	var payload dto.CreateTemplateDTO
	if err := ctx.Bind(&payload); err != nil {
		c.logger.Error("CreateTemplate: ошибка привязки данных", zap.Error(err))
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных в теле запроса", err, nil), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.templateService.CreateTemplate(ctx.Request().Context(), payload)
	if err != nil {
		c.logger.Error("CreateTemplate: ошибка при создании шаблона", zap.String("name", payload.Name), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Шаблон успешно создан", http.StatusCreated)
}

func (c *TemplateController) UpdateTemplate(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdateTemplateDTO
	if err := ctx.Bind(&payload); err != nil {
		c.logger.Error("UpdateTemplate: ошибка привязки данных", zap.Error(err))
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных в теле запроса", err, nil), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.templateService.UpdateTemplate(ctx.Request().Context(), id, payload)
	if err != nil {
		c.logger.Error("UpdateTemplate: ошибка при обновлении шаблона", zap.Uint64("id", id), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Шаблон успешно обновлён", http.StatusOK)
}

func (c *TemplateController) DeleteTemplate(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.templateService.DeleteTemplate(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Шаблон успешно удалён", http.StatusOK)
}

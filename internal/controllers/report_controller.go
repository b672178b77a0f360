package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"inspection-system/internal/dto"
	"inspection-system/internal/services"
	apperrors "inspection-system/pkg/errors"
	"inspection-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// Повторная отправка того же отчёта тем же пользователем раньше этого срока отклоняется.
	reportResendWindow = 30 * time.Second
	// Видео и фото из объектного хранилища могут читаться долго.
	reportRenderTimeout = 2 * time.Minute
)

type ReportController struct {
	reportService services.ReportServiceInterface
	dedup         *RequestDeduplicator
	logger        *zap.Logger
}

func NewReportController(reportService services.ReportServiceInterface, dedup *RequestDeduplicator, logger *zap.Logger) *ReportController {
	return &ReportController{reportService: reportService, dedup: dedup, logger: logger}
}

func (c *ReportController) DownloadPDF(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	reqCtx, cancel := utils.ContextWithTimeout(ctx, reportRenderTimeout)
	defer cancel()

	pdf, filename, err := c.reportService.RenderPDF(reqCtx, id)
	if err != nil {
		c.logger.Error("DownloadPDF: не удалось сформировать отчёт", zap.Uint64("inspectionID", id), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, "application/pdf", pdf)
}

func (c *ReportController) SendEmail(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.SendReportDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, badBody(err), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	userID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrUnauthorized, c.logger)
	}
	dedupKey := fmt.Sprintf("report_email_%d", id)
	if !c.dedup.TryAcquire(userID, dedupKey, reportResendWindow) {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusTooManyRequests, "Отчёт уже отправляется, повторите позже", nil, nil), c.logger)
	}

	reqCtx, cancel := utils.ContextWithTimeout(ctx, reportRenderTimeout)
	defer cancel()

	messageID, err := c.reportService.SendReport(reqCtx, id, payload.To)
	if err != nil {
		c.dedup.Release(userID, dedupKey)
		c.logger.Error("SendEmail: отчёт не отправлен", zap.Uint64("inspectionID", id), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, dto.SendReportResponseDTO{MessageID: messageID}, "Отчёт отправлен", http.StatusOK)
}

// ExportXLSX строит файл в памяти целиком: при ошибке посреди выгрузки
// клиент получает JSON, а не обрезанный файл.
func (c *ReportController) ExportXLSX(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	var buf bytes.Buffer
	if err := c.reportService.ExportInspectionsXLSX(ctx.Request().Context(), &buf, filter); err != nil {
		c.logger.Error("ExportXLSX: ошибка выгрузки", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	filename := fmt.Sprintf("inspections-%s.xlsx", time.Now().Format("20060102"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, xlsxMime, buf.Bytes())
}

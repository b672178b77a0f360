package controllers

import (
	"fmt"
	"net/http"

	"inspection-system/internal/dto"
	"inspection-system/internal/entities"
	"inspection-system/internal/services"
	"inspection-system/pkg/constants"
	apperrors "inspection-system/pkg/errors"
	"inspection-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type MediaController struct {
	mediaService services.MediaServiceInterface
	logger       *zap.Logger
}

func NewMediaController(mediaService services.MediaServiceInterface, logger *zap.Logger) *MediaController {
	return &MediaController{mediaService: mediaService, logger: logger}
}

func mediaToDTO(m *entities.Media) dto.MediaDTO {
	return dto.MediaDTO{
		ID:           m.ID,
		CheckpointID: m.CheckpointID,
		MediaType:    m.MediaType,
		Filename:     m.Filename,
		MimeType:     m.MimeType,
		Size:         m.Size,
		URL:          m.URL,
		CreatedAt:    m.CreatedAt,
	}
}

// Upload: multipart с полями "file" и "mediaType" (photo|video).
func (c *MediaController) Upload(ctx echo.Context) error {
	checkpointID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	mediaType := ctx.FormValue("mediaType")
	if mediaType == "" {
		mediaType = constants.MediaTypePhoto
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Файл не передан", err, nil), c.logger)
	}
	src, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Не удалось открыть файл", err, nil), c.logger)
	}
	defer src.Close()

	media, err := c.mediaService.Store(ctx.Request().Context(), services.StoreMediaInput{
		CheckpointID: checkpointID,
		MediaType:    mediaType,
		Filename:     fileHeader.Filename,
		Size:         fileHeader.Size,
		File:         src,
	})
	if err != nil {
		c.logger.Warn("Upload: файл не сохранён",
			zap.Uint64("checkpointID", checkpointID),
			zap.String("filename", fileHeader.Filename),
			zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, mediaToDTO(media), "Файл загружен", http.StatusCreated)
}

// Fetch отдаёт фото байтами, а видео - редиректом на ссылку хранилища.
func (c *MediaController) Fetch(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.mediaService.Fetch(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if res.RedirectURL != "" {
		return ctx.Redirect(http.StatusFound, res.RedirectURL)
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", res.Media.Filename))
	return ctx.Blob(http.StatusOK, res.Media.MimeType, res.Data)
}

func (c *MediaController) Delete(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.mediaService.Delete(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Файл удалён", http.StatusOK)
}

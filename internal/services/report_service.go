package services

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"inspection-system/internal/entities"
	"inspection-system/internal/report"
	apperrors "inspection-system/pkg/errors"
	"inspection-system/pkg/mailer"
	"inspection-system/pkg/types"
)

// Выгрузка в Excel идёт без пагинации, но с потолком на число строк.
const maxExportRows = 10000

type PDFRenderer interface {
	GenerateInspectionPDF(ctx context.Context, detail *entities.InspectionDetail) ([]byte, error)
}

// InspectionReader - часть InspectionServiceInterface, нужная отчётам.
type InspectionReader interface {
	GetInspection(ctx context.Context, inspectionID uint64) (*entities.InspectionDetail, error)
	ListInspections(ctx context.Context, filter types.Filter) ([]*entities.Inspection, uint64, error)
}

type ReportServiceInterface interface {
	RenderPDF(ctx context.Context, inspectionID uint64) ([]byte, string, error)
	SendReport(ctx context.Context, inspectionID uint64, to []string) (string, error)
	ExportInspectionsXLSX(ctx context.Context, w io.Writer, filter types.Filter) error
}

type ReportService struct {
	inspections   InspectionReader
	renderer      PDFRenderer
	mailer        mailer.MailerInterface
	fallbackEmail string
	logger        *zap.Logger
}

func NewReportService(
	inspections InspectionReader,
	renderer PDFRenderer,
	mailer mailer.MailerInterface,
	fallbackEmail string,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		inspections:   inspections,
		renderer:      renderer,
		mailer:        mailer,
		fallbackEmail: fallbackEmail,
		logger:        logger.Named("report_service"),
	}
}

// RenderPDF возвращает документ и имя файла для Content-Disposition.
func (s *ReportService) RenderPDF(ctx context.Context, inspectionID uint64) ([]byte, string, error) {
	detail, err := s.inspections.GetInspection(ctx, inspectionID)
	if err != nil {
		return nil, "", err
	}
	pdf, err := s.renderer.GenerateInspectionPDF(ctx, detail)
	if err != nil {
		return nil, "", fmt.Errorf("не удалось сформировать PDF осмотра %d: %w", inspectionID, err)
	}
	return pdf, report.Filename(detail), nil
}

// SendReport формирует PDF и письмо и отправляет их. Пустой список
// получателей заменяется адресом из конфигурации.
func (s *ReportService) SendReport(ctx context.Context, inspectionID uint64, to []string) (string, error) {
	if len(to) == 0 && s.fallbackEmail != "" {
		to = []string{s.fallbackEmail}
	}
	if len(to) == 0 {
		return "", apperrors.InvalidArgument("не указаны получатели отчёта")
	}

	detail, err := s.inspections.GetInspection(ctx, inspectionID)
	if err != nil {
		return "", err
	}
	content, err := report.GenerateEmailContent(detail)
	if err != nil {
		return "", err
	}
	pdf, err := s.renderer.GenerateInspectionPDF(ctx, detail)
	if err != nil {
		return "", fmt.Errorf("не удалось сформировать PDF осмотра %d: %w", inspectionID, err)
	}

	messageID, err := s.mailer.SendEmailWithPDF(ctx, mailer.Message{
		To:          to,
		Subject:     content.Subject,
		HTML:        content.HTML,
		Text:        content.Text,
		PDFFilename: content.Filename,
		PDFBytes:    pdf,
	})
	if err != nil {
		return "", apperrors.ExternalService("smtp", err)
	}

	s.logger.Info("Отчёт отправлен",
		zap.Uint64("inspectionID", inspectionID),
		zap.Strings("to", to),
		zap.String("messageID", messageID),
		zap.Int("pdfBytes", len(pdf)))
	return messageID, nil
}

func (s *ReportService) ExportInspectionsXLSX(ctx context.Context, w io.Writer, filter types.Filter) error {
	filter.WithPagination = true
	filter.Limit = maxExportRows
	filter.Offset = 0
	filter.Page = 1

	items, total, err := s.inspections.ListInspections(ctx, filter)
	if err != nil {
		return err
	}
	if total > uint64(len(items)) {
		s.logger.Warn("Выгрузка обрезана", zap.Uint64("total", total), zap.Int("rows", len(items)))
	}
	return report.WriteInspectionsXLSX(w, items)
}

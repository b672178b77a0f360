package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"inspection-system/internal/dto"
	"inspection-system/internal/entities"
	"inspection-system/pkg/constants"
	apperrors "inspection-system/pkg/errors"
	"inspection-system/pkg/utils"
)

// ImportFile - загруженная XLSX-книга.
type ImportFile struct {
	Filename string
	Size     int64
	File     io.ReadSeeker
}

type importColumn int

const (
	colType importColumn = iota
	colModel
	colSerial
	colLocation
	colHours
	colStatus
	colTask
)

// Ключевые слова заголовков, английские и русские.
var importHeaderKeywords = []struct {
	col      importColumn
	keywords []string
}{
	{colSerial, []string{"serial", "серийн", "s/n"}},
	{colModel, []string{"model", "модель"}},
	{colType, []string{"type", "тип"}},
	{colLocation, []string{"location", "место", "адрес"}},
	{colHours, []string{"hours", "наработ", "моточас"}},
	{colStatus, []string{"status", "статус"}},
	{colTask, []string{"task", "задач"}},
}

type importHeader map[importColumn]int

func (h importHeader) get(row []string, col importColumn) string {
	idx, ok := h[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// detectHeader ищет строку, где есть и серийный номер, и модель.
func detectHeader(row []string) (importHeader, bool) {
	header := importHeader{}
	for cIdx, cell := range row {
		cLower := strings.ToLower(strings.TrimSpace(cell))
		if cLower == "" {
			continue
		}
	match:
		for _, item := range importHeaderKeywords {
			if _, taken := header[item.col]; taken {
				continue
			}
			for _, kw := range item.keywords {
				if strings.Contains(cLower, kw) {
					header[item.col] = cIdx
					break match
				}
			}
		}
	}
	_, hasSerial := header[colSerial]
	_, hasModel := header[colModel]
	return header, hasSerial && hasModel
}

// normalizeEnum: "Boom lift" -> "BOOM_LIFT".
func normalizeEnum(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

func parseHours(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, apperrors.InvalidArgument("наработка %q не число", s)
	}
	return v, nil
}

// ImportEquipment загружает технику из XLSX: строка с известным серийным
// номером обновляется, с новым создаётся. Ошибочные строки пропускаются и
// попадают в отчёт, остальные импортируются.
func (s *EquipmentService) ImportEquipment(ctx context.Context, file ImportFile) (*dto.ImportResultDTO, error) {
	if _, err := utils.ValidateFile(file.Size, file.File, constants.UploadContextEquipmentImport.String()); err != nil {
		return nil, err
	}

	book, err := excelize.OpenReader(file.File)
	if err != nil {
		return nil, apperrors.InvalidArgument("не удалось открыть книгу: %v", err)
	}
	defer book.Close()

	var (
		rows      [][]string
		header    importHeader
		headerRow = -1
	)
	for _, sheet := range book.GetSheetList() {
		sheetRows, err := book.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения листа %s: %w", sheet, err)
		}
		for rIdx, row := range sheetRows {
			if h, ok := detectHeader(row); ok {
				rows, header, headerRow = sheetRows, h, rIdx
				break
			}
		}
		if headerRow != -1 {
			break
		}
	}
	if headerRow == -1 {
		return nil, apperrors.InvalidArgument("не найдена шапка таблицы: нужны колонки серийного номера и модели")
	}

	result := &dto.ImportResultDTO{Errors: []dto.ImportRowErrorDTO{}}
	for i := headerRow + 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := rows[i]
		lineNum := i + 1
		if header.get(row, colSerial) == "" && header.get(row, colModel) == "" {
			continue
		}

		created, err := s.importRow(ctx, header, row)
		if err != nil {
			result.Errors = append(result.Errors, dto.ImportRowErrorDTO{Row: lineNum, Message: apperrors.Message(err)})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.logger.Info("Импорт техники завершён",
		zap.String("file", file.Filename),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

func (s *EquipmentService) importRow(ctx context.Context, header importHeader, row []string) (bool, error) {
	serial := header.get(row, colSerial)
	if serial == "" {
		return false, apperrors.InvalidArgument("серийный номер не указан")
	}

	created := false
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		existing, err := s.equipmentRepository.FindBySerial(ctx, tx, serial)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		var e entities.Equipment
		if existing != nil {
			e = *existing
		} else {
			e = entities.Equipment{SerialNumber: serial, Status: constants.EquipmentStatusOperational}
			created = true
		}

		if v := header.get(row, colType); v != "" {
			e.Type = normalizeEnum(v)
		}
		if v := header.get(row, colModel); v != "" {
			e.Model = v
		}
		if v := header.get(row, colLocation); v != "" {
			e.Location = v
		}
		if v := header.get(row, colHours); v != "" {
			hours, err := parseHours(v)
			if err != nil {
				return err
			}
			e.HoursUsed = hours
		}
		if v := header.get(row, colStatus); v != "" {
			e.Status = normalizeEnum(v)
		}
		if v := header.get(row, colTask); v != "" {
			e.TaskID = &v
		}

		if err := validateEquipment(e); err != nil {
			return err
		}
		if created {
			_, err = s.equipmentRepository.Create(ctx, tx, e)
			return err
		}
		return s.equipmentRepository.Update(ctx, tx, e.ID, e)
	})
	return created, err
}

// Package report строит PDF-отчёт и письмо по дереву осмотра.
// Обе формы берут поля из Overview, поэтому не расходятся между собой.
package report

import (
	"fmt"
	"strings"
	"time"

	"inspection-system/internal/entities"
	"inspection-system/pkg/constants"
	"inspection-system/pkg/utils"
)

const (
	DefaultTemplateName = "Standard Inspection"
	timeLayout          = "2006-01-02 15:04"
)

type Field struct {
	Label string
	Value string
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout) + " UTC"
}

// TemplateName - имя шаблона или название встроенного чек-листа.
func TemplateName(detail *entities.InspectionDetail) string {
	if detail.TemplateName != nil && *detail.TemplateName != "" {
		return *detail.TemplateName
	}
	return DefaultTemplateName
}

// SerialNumber: серийный номер, указанный при осмотре, иначе номер техники.
func SerialNumber(detail *entities.InspectionDetail) string {
	if detail.SerialNumber != nil && *detail.SerialNumber != "" {
		return *detail.SerialNumber
	}
	return detail.Equipment.SerialNumber
}

// Overview возвращает пары "метка - значение" в порядке вывода.
// Пустые необязательные поля пропускаются.
func Overview(detail *entities.InspectionDetail) []Field {
	fields := []Field{
		{"Equipment", strings.TrimSpace(detail.Equipment.Type + " " + detail.Equipment.Model)},
		{"Serial Number", SerialNumber(detail)},
	}
	if detail.Equipment.Location != "" {
		fields = append(fields, Field{"Location", detail.Equipment.Location})
	}
	fields = append(fields,
		Field{"Hours Used", fmt.Sprintf("%.1f", detail.Equipment.HoursUsed)},
		Field{"Template", TemplateName(detail)},
	)

	technician := detail.Technician.Name
	if detail.Technician.Email != "" {
		technician = strings.TrimSpace(fmt.Sprintf("%s <%s>", technician, detail.Technician.Email))
	}
	if technician != "" {
		fields = append(fields, Field{"Technician", technician})
	}

	if v := utils.SafeDeref(detail.TaskID); v != "" {
		fields = append(fields, Field{"Task ID", v})
	}
	if v := utils.SafeDeref(detail.FreightID); v != "" {
		fields = append(fields, Field{"Freight ID", v})
	}

	fields = append(fields, Field{"Started", formatTime(detail.StartedAt)})
	if detail.CompletedAt != nil {
		fields = append(fields, Field{"Completed", formatTime(*detail.CompletedAt)})
	}
	fields = append(fields,
		Field{"Inspection Status", detail.Status},
		Field{"Equipment Status", detail.Equipment.Status},
	)
	if v := utils.SafeDeref(detail.TechnicianRemarks); v != "" {
		fields = append(fields, Field{"Remarks", v})
	}
	return fields
}

// VideoLink - видео не встраивается, в отчёте и письме остаётся ссылкой.
type VideoLink struct {
	Checkpoint string
	Filename   string
	URL        string
}

func VideoLinks(detail *entities.InspectionDetail) []VideoLink {
	var links []VideoLink
	for _, section := range detail.Sections {
		for _, cp := range section.Checkpoints {
			for _, m := range cp.Media {
				if m.MediaType != constants.MediaTypeVideo {
					continue
				}
				links = append(links, VideoLink{Checkpoint: cp.Name, Filename: m.Filename, URL: m.URL})
			}
		}
	}
	return links
}

// Filename: inspection-<serial>-<YYYYMMDD>.pdf, дата завершения или начала.
func Filename(detail *entities.InspectionDetail) string {
	date := detail.StartedAt
	if detail.CompletedAt != nil {
		date = *detail.CompletedAt
	}
	return fmt.Sprintf("inspection-%s-%s.pdf", utils.SanitizeFilename(SerialNumber(detail)), date.UTC().Format("20060102"))
}

package inspection

import (
	"fmt"
	"time"

	"inspection-system/internal/entities"
	"inspection-system/pkg/constants"
)

// Effect - действие после коммита. Эффекты только описывают, что сделать;
// исполняют их слушатели шины событий.
type Effect interface {
	EffectType() string
}

const (
	EffectTaskNotify  = "task.notify"
	EffectReportEmail = "report.email"
	EffectChatAlert   = "chat.alert"
	EffectMediaPurge  = "media.purge"
)

// TaskNotifyEffect - уведомить внешнюю систему задач. Заполнен хотя бы один
// из TaskID и FreightID.
type TaskNotifyEffect struct {
	InspectionID    uint64
	TaskID          string
	FreightID       *string
	EquipmentStatus string
	CompletedAt     time.Time
}

func (e TaskNotifyEffect) EffectType() string { return EffectTaskNotify }

// ReportEmailEffect - сформировать PDF и отправить письмом.
type ReportEmailEffect struct {
	InspectionID uint64
	To           []string
}

func (e ReportEmailEffect) EffectType() string { return EffectReportEmail }

type ChatAlertEffect struct {
	InspectionID uint64
	Text         string
}

func (e ChatAlertEffect) EffectType() string { return EffectChatAlert }

// MediaPurgeEffect - удалить объекты хранилища, строки которых уже удалены.
type MediaPurgeEffect struct {
	ObjectKeys []string
}

func (e MediaPurgeEffect) EffectType() string { return EffectMediaPurge }

type CompletionContext struct {
	Inspection       entities.Inspection
	Equipment        entities.Equipment
	EquipmentStatus  string
	CompletedAt      time.Time
	ReportRecipients []string
}

// CompletionEffects собирает эффекты завершения осмотра.
func CompletionEffects(ctx CompletionContext) []Effect {
	var out []Effect

	taskID := ctx.Inspection.TaskID
	if taskID == nil {
		taskID = ctx.Equipment.TaskID
	}
	hasTask := taskID != nil && *taskID != ""
	hasFreight := ctx.Inspection.FreightID != nil && *ctx.Inspection.FreightID != ""
	// Осмотр под отгрузку без задачи тоже сообщается системе задач.
	if hasTask || hasFreight {
		effect := TaskNotifyEffect{
			InspectionID:    ctx.Inspection.ID,
			EquipmentStatus: ctx.EquipmentStatus,
			CompletedAt:     ctx.CompletedAt,
		}
		if hasTask {
			effect.TaskID = *taskID
		}
		if hasFreight {
			effect.FreightID = ctx.Inspection.FreightID
		}
		out = append(out, effect)
	}

	if len(ctx.ReportRecipients) > 0 {
		out = append(out, ReportEmailEffect{InspectionID: ctx.Inspection.ID, To: ctx.ReportRecipients})
	}

	if ctx.EquipmentStatus != constants.EquipmentStatusOperational {
		out = append(out, ChatAlertEffect{
			InspectionID: ctx.Inspection.ID,
			Text: fmt.Sprintf("Inspection #%d: %s %s (%s) is now %s",
				ctx.Inspection.ID, ctx.Equipment.Type, ctx.Equipment.Model, ctx.Equipment.SerialNumber, ctx.EquipmentStatus),
		})
	}
	return out
}

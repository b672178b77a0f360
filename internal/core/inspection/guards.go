// Package inspection содержит чистую логику жизненного цикла осмотра:
// проверки переходов, вычисление статуса техники и сводки, план разделов.
// Здесь нет ввода-вывода; всё выполняется сервисным слоем.
package inspection

import (
	"fmt"

	"inspection-system/pkg/constants"
	apperrors "inspection-system/pkg/errors"
)

// GuardResult - итог проверки предусловия.
type GuardResult struct {
	Allowed bool
	Reason  string
	// Kind - сентинел из pkg/errors; по умолчанию ErrInvalidArgument.
	Kind error
}

// Error превращает запрет в ошибку с сентинелом для errors.Is.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	kind := r.Kind
	if kind == nil {
		kind = apperrors.ErrInvalidArgument
	}
	return fmt.Errorf("%s: %w", r.Reason, kind)
}

func allow() GuardResult { return GuardResult{Allowed: true} }

func deny(kind error, format string, args ...interface{}) GuardResult {
	return GuardResult{Allowed: false, Reason: fmt.Sprintf(format, args...), Kind: kind}
}

type UpdateCheckpointContext struct {
	CheckpointID     uint64
	InspectionStatus string
	Status           string
	EstimatedHours   *float64
}

// CanUpdateCheckpoint
// - статус из допустимого набора
// - осмотр не завершён
// - часы не отрицательные
func CanUpdateCheckpoint(ctx UpdateCheckpointContext) GuardResult {
	if !constants.Contains(constants.CheckpointStatuses, ctx.Status) {
		return deny(apperrors.ErrInvalidArgument, "недопустимый статус контрольной точки %q", ctx.Status)
	}
	if ctx.InspectionStatus == constants.InspectionStatusCompleted {
		return deny(apperrors.ErrInvalidArgument, "осмотр контрольной точки %d уже завершён", ctx.CheckpointID)
	}
	if ctx.EstimatedHours != nil && *ctx.EstimatedHours < 0 {
		return deny(apperrors.ErrInvalidArgument, "оценка часов не может быть отрицательной")
	}
	return allow()
}

type CompleteContext struct {
	InspectionID uint64
	Status       string
	UnsetCount   int
	Force        bool
	ActorRole    string
}

// CanComplete
// - осмотр ещё не завершён
// - принудительное завершение доступно только SUPERVISOR и ADMIN
// - без force все контрольные точки должны иметь статус
func CanComplete(ctx CompleteContext) GuardResult {
	if ctx.Status == constants.InspectionStatusCompleted {
		return deny(apperrors.ErrInvalidArgument, "осмотр %d уже завершён", ctx.InspectionID)
	}
	if ctx.Force && ctx.ActorRole != constants.RoleSupervisor && ctx.ActorRole != constants.RoleAdmin {
		return deny(apperrors.ErrUnauthorized, "принудительно завершить осмотр может только руководитель")
	}
	if ctx.UnsetCount > 0 && !ctx.Force {
		return deny(apperrors.ErrInvalidArgument, "в осмотре %d остались контрольные точки без статуса: %d", ctx.InspectionID, ctx.UnsetCount)
	}
	return allow()
}

type StopContext struct {
	InspectionID uint64
	Status       string
}

// CanStop: из COMPLETED выхода нет, удалять завершённый осмотр нельзя.
func CanStop(ctx StopContext) GuardResult {
	if ctx.Status == constants.InspectionStatusCompleted {
		return deny(apperrors.ErrInvalidArgument, "завершённый осмотр %d нельзя удалить", ctx.InspectionID)
	}
	return allow()
}

type AttachMediaContext struct {
	CheckpointID     uint64
	InspectionStatus string
	CheckpointStatus string
}

// CanAttachMedia: медиа имеет смысл только у CORRECTED и ACTION_REQUIRED.
func CanAttachMedia(ctx AttachMediaContext) GuardResult {
	if ctx.InspectionStatus == constants.InspectionStatusCompleted {
		return deny(apperrors.ErrInvalidArgument, "осмотр контрольной точки %d уже завершён", ctx.CheckpointID)
	}
	if !KeepsData(ctx.CheckpointStatus) {
		return deny(apperrors.ErrInvalidArgument,
			"медиа можно прикрепить только к точке со статусом %s или %s",
			constants.CheckpointStatusCorrected, constants.CheckpointStatusActionRequired)
	}
	return allow()
}

// KeepsData сообщает, хранит ли точка с этим статусом заметки, часы и медиа.
func KeepsData(status string) bool {
	return status == constants.CheckpointStatusCorrected || status == constants.CheckpointStatusActionRequired
}

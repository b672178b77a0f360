package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"inspection-system/internal/core/inspection"
	"inspection-system/internal/events"
	"inspection-system/pkg/eventbus"
	"inspection-system/pkg/tasknotify"
	"inspection-system/pkg/telegram"
)

// Subscriber - то, что слушателю нужно от шины.
type Subscriber interface {
	Subscribe(eventName string, listener eventbus.Listener)
}

// ReportSender отправляет PDF-отчёт письмом.
type ReportSender interface {
	SendReport(ctx context.Context, inspectionID uint64, to []string) (string, error)
}

type ObjectPurger interface {
	PurgeObjects(ctx context.Context, keys []string) int
}

// Broadcaster рассылает события подключённым клиентам.
type Broadcaster interface {
	Broadcast(ctx context.Context, messageType string, payload interface{}) error
}

// NotificationListener исполняет эффекты завершения осмотра и пересылает
// события жизненного цикла в WebSocket. Ошибки возвращаются шине, которая
// их только логирует: на уже закоммиченный осмотр они не влияют.
type NotificationListener struct {
	reports ReportSender
	tasks   tasknotify.NotifierInterface
	chat    telegram.ServiceInterface
	purger  ObjectPurger
	hub     Broadcaster
	logger  *zap.Logger
}

func NewNotificationListener(
	reports ReportSender,
	tasks tasknotify.NotifierInterface,
	chat telegram.ServiceInterface,
	purger ObjectPurger,
	hub Broadcaster,
	logger *zap.Logger,
) *NotificationListener {
	return &NotificationListener{
		reports: reports,
		tasks:   tasks,
		chat:    chat,
		purger:  purger,
		hub:     hub,
		logger:  logger.Named("notification_listener"),
	}
}

func (l *NotificationListener) Register(bus Subscriber) {
	bus.Subscribe(inspection.EffectTaskNotify, l.handleEffect)
	bus.Subscribe(inspection.EffectReportEmail, l.handleEffect)
	bus.Subscribe(inspection.EffectChatAlert, l.handleEffect)
	bus.Subscribe(inspection.EffectMediaPurge, l.handleEffect)

	for _, name := range []string{
		events.InspectionCreated,
		events.CheckpointUpdated,
		events.InspectionCompleted,
		events.InspectionStopped,
	} {
		bus.Subscribe(name, l.handleLifecycle)
	}
	l.logger.Info("NotificationListener подписан на эффекты и события осмотров")
}

func (l *NotificationListener) handleEffect(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.EffectEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события %T", event)
	}

	switch effect := e.Effect.(type) {
	case inspection.TaskNotifyEffect:
		payload := tasknotify.Payload{
			TaskID:          effect.TaskID,
			InspectionID:    effect.InspectionID,
			EquipmentStatus: effect.EquipmentStatus,
			CompletedAt:     effect.CompletedAt,
		}
		if effect.FreightID != nil {
			payload.FreightID = *effect.FreightID
		}
		if err := l.tasks.Notify(ctx, payload); err != nil {
			return fmt.Errorf("уведомление системы задач по осмотру %d: %w", effect.InspectionID, err)
		}
		l.logger.Info("Система задач уведомлена",
			zap.String("taskId", payload.TaskID),
			zap.String("freightId", payload.FreightID),
			zap.Uint64("inspectionID", effect.InspectionID))

	case inspection.ReportEmailEffect:
		if _, err := l.reports.SendReport(ctx, effect.InspectionID, effect.To); err != nil {
			return fmt.Errorf("отправка отчёта по осмотру %d: %w", effect.InspectionID, err)
		}

	case inspection.ChatAlertEffect:
		if err := l.chat.SendAlert(ctx, effect.Text); err != nil {
			return fmt.Errorf("оповещение в чат по осмотру %d: %w", effect.InspectionID, err)
		}

	case inspection.MediaPurgeEffect:
		deleted := l.purger.PurgeObjects(ctx, effect.ObjectKeys)
		l.logger.Debug("Объекты хранилища удалены", zap.Int("deleted", deleted), zap.Int("total", len(effect.ObjectKeys)))

	default:
		return fmt.Errorf("неизвестный эффект %s", e.Effect.EffectType())
	}
	return nil
}

// handleLifecycle пересылает событие как есть: его имя становится типом
// сообщения, а поля - телом.
func (l *NotificationListener) handleLifecycle(ctx context.Context, event eventbus.Event) error {
	return l.hub.Broadcast(ctx, event.Name(), event)
}

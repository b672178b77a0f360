package events

import (
	"time"

	"inspection-system/internal/core/inspection"
	"inspection-system/internal/entities"
)

const (
	InspectionCreated   = "inspection.created"
	CheckpointUpdated   = "checkpoint.updated"
	InspectionCompleted = "inspection.completed"
	InspectionStopped   = "inspection.stopped"
)

// InspectionCreatedEvent - создан новый осмотр (повторный GetOrCreate событие не порождает).
type InspectionCreatedEvent struct {
	InspectionID uint64 `json:"inspectionId"`
	EquipmentID  uint64 `json:"equipmentId"`
	TechnicianID uint64 `json:"technicianId"`
}

func (e InspectionCreatedEvent) Name() string { return InspectionCreated }

type CheckpointUpdatedEvent struct {
	InspectionID uint64              `json:"inspectionId"`
	Checkpoint   entities.Checkpoint `json:"checkpoint"`
}

func (e CheckpointUpdatedEvent) Name() string { return CheckpointUpdated }

type InspectionCompletedEvent struct {
	InspectionID    uint64    `json:"inspectionId"`
	EquipmentID     uint64    `json:"equipmentId"`
	EquipmentStatus string    `json:"equipmentStatus"`
	CompletedAt     time.Time `json:"completedAt"`
}

func (e InspectionCompletedEvent) Name() string { return InspectionCompleted }

type InspectionStoppedEvent struct {
	InspectionID uint64 `json:"inspectionId"`
	EquipmentID  uint64 `json:"equipmentId"`
}

func (e InspectionStoppedEvent) Name() string { return InspectionStopped }

// EffectEvent переносит эффект завершения по шине; имя события совпадает с типом эффекта.
type EffectEvent struct {
	Effect inspection.Effect
}

func (e EffectEvent) Name() string { return e.Effect.EffectType() }

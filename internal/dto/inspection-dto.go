package dto

import (
	"time"

	"github.com/aarondl/null/v8"

	"inspection-system/internal/core/inspection"
	"inspection-system/internal/entities"
)

type StartInspectionDTO struct {
	EquipmentID  uint64      `json:"equipmentId" validate:"required"`
	TemplateID   null.Uint64 `json:"templateId"`
	TaskID       null.String `json:"taskId" validate:"omitempty,max=100"`
	SerialNumber null.String `json:"serialNumber" validate:"omitempty,max=100"`
	FreightID    null.String `json:"freightId" validate:"omitempty,max=100"`
}

type StartInspectionResponseDTO struct {
	Inspection *entities.InspectionDetail `json:"inspection"`
	Created    bool                       `json:"created"`
}

type UpdateCheckpointDTO struct {
	Status         string       `json:"status" validate:"required,checkpoint_status"`
	Notes          null.String  `json:"notes" validate:"omitempty,max=4000"`
	EstimatedHours null.Float64 `json:"estimatedHours" validate:"omitempty,gte=0"`
}

type CompleteInspectionDTO struct {
	// Force - завершить с незаполненными точками (SUPERVISOR/ADMIN).
	Force             bool        `json:"force"`
	TechnicianRemarks null.String `json:"technicianRemarks" validate:"omitempty,max=4000"`
}

type CompleteInspectionResponseDTO struct {
	InspectionID    uint64             `json:"inspectionId"`
	EquipmentStatus string             `json:"equipmentStatus"`
	CompletedAt     time.Time          `json:"completedAt"`
	Summary         inspection.Summary `json:"summary"`
}

type MarkAllPassResponseDTO struct {
	Updated int64 `json:"updated"`
}

type SendReportDTO struct {
	To []string `json:"to" validate:"required,min=1,dive,email"`
}

type SendReportResponseDTO struct {
	MessageID string `json:"messageId"`
}

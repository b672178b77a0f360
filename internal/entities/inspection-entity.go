package entities

import (
	"time"
)

type Inspection struct {
	ID                uint64     `json:"id" db:"id"`
	EquipmentID       uint64     `json:"equipmentId" db:"equipment_id"`
	TechnicianID      uint64     `json:"technicianId" db:"technician_id"`
	TemplateID        *uint64    `json:"templateId,omitempty" db:"template_id"`
	TaskID            *string    `json:"taskId,omitempty" db:"task_id"`
	SerialNumber      *string    `json:"serialNumber,omitempty" db:"serial_number"`
	FreightID         *string    `json:"freightId,omitempty" db:"freight_id"`
	TechnicianRemarks *string    `json:"technicianRemarks,omitempty" db:"technician_remarks"`
	Status            string     `json:"status" db:"status"`
	StartedAt         time.Time  `json:"startedAt" db:"started_at"`
	CompletedAt       *time.Time `json:"completedAt,omitempty" db:"completed_at"`
}

type Section struct {
	ID           uint64 `json:"id" db:"id"`
	InspectionID uint64 `json:"inspectionId" db:"inspection_id"`
	Name         string `json:"name" db:"name"`
	Code         string `json:"code" db:"code"`
	Order        int    `json:"order" db:"sort_order"`
}

type Checkpoint struct {
	ID             uint64   `json:"id" db:"id"`
	SectionID      uint64   `json:"sectionId" db:"section_id"`
	Name           string   `json:"name" db:"name"`
	Critical       bool     `json:"critical" db:"critical"`
	Order          int      `json:"order" db:"sort_order"`
	Status         *string  `json:"status" db:"status"`
	Notes          *string  `json:"notes" db:"notes"`
	EstimatedHours *float64 `json:"estimatedHours" db:"estimated_hours"`
}

// StatusValue возвращает статус или пустую строку, если он не выставлен.
func (c Checkpoint) StatusValue() string {
	if c.Status == nil {
		return ""
	}
	return *c.Status
}

// Дерево осмотра целиком: то, что видит отчёт и клиент.

type InspectionDetail struct {
	Inspection
	Equipment    Equipment       `json:"equipment"`
	Technician   UserShort       `json:"technician"`
	TemplateName *string         `json:"templateName,omitempty"`
	Sections     []SectionDetail `json:"sections"`
}

type UserShort struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type SectionDetail struct {
	Section
	Checkpoints []CheckpointDetail `json:"checkpoints"`
}

type CheckpointDetail struct {
	Checkpoint
	Media []Media `json:"media"`
}

// Checkpoints возвращает все контрольные точки дерева в порядке разделов.
func (d *InspectionDetail) Checkpoints() []Checkpoint {
	var out []Checkpoint
	for _, s := range d.Sections {
		for _, c := range s.Checkpoints {
			out = append(out, c.Checkpoint)
		}
	}
	return out
}

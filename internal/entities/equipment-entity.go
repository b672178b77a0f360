package entities

import (
	"inspection-system/pkg/types"
)

type Equipment struct {
	ID           uint64  `json:"id" db:"id"`
	Type         string  `json:"type" db:"type"`
	Model        string  `json:"model" db:"model"`
	SerialNumber string  `json:"serialNumber" db:"serial_number"`
	Location     string  `json:"location" db:"location"`
	HoursUsed    float64 `json:"hoursUsed" db:"hours_used"`
	Status       string  `json:"status" db:"status"`
	TaskID       *string `json:"taskId,omitempty" db:"task_id"`

	types.BaseEntity
}

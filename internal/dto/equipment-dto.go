package dto

import "github.com/aarondl/null/v8"

type CreateEquipmentDTO struct {
	Type         string      `json:"type" validate:"required,equipment_type"`
	Model        string      `json:"model" validate:"required,max=200"`
	SerialNumber string      `json:"serialNumber" validate:"required,max=100"`
	Location     string      `json:"location" validate:"max=200"`
	HoursUsed    float64     `json:"hoursUsed" validate:"gte=0"`
	Status       null.String `json:"status" validate:"omitempty,equipment_status"`
	TaskID       null.String `json:"taskId" validate:"omitempty,max=100"`
}

type UpdateEquipmentDTO struct {
	Type         null.String  `json:"type" validate:"omitempty,equipment_type"`
	Model        null.String  `json:"model" validate:"omitempty,max=200"`
	SerialNumber null.String  `json:"serialNumber" validate:"omitempty,max=100"`
	Location     null.String  `json:"location" validate:"omitempty,max=200"`
	HoursUsed    null.Float64 `json:"hoursUsed" validate:"omitempty,gte=0"`
	Status       null.String  `json:"status" validate:"omitempty,equipment_status"`
	TaskID       null.String  `json:"taskId" validate:"omitempty,max=100"`
}

type ImportRowErrorDTO struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResultDTO struct {
	Created int                 `json:"created"`
	Updated int                 `json:"updated"`
	Errors  []ImportRowErrorDTO `json:"errors"`
}

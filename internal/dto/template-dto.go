package dto

import "github.com/aarondl/null/v8"

type TemplateCheckpointDTO struct {
	Name     string `json:"name" validate:"required,max=200"`
	Critical bool   `json:"critical"`
}

type TemplateSectionDTO struct {
	Name        string                  `json:"name" validate:"required,max=200"`
	Checkpoints []TemplateCheckpointDTO `json:"checkpoints" validate:"dive"`
}

type CreateTemplateDTO struct {
	Name             string               `json:"name" validate:"required,max=200"`
	EquipmentType    string               `json:"equipmentType" validate:"required,equipment_type"`
	IsDefault        bool                 `json:"isDefault"`
	ParentTemplateID null.Uint64          `json:"parentTemplateId"`
	Sections         []TemplateSectionDTO `json:"sections" validate:"dive"`
}

// UpdateTemplateDTO: Sections == nil оставляет разделы как есть.
type UpdateTemplateDTO struct {
	Name          null.String          `json:"name" validate:"omitempty,max=200"`
	EquipmentType null.String          `json:"equipmentType" validate:"omitempty,equipment_type"`
	IsDefault     null.Bool            `json:"isDefault"`
	Sections      []TemplateSectionDTO `json:"sections" validate:"omitempty,dive"`
}

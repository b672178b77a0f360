package entities

import (
	"inspection-system/pkg/types"
)

// InspectionTemplate - шаблон чек-листа для типа техники.
// Дочерний шаблон получает копию разделов родителя при создании.
type InspectionTemplate struct {
	ID               uint64  `json:"id" db:"id"`
	Name             string  `json:"name" db:"name"`
	EquipmentType    string  `json:"equipmentType" db:"equipment_type"`
	IsDefault        bool    `json:"isDefault" db:"is_default"`
	ParentTemplateID *uint64 `json:"parentTemplateId,omitempty" db:"parent_template_id"`

	types.BaseEntity

	Sections []TemplateSection `json:"sections,omitempty" db:"-"`
}

type TemplateSection struct {
	ID         uint64 `json:"id" db:"id"`
	TemplateID uint64 `json:"templateId" db:"template_id"`
	Name       string `json:"name" db:"name"`
	Order      int    `json:"order" db:"sort_order"`

	Checkpoints []TemplateCheckpoint `json:"checkpoints" db:"-"`
}

type TemplateCheckpoint struct {
	ID        uint64 `json:"id" db:"id"`
	SectionID uint64 `json:"sectionId" db:"section_id"`
	Name      string `json:"name" db:"name"`
	Critical  bool   `json:"critical" db:"critical"`
	Order     int    `json:"order" db:"sort_order"`
}

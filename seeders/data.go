package seeders

import "inspection-system/pkg/constants"

type templateCheckpointSeed struct {
	Name     string
	Critical bool
}

type templateSectionSeed struct {
	Name        string
	Checkpoints []templateCheckpointSeed
}

type templateSeed struct {
	Name          string
	EquipmentType string
	Sections      []templateSectionSeed
}

// Чек-листы по умолчанию для подъёмной техники.
var templatesData = []templateSeed{
	{
		Name:          "Boom Lift Pre-Start",
		EquipmentType: constants.EquipmentTypeBoomLift,
		Sections: []templateSectionSeed{
			{Name: "Visual Inspection", Checkpoints: []templateCheckpointSeed{
				{Name: "Tyres and wheels"},
				{Name: "Hydraulic hoses and fittings", Critical: true},
				{Name: "Boom structure and welds", Critical: true},
				{Name: "Decals and placards"},
			}},
			{Name: "Platform", Checkpoints: []templateCheckpointSeed{
				{Name: "Guardrails and gate", Critical: true},
				{Name: "Harness anchor points", Critical: true},
				{Name: "Platform controls"},
			}},
			{Name: "Operational Test", Checkpoints: []templateCheckpointSeed{
				{Name: "Ground controls"},
				{Name: "Emergency lowering", Critical: true},
				{Name: "Tilt alarm", Critical: true},
			}},
		},
	},
	{
		Name:          "Scissor Lift Pre-Start",
		EquipmentType: constants.EquipmentTypeScissorLift,
		Sections: []templateSectionSeed{
			{Name: "Visual Inspection", Checkpoints: []templateCheckpointSeed{
				{Name: "Scissor arms and pins", Critical: true},
				{Name: "Pothole protection"},
				{Name: "Battery and charger"},
			}},
			{Name: "Operational Test", Checkpoints: []templateCheckpointSeed{
				{Name: "Lift and lower"},
				{Name: "Emergency stop", Critical: true},
				{Name: "Descent alarm"},
			}},
		},
	},
	{
		Name:          "Telehandler Pre-Start",
		EquipmentType: constants.EquipmentTypeTelehandler,
		Sections: []templateSectionSeed{
			{Name: "Visual Inspection", Checkpoints: []templateCheckpointSeed{
				{Name: "Forks and carriage", Critical: true},
				{Name: "Boom wear pads"},
				{Name: "Fluid levels"},
			}},
			{Name: "Safety Features", Checkpoints: []templateCheckpointSeed{
				{Name: "Load moment indicator", Critical: true},
				{Name: "Seat belt"},
				{Name: "Reversing alarm"},
			}},
		},
	},
}

type equipmentSeed struct {
	Type         string
	Model        string
	SerialNumber string
	Location     string
	HoursUsed    float64
}

var equipmentsData = []equipmentSeed{
	{Type: constants.EquipmentTypeBoomLift, Model: "JLG 600S", SerialNumber: "DEMO-BL-001", Location: "Yard A", HoursUsed: 1240},
	{Type: constants.EquipmentTypeScissorLift, Model: "Genie GS-1930", SerialNumber: "DEMO-SL-001", Location: "Yard A", HoursUsed: 310.5},
	{Type: constants.EquipmentTypeTelehandler, Model: "Manitou MT 1440", SerialNumber: "DEMO-TH-001", Location: "Yard B", HoursUsed: 2875},
}

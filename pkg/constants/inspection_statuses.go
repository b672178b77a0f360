package constants

// Статусы осмотра. Выхода из COMPLETED нет.
const (
	InspectionStatusInProgress = "IN_PROGRESS"
	InspectionStatusCompleted  = "COMPLETED"
)

// Статусы контрольной точки. Отсутствие статуса хранится как NULL.
const (
	CheckpointStatusPass           = "PASS"
	CheckpointStatusCorrected      = "CORRECTED"
	CheckpointStatusActionRequired = "ACTION_REQUIRED"
	CheckpointStatusNotApplicable  = "NOT_APPLICABLE"
)

var CheckpointStatuses = []string{
	CheckpointStatusPass,
	CheckpointStatusCorrected,
	CheckpointStatusActionRequired,
	CheckpointStatusNotApplicable,
}

const (
	EquipmentStatusOperational  = "OPERATIONAL"
	EquipmentStatusMaintenance  = "MAINTENANCE"
	EquipmentStatusOutOfService = "OUT_OF_SERVICE"
)

var EquipmentStatuses = []string{
	EquipmentStatusOperational,
	EquipmentStatusMaintenance,
	EquipmentStatusOutOfService,
}

const (
	EquipmentTypeBoomLift    = "BOOM_LIFT"
	EquipmentTypeScissorLift = "SCISSOR_LIFT"
	EquipmentTypeTelehandler = "TELEHANDLER"
	EquipmentTypeForklift    = "FORKLIFT"
	EquipmentTypeOther       = "OTHER"
)

var EquipmentTypes = []string{
	EquipmentTypeBoomLift,
	EquipmentTypeScissorLift,
	EquipmentTypeTelehandler,
	EquipmentTypeForklift,
	EquipmentTypeOther,
}

// Contains сообщает, входит ли значение в перечисление.
func Contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

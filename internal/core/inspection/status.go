package inspection

import (
	"inspection-system/internal/entities"
	"inspection-system/pkg/constants"
)

// DeriveEquipmentStatus вычисляет статус техники по итогам осмотра:
// критическая ACTION_REQUIRED выводит из эксплуатации, любая другая
// ACTION_REQUIRED отправляет на обслуживание.
func DeriveEquipmentStatus(checkpoints []entities.Checkpoint) string {
	hasActionRequired := false
	for _, c := range checkpoints {
		if c.StatusValue() != constants.CheckpointStatusActionRequired {
			continue
		}
		if c.Critical {
			return constants.EquipmentStatusOutOfService
		}
		hasActionRequired = true
	}
	if hasActionRequired {
		return constants.EquipmentStatusMaintenance
	}
	return constants.EquipmentStatusOperational
}

type Summary struct {
	Total          int     `json:"total"`
	Pass           int     `json:"pass"`
	Corrected      int     `json:"corrected"`
	ActionRequired int     `json:"actionRequired"`
	NotApplicable  int     `json:"notApplicable"`
	Unset          int     `json:"unset"`
	CriticalIssues int     `json:"criticalIssues"`
	EstimatedHours float64 `json:"estimatedHours"`
}

func Summarize(checkpoints []entities.Checkpoint) Summary {
	var s Summary
	for _, c := range checkpoints {
		s.Total++
		switch c.StatusValue() {
		case constants.CheckpointStatusPass:
			s.Pass++
		case constants.CheckpointStatusCorrected:
			s.Corrected++
		case constants.CheckpointStatusActionRequired:
			s.ActionRequired++
			if c.Critical {
				s.CriticalIssues++
			}
		case constants.CheckpointStatusNotApplicable:
			s.NotApplicable++
		default:
			s.Unset++
		}
		if c.EstimatedHours != nil {
			s.EstimatedHours += *c.EstimatedHours
		}
	}
	return s
}

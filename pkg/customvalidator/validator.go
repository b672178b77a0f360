// Файл: pkg/customvalidator/validator.go

package customvalidator

import (
	"regexp"

	"inspection-system/pkg/constants"

	"github.com/go-playground/validator/v10"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// RegisterCustomValidations регистрирует доменные правила и поддержку null-типов
// в переданном экземпляре валидатора.
func RegisterCustomValidations(v *validator.Validate) error {
	registerNullTypes(v)

	rules := map[string]validator.Func{
		"checkpoint_status": enumRule(constants.CheckpointStatuses),
		"equipment_type":    enumRule(constants.EquipmentTypes),
		"equipment_status":  enumRule(constants.EquipmentStatuses),
		"user_role":         enumRule(constants.Roles),
		"email":             isGoodEmailFormat,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func enumRule(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return constants.Contains(allowed, fl.Field().String())
	}
}

func isGoodEmailFormat(fl validator.FieldLevel) bool {
	return emailRegex.MatchString(fl.Field().String())
}

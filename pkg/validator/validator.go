package validator

import (
	"github.com/go-playground/validator/v10"
)

// RegisterRules installs the domain rules on an existing validator
// instance; the router applies them to gin's binding engine so
// `caregiver_role`, `share_permission` and `share_method` binding tags
// work on request structs.
func RegisterRules(v *validator.Validate) {
	v.RegisterValidation("caregiver_role", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "ADMIN", "EDITOR", "VIEWER":
			return true
		}
		return false
	})

	v.RegisterValidation("share_permission", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "", "READ_ONLY", "FULL_ACCESS":
			return true
		}
		return false
	})

	v.RegisterValidation("share_method", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "EMAIL", "SMS", "LINK", "APP_INVITATION":
			return true
		}
		return false
	})
}

package validator

import (
	"testing"

	pgvalidator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type shareFields struct {
	Role        string `validate:"omitempty,caregiver_role"`
	Permissions string `validate:"omitempty,share_permission"`
	Method      string `validate:"omitempty,share_method"`
}

func TestDomainRules(t *testing.T) {
	v := pgvalidator.New(pgvalidator.WithRequiredStructEnabled())
	RegisterRules(v)

	assert.NoError(t, v.Struct(shareFields{Role: "EDITOR", Permissions: "READ_ONLY", Method: "EMAIL"}))
	assert.NoError(t, v.Struct(shareFields{Method: "APP_INVITATION"}))

	assert.Error(t, v.Struct(shareFields{Role: "OWNER"}))
	assert.Error(t, v.Struct(shareFields{Permissions: "WRITE"}))
	assert.Error(t, v.Struct(shareFields{Method: "CARRIER_PIGEON"}))
}

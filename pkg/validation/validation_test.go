package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatterns(t *testing.T) {
	assert.True(t, IsGSTIN("27AAPFU0939F1ZV"))
	assert.False(t, IsGSTIN("27AAPFU0939F1V"))
	assert.False(t, IsGSTIN("27aapfu0939f1zv"))

	assert.True(t, IsPAN("AAPFU0939F"))
	assert.False(t, IsPAN("AAPF0939F"))

	assert.True(t, IsPeriod("2024-03"))
	assert.False(t, IsPeriod("2024-13"))
	assert.False(t, IsPeriod("24-03"))

	assert.Equal(t, "AAPFU0939F", PANOfGSTIN("27AAPFU0939F1ZV"))
	assert.Empty(t, PANOfGSTIN("short"))
}

func TestRegisterTags(t *testing.T) {
	v := validator.New()
	require.NoError(t, Register(v))

	type input struct {
		GSTIN  string `validate:"omitempty,gstin"`
		PAN    string `validate:"omitempty,pan"`
		Period string `validate:"omitempty,period"`
	}

	assert.NoError(t, v.Struct(input{GSTIN: "27AAPFU0939F1ZV", PAN: "AAPFU0939F", Period: "2024-01"}))
	assert.NoError(t, v.Struct(input{}))
	assert.Error(t, v.Struct(input{GSTIN: "nope"}))
	assert.Error(t, v.Struct(input{PAN: "nope"}))
	assert.Error(t, v.Struct(input{Period: "2024-00"}))
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidCycleHours(t *testing.T) {
	for _, ok := range []string{"0", "70", "12.5", "0.1", "69.9", " 8 "} {
		assert.True(t, ValidCycleHours(ok), ok)
	}
	for _, bad := range []string{"", "-0.1", "70.1", "12.55", "abc", "NaN"} {
		assert.False(t, ValidCycleHours(bad), bad)
	}
}

type sampleForm struct {
	Location string `json:"current_location" validate:"required"`
	Cycle    string `json:"cycle_used" validate:"required,cycle_hours"`
	Email    string `json:"email" validate:"omitempty,email"`
}

func TestValidatorMessages(t *testing.T) {
	v := GetValidator()

	require.NoError(t, v.Validate(sampleForm{Location: "Chicago, IL", Cycle: "12.5"}))

	err := v.Validate(sampleForm{Cycle: "12.5"})
	require.Error(t, err)
	assert.Equal(t, "current_location is required", ValidationMessage(err))

	err = v.Validate(sampleForm{Location: "Chicago, IL", Cycle: "71"})
	require.Error(t, err)
	assert.Equal(t, "cycle_used must be a number between 0 and 70 in steps of 0.1", ValidationMessage(err))

	err = v.Validate(sampleForm{Location: "Chicago, IL", Cycle: "1", Email: "nope"})
	require.Error(t, err)
	assert.Equal(t, "Please enter a valid email address", ValidationMessage(err))
}

func TestValidationMessageFallback(t *testing.T) {
	assert.Equal(t, "Invalid request", ValidationMessage(assert.AnError))
}

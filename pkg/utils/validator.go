package utils

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Bounds of the cycle_used input: hours already used in the 70-hour cycle,
// entered in tenths.
const (
	MinCycleHours = 0
	MaxCycleHours = 70
)

// CustomValidator adapts go-playground/validator to echo.Validator.
type CustomValidator struct {
	validate *validator.Validate
}

var (
	validatorOnce sync.Once
	validatorInst *CustomValidator
)

// GetValidator returns the shared validator with the custom rules registered.
func GetValidator() *CustomValidator {
	validatorOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		if err := v.RegisterValidation("cycle_hours", validateCycleHours); err != nil {
			panic(fmt.Sprintf("register cycle_hours: %v", err))
		}
		validatorInst = &CustomValidator{validate: v}
	})
	return validatorInst
}

func (cv *CustomValidator) Validate(i any) error {
	return cv.validate.Struct(i)
}

// ValidCycleHours reports whether s is a number in [0, 70] with at most one
// decimal place.
func ValidCycleHours(s string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || v < MinCycleHours || v > MaxCycleHours {
		return false
	}
	tenths := v * 10
	return math.Abs(tenths-math.Round(tenths)) < 1e-6
}

func validateCycleHours(fl validator.FieldLevel) bool {
	return ValidCycleHours(fl.Field().String())
}

// ValidationMessage turns a validation error into a sentence for the user.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "cycle_hours":
		return fmt.Sprintf("%s must be a number between %d and %d in steps of 0.1", fe.Field(), MinCycleHours, MaxCycleHours)
	case "email":
		return "Please enter a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

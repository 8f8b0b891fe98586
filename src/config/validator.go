package config

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Validator validates configuration values using go-playground/validator.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the custom tag functions registered.
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterValidation("log_level", validateLogLevel)
	v.RegisterValidation("log_format", validateLogFormat)
	v.RegisterValidation("clock", validateClock)

	return &Validator{validate: v}
}

// Validate checks a complete configuration.
func (v *Validator) Validate(config *Config) error {
	if config.Version == "" {
		config.Version = "1.0"
	}

	if err := v.validate.Struct(config); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, e := range validationErrors {
				return ValidationError{
					Field:   e.Field(),
					Message: fmt.Sprintf("validation failed on tag '%s' with value '%v'", e.Tag(), e.Value()),
					Value:   e.Value(),
				}
			}
		}
		return err
	}

	return nil
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "debug", "info", "warn", "error":
		return true
	}
	return false
}

func validateLogFormat(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "text", "json":
		return true
	}
	return false
}

var clockPattern = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)(:([0-5]\d))?$`)

func validateClock(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return clockPattern.MatchString(value)
}

// ParseClock splits an "HH:MM" or "HH:MM:SS" string into its components.
func ParseClock(value string) (hour, minute, second int, err error) {
	m := clockPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, 0, 0, fmt.Errorf("invalid clock value %q", value)
	}
	fmt.Sscanf(m[1], "%d", &hour)
	fmt.Sscanf(m[2], "%d", &minute)
	if m[4] != "" {
		fmt.Sscanf(m[4], "%d", &second)
	}
	return hour, minute, second, nil
}

package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Catalog errors. A lookup miss is a configuration or programmer
	// error: criteria are compiled in, so production code should never
	// hit this.
	ErrUnknownCriterion = errors.New("unknown criterion")

	// Evaluation errors - recoverable, the caller re-prompts
	ErrIncompleteMeasurement = errors.New("incomplete measurement")
	ErrCalibration           = errors.New("calibration error")

	// Import errors - recoverable, existing state is preserved
	ErrMalformedImport = errors.New("malformed import")

	// Trending errors
	ErrSeriesEmpty      = errors.New("trend series has too few points")
	ErrUnknownParameter = errors.New("unknown trend parameter")

	// Store errors
	ErrVerdictNotFound = errors.New("verdict not found")
)

// Error constructors with context
func NewUnknownCriterionError(testID, protocol string) error {
	if protocol == "" {
		return fmt.Errorf("%w: test %s", ErrUnknownCriterion, testID)
	}
	return fmt.Errorf("%w: test %s for protocol %s", ErrUnknownCriterion, testID, protocol)
}

func NewIncompleteMeasurementError(field string) error {
	return fmt.Errorf("%w: missing %s", ErrIncompleteMeasurement, field)
}

// NewInvalidMeasurementError marks a reading that is present but
// physically impossible, naming the offending field.
func NewInvalidMeasurementError(field string, value float64) error {
	return fmt.Errorf("%w: %s must be positive, got %g", ErrIncompleteMeasurement, field, value)
}

func NewCalibrationError(reason string) error {
	return fmt.Errorf("%w: %s", ErrCalibration, reason)
}

func NewMalformedImportError(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedImport, reason)
}

// Error checking helpers
func IsUnknownCriterion(err error) bool {
	return errors.Is(err, ErrUnknownCriterion)
}

func IsIncompleteMeasurement(err error) bool {
	return errors.Is(err, ErrIncompleteMeasurement)
}

func IsCalibrationError(err error) bool {
	return errors.Is(err, ErrCalibration)
}

func IsMalformedImport(err error) bool {
	return errors.Is(err, ErrMalformedImport)
}

// IsRecoverable reports whether the error should be surfaced to the user
// as a validation problem rather than a server fault.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrIncompleteMeasurement) ||
		errors.Is(err, ErrCalibration) ||
		errors.Is(err, ErrMalformedImport)
}

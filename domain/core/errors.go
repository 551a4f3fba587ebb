package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Weight derivation errors
	ErrDimensionMismatch     = errors.New("input lengths do not match")
	ErrDegenerateProbability = errors.New("fitted probability implies an undefined weight")
	ErrEmptyRespondentGroup  = errors.New("no respondents present, normalization undefined")

	// Statistic errors
	ErrZeroWeightSum = errors.New("weights sum to zero")

	// Ingestion errors
	ErrVariableNotFound = errors.New("variable not found in frame")
	ErrNonNumericColumn = errors.New("column is not numeric")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Fit errors
	ErrFitDiverged = errors.New("iterative fit did not converge")
	ErrSingularFit = errors.New("design matrix is singular")
)

// Error constructors with context

func NewDegenerateProbabilityError(row int, p float64) error {
	return fmt.Errorf("%w: row %d has propensity %g", ErrDegenerateProbability, row, p)
}

func NewDimensionMismatchError(what string, got, want int) error {
	return fmt.Errorf("%w: %s has length %d, expected %d", ErrDimensionMismatch, what, got, want)
}

func NewVariableNotFoundError(key VariableKey) error {
	return fmt.Errorf("%w: %s", ErrVariableNotFound, key)
}

// Error checking helpers

// IsDerivationError reports whether err arose from weight derivation
// preconditions rather than from a downstream statistic.
func IsDerivationError(err error) bool {
	return errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrDegenerateProbability) ||
		errors.Is(err, ErrEmptyRespondentGroup)
}

// IsStatisticError reports whether err is fatal for a single statistic only.
func IsStatisticError(err error) bool {
	return errors.Is(err, ErrZeroWeightSum)
}

func IsIngestionError(err error) bool {
	return errors.Is(err, ErrVariableNotFound) ||
		errors.Is(err, ErrNonNumericColumn) ||
		errors.Is(err, ErrInsufficientData)
}

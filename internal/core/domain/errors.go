package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrTemporary    = errors.New("temporary failure")

	// ErrNormalization is the kind shared by every *NormalizationError.
	ErrNormalization = errors.New("normalization failed")

	// ErrAggregationInconsistency signals a broken internal invariant. It is
	// never produced by valid input and is always surfaced to the caller.
	ErrAggregationInconsistency = errors.New("aggregation inconsistency")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

type NormalizationCode string

const (
	CodeEmptyValue        NormalizationCode = "EmptyValue"
	CodeUnparseableNumber NormalizationCode = "UnparseableNumber"
	CodeUnparseableMoney  NormalizationCode = "UnparseableMoney"
	CodeUnparseableDate   NormalizationCode = "UnparseableDate"
	CodeAmbiguousDate     NormalizationCode = "AmbiguousDate"
	CodeInvalidCodeFormat NormalizationCode = "InvalidCodeFormat"
)

// NormalizationError reports a raw value that could not be parsed into its
// expected kind.
type NormalizationError struct {
	Code    NormalizationCode
	Kind    ValueKind
	Raw     string
	Message string
}

func (e *NormalizationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s value %q", e.Code, e.Kind, e.Raw)
	}
	return fmt.Sprintf("%s: %s value %q: %s", e.Code, e.Kind, e.Raw, e.Message)
}

func (e *NormalizationError) Unwrap() error {
	return ErrNormalization
}

// NormalizationCodeOf returns the code of a wrapped *NormalizationError, or "".
func NormalizationCodeOf(err error) NormalizationCode {
	var nerr *NormalizationError
	if errors.As(err, &nerr) {
		return nerr.Code
	}
	return ""
}

// AggregationError builds an ErrAggregationInconsistency failure.
func AggregationError(operation string, format string, args ...any) error {
	return WrapError(ErrAggregationInconsistency, operation, fmt.Errorf(format, args...))
}

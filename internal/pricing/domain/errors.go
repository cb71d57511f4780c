package domain

import (
	"errors"
	"fmt"
	"math"
)

// 错误类别，使用 errors.Is 判断
var (
	ErrValidation  = errors.New("validation error")
	ErrComputation = errors.New("computation error")
)

// PricingError 定价错误，Kind 为 ErrValidation 或 ErrComputation
type PricingError struct {
	Kind    error
	Field   string
	Message string
}

func (e *PricingError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
}

func (e *PricingError) Unwrap() error {
	return e.Kind
}

func validationError(field, format string, args ...any) error {
	return &PricingError{Kind: ErrValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError 供上层对批量等组合输入做同类校验
func NewValidationError(field, format string, args ...any) error {
	return validationError(field, format, args...)
}

func computationError(format string, args ...any) error {
	return &PricingError{Kind: ErrComputation, Message: fmt.Sprintf(format, args...)}
}

// IsValidation 判断是否为输入校验错误
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsComputation 判断是否为数学上无定义的计算错误
func IsComputation(err error) bool {
	return errors.Is(err, ErrComputation)
}

func checkFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return validationError(field, "must be a finite number, got %v", v)
	}
	return nil
}

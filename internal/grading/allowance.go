package grading

import (
	"github.com/shopspring/decimal"

	pkgerrors "istc-sms/backend/pkg/errors"
)

// ErrInvalidSemester the semester has no subjects to derive an allowance from.
// A semester with subjects whose allowance floors to zero is not an error.
var ErrInvalidSemester = pkgerrors.New(pkgerrors.KindValidation, "semester has no subjects")

// DefaultGracePercent is the share of a semester's total marks granted as grace.
var DefaultGracePercent = decimal.NewFromInt(1)

// ComputeAllowance returns floor(sum(maxMarks) * percent / 100).
func ComputeAllowance(maxMarks []int, percent decimal.Decimal) (int, error) {
	if len(maxMarks) == 0 {
		return 0, ErrInvalidSemester
	}
	var sum int64
	for _, m := range maxMarks {
		sum += int64(m)
	}
	return int(decimal.NewFromInt(sum).Mul(percent).Div(hundred).Floor().IntPart()), nil
}

// Package grading holds the institution's grading rules: the percentage to
// letter-grade table and the grace allowance formula. Everything here is pure.
package grading

import (
	"fmt"

	"github.com/shopspring/decimal"

	"istc-sms/backend/config"
)

// Grade is a letter grade such as "A+" or "E".
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeCPlus Grade = "C+"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeE     Grade = "E"
)

var hundred = decimal.NewFromInt(100)

// Boundary grants Grade to every percentage >= MinPercent.
type Boundary struct {
	MinPercent decimal.Decimal
	Grade      Grade
}

// Scale is an ordered grade table. Boundaries are sorted by MinPercent
// descending; anything below the last boundary gets the fail grade.
type Scale struct {
	boundaries []Boundary
	fail       Grade
}

// DefaultScale returns the institution's default table:
// >=90 A+, >=80 A, >=70 B+, >=60 B, >=50 C+, >=45 C, >=40 D, else E.
func DefaultScale() *Scale {
	return &Scale{
		boundaries: []Boundary{
			{MinPercent: decimal.NewFromInt(90), Grade: GradeAPlus},
			{MinPercent: decimal.NewFromInt(80), Grade: GradeA},
			{MinPercent: decimal.NewFromInt(70), Grade: GradeBPlus},
			{MinPercent: decimal.NewFromInt(60), Grade: GradeB},
			{MinPercent: decimal.NewFromInt(50), Grade: GradeCPlus},
			{MinPercent: decimal.NewFromInt(45), Grade: GradeC},
			{MinPercent: decimal.NewFromInt(40), Grade: GradeD},
		},
		fail: GradeE,
	}
}

// NewScale validates and builds a custom table.
func NewScale(boundaries []Boundary, fail Grade) (*Scale, error) {
	if len(boundaries) == 0 {
		return nil, fmt.Errorf("grading: scale needs at least one passing boundary")
	}
	if fail == "" {
		return nil, fmt.Errorf("grading: fail grade must not be empty")
	}
	seen := map[Grade]bool{fail: true}
	for i, b := range boundaries {
		if seen[b.Grade] {
			return nil, fmt.Errorf("grading: grade %q appears more than once", b.Grade)
		}
		seen[b.Grade] = true
		if !b.MinPercent.IsPositive() || b.MinPercent.GreaterThan(hundred) {
			return nil, fmt.Errorf("grading: boundary %q must be within (0, 100]", b.Grade)
		}
		if i > 0 && !b.MinPercent.LessThan(boundaries[i-1].MinPercent) {
			return nil, fmt.Errorf("grading: boundaries must be strictly descending")
		}
	}
	cp := make([]Boundary, len(boundaries))
	copy(cp, boundaries)
	return &Scale{boundaries: cp, fail: fail}, nil
}

// NewScaleFromConfig builds the configured table, falling back to the
// default boundaries when none are configured.
func NewScaleFromConfig(cfg *config.GradingConfig) (*Scale, error) {
	if len(cfg.Boundaries) == 0 {
		s := DefaultScale()
		if cfg.FailGrade != "" {
			s.fail = Grade(cfg.FailGrade)
		}
		return s, nil
	}
	bounds := make([]Boundary, 0, len(cfg.Boundaries))
	for _, b := range cfg.Boundaries {
		bounds = append(bounds, Boundary{
			MinPercent: decimal.NewFromFloat(b.MinPercent),
			Grade:      Grade(b.Grade),
		})
	}
	return NewScale(bounds, Grade(cfg.FailGrade))
}

// Classify maps a percentage to a grade. Callers clamp to [0, 100]; values
// outside the range still classify (above 100 is the top grade, below 0 fails).
func (s *Scale) Classify(percentage decimal.Decimal) Grade {
	for _, b := range s.boundaries {
		if percentage.GreaterThanOrEqual(b.MinPercent) {
			return b.Grade
		}
	}
	return s.fail
}

// ClassifyMarks classifies mark out of maxMarks.
func (s *Scale) ClassifyMarks(mark decimal.Decimal, maxMarks int) Grade {
	return s.Classify(Percentage(mark, maxMarks))
}

// FailGrade is the single failing grade.
func (s *Scale) FailGrade() Grade { return s.fail }

// IsFailing reports whether g is the fail grade.
func (s *Scale) IsFailing(g Grade) bool { return g == s.fail }

// Rank orders grades: 0 for the fail grade, increasing towards the top grade.
// Unknown grades rank -1.
func (s *Scale) Rank(g Grade) int {
	if g == s.fail {
		return 0
	}
	for i, b := range s.boundaries {
		if b.Grade == g {
			return len(s.boundaries) - i
		}
	}
	return -1
}

// Valid reports whether g belongs to this scale.
func (s *Scale) Valid(g Grade) bool { return s.Rank(g) >= 0 }

// PassingMarks is the smallest whole mark out of maxMarks that clears the
// lowest passing boundary (40% of 100 is 40, 40% of 75 is 30).
func (s *Scale) PassingMarks(maxMarks int) int {
	lowest := s.boundaries[len(s.boundaries)-1].MinPercent
	return int(decimal.NewFromInt(int64(maxMarks)).Mul(lowest).Div(hundred).Ceil().IntPart())
}

// Percentage is mark / maxMarks * 100. A non-positive maxMarks yields zero.
func Percentage(mark decimal.Decimal, maxMarks int) decimal.Decimal {
	if maxMarks <= 0 {
		return decimal.Zero
	}
	return mark.Mul(hundred).Div(decimal.NewFromInt(int64(maxMarks)))
}

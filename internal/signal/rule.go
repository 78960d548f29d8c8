package signal

import (
	"github.com/rxtech-lab/argo-signal/internal/indicator"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

type Operator string

const (
	OperatorGreater      Operator = "gt"
	OperatorGreaterEqual Operator = "gte"
	OperatorLess         Operator = "lt"
	OperatorLessEqual    Operator = "lte"
	OperatorEqual        Operator = "eq"
	OperatorNotEqual     Operator = "ne"
)

// Condition compares a frame column against a constant or against another
// column scaled by Multiplier.
type Condition struct {
	Column string   `yaml:"column" json:"column" validate:"required" jsonschema:"title=Column"`
	Op     Operator `yaml:"op" json:"op" validate:"required,oneof=gt gte lt lte eq ne" jsonschema:"title=Operator,enum=gt,enum=gte,enum=lt,enum=lte,enum=eq,enum=ne"`
	Value  *float64 `yaml:"value,omitempty" json:"value,omitempty" validate:"required_without=Ref,excluded_with=Ref" jsonschema:"title=Value"`
	Ref    string   `yaml:"ref,omitempty" json:"ref,omitempty" jsonschema:"title=Reference column"`
	// Multiplier scales Ref. Zero means 1.
	Multiplier float64 `yaml:"multiplier,omitempty" json:"multiplier,omitempty" jsonschema:"title=Multiplier"`
}

// Rule assigns Signal to every row where all of its conditions hold.
type Rule struct {
	Name       string           `yaml:"name" json:"name" validate:"required" jsonschema:"title=Name"`
	Signal     types.SignalType `yaml:"signal" json:"signal" validate:"required,oneof=LONG_ENTRY SHORT_ENTRY NONE" jsonschema:"title=Signal,enum=LONG_ENTRY,enum=SHORT_ENTRY,enum=NONE"`
	Conditions []Condition      `yaml:"conditions" json:"conditions" validate:"required,min=1,dive" jsonschema:"title=Conditions"`
}

// Threshold is shorthand for a constant comparison.
func Threshold(column string, op Operator, value float64) Condition {
	return Condition{
		Column:     column,
		Op:         op,
		Value:      &value,
		Ref:        "",
		Multiplier: 0,
	}
}

// Compare is shorthand for a column to column comparison.
func Compare(column string, op Operator, ref string, multiplier float64) Condition {
	return Condition{
		Column:     column,
		Op:         op,
		Value:      nil,
		Ref:        ref,
		Multiplier: multiplier,
	}
}

func (c Condition) validate() error {
	switch c.Op {
	case OperatorGreater, OperatorGreaterEqual, OperatorLess, OperatorLessEqual, OperatorEqual, OperatorNotEqual:
	default:
		return errors.Newf(errors.ErrCodeUnknownOperator, "unknown operator %q on column %s", c.Op, c.Column)
	}

	if c.Column == "" {
		return errors.New(errors.ErrCodeInvalidRule, "condition has no column")
	}

	if (c.Value == nil) == (c.Ref == "") {
		return errors.Newf(errors.ErrCodeInvalidRule, "condition on %s needs exactly one of value or ref", c.Column)
	}

	return nil
}

// holds evaluates c at row i. Missing columns were rejected up front.
func (c Condition) holds(frame *indicator.Frame, i int) bool {
	lhs, ok := frame.Value(c.Column, i)
	if !ok {
		return false
	}

	var rhs float64

	if c.Value != nil {
		rhs = *c.Value
	} else {
		ref, ok := frame.Value(c.Ref, i)
		if !ok {
			return false
		}

		multiplier := c.Multiplier
		if multiplier == 0 {
			multiplier = 1
		}

		rhs = ref * multiplier
	}

	switch c.Op {
	case OperatorGreater:
		return lhs > rhs
	case OperatorGreaterEqual:
		return lhs >= rhs
	case OperatorLess:
		return lhs < rhs
	case OperatorLessEqual:
		return lhs <= rhs
	case OperatorEqual:
		return lhs == rhs
	case OperatorNotEqual:
		return lhs != rhs
	default:
		return false
	}
}

func (r Rule) matches(frame *indicator.Frame, i int) bool {
	for _, c := range r.Conditions {
		if !c.holds(frame, i) {
			return false
		}
	}

	return true
}

// columns lists every column the rule reads.
func (r Rule) columns() []string {
	var out []string

	for _, c := range r.Conditions {
		out = append(out, c.Column)
		if c.Ref != "" {
			out = append(out, c.Ref)
		}
	}

	return out
}

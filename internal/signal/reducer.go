// Package signal reduces an indicator frame to one discrete signal per bar.
//
// Rules run in their declared order and each match overwrites whatever an
// earlier rule wrote for that row, so the last matching rule wins.
package signal

import (
	"github.com/rxtech-lab/argo-signal/internal/indicator"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

type Reducer struct {
	rules []Rule
}

func NewReducer(rules []Rule) (*Reducer, error) {
	if len(rules) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidRule, "at least one rule is required")
	}

	for _, rule := range rules {
		if len(rule.Conditions) == 0 {
			return nil, errors.Newf(errors.ErrCodeInvalidRule, "rule %s has no conditions", rule.Name)
		}

		if !rule.Signal.IsEntry() && rule.Signal != types.SignalTypeNone {
			return nil, errors.Newf(errors.ErrCodeInvalidRule, "rule %s has unknown signal %q", rule.Name, rule.Signal)
		}

		for _, c := range rule.Conditions {
			if err := c.validate(); err != nil {
				return nil, errors.Wrapf(errors.ErrCodeInvalidRule, err, "rule %s", rule.Name)
			}
		}
	}

	copied := make([]Rule, len(rules))
	copy(copied, rules)

	return &Reducer{rules: copied}, nil
}

func (r *Reducer) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)

	return out
}

// Reduce returns one signal per frame row. Invalid rows are always NONE.
// A rule reading a column the frame lacks is an error.
func (r *Reducer) Reduce(frame *indicator.Frame) ([]types.SignalType, error) {
	if err := r.checkColumns(frame); err != nil {
		return nil, err
	}

	out := make([]types.SignalType, frame.Len())
	for i := range out {
		out[i] = types.SignalTypeNone
	}

	for _, rule := range r.rules {
		for i := range out {
			if frame.Valid(i) && rule.matches(frame, i) {
				out[i] = rule.Signal
			}
		}
	}

	return out, nil
}

// Winner returns the last declared rule matching row i, the one whose signal
// Reduce reports.
func (r *Reducer) Winner(frame *indicator.Frame, i int) (Rule, bool) {
	if !frame.Valid(i) {
		return Rule{}, false
	}

	for j := len(r.rules) - 1; j >= 0; j-- {
		if r.rules[j].matches(frame, i) {
			return r.rules[j], true
		}
	}

	return Rule{}, false
}

func (r *Reducer) checkColumns(frame *indicator.Frame) error {
	for _, rule := range r.rules {
		for _, col := range rule.columns() {
			if _, err := frame.Column(col); err != nil {
				return errors.Wrapf(errors.ErrCodeColumnNotFound, err, "rule %s", rule.Name)
			}
		}
	}

	return nil
}

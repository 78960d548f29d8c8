package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// intParam reads a positive integer parameter, falling back to def when absent.
func intParam(spec Spec, key string, def int) (int, error) {
	v, ok := spec.Params[key]
	if !ok {
		return def, nil
	}

	if v != math.Trunc(v) || v <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "%s: %s must be a positive integer, got %v", spec.Name, key, v)
	}

	return int(v), nil
}

// floatParam reads a finite float parameter, falling back to def when absent.
func floatParam(spec Spec, key string, def float64) (float64, error) {
	v, ok := spec.Params[key]
	if !ok {
		return def, nil
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "%s: %s must be finite", spec.Name, key)
	}

	return v, nil
}

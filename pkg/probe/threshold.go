package probe

import (
	"fmt"

	"github.com/vigil-monitoring/vigil/pkg/model"
)

// EvaluateThreshold compares an observed response time in milliseconds
// against a configured bound. No bound configured always passes. The min
// check runs before the max check, so min wins when both are violated.
func EvaluateThreshold(observedMS int64, t *model.Threshold) model.ThresholdResult {
	if t == nil {
		return model.ThresholdResult{Okay: true}
	}
	if t.Min != nil && observedMS < *t.Min {
		return model.ThresholdResult{
			Okay:   false,
			Result: fmt.Sprintf("time %dms less than minimum %dms", observedMS, *t.Min),
		}
	}
	if t.Max != nil && observedMS > *t.Max {
		return model.ThresholdResult{
			Okay:   false,
			Result: fmt.Sprintf("time %dms greater than maximum %dms", observedMS, *t.Max),
		}
	}
	return model.ThresholdResult{Okay: true}
}

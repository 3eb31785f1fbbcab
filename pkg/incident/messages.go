package incident

import (
	"fmt"
	"time"

	"github.com/vigil-monitoring/vigil/pkg/model"
)

// failureMessages composes the delivered alert text and the shorter log
// presentation for a failed probe. Threshold breaches carry the threshold
// detail; everything else reports expectation versus what actually came
// back, falling back to the outcome code when there is no concrete actual.
func failureMessages(ep model.Endpoint, out model.Outcome) (message, presentation string) {
	identity := ep.Identity.String()

	if out.Threshold != "" {
		message = fmt.Sprintf("%s response %s", identity, out.Threshold)
		presentation = fmt.Sprintf("result was %s", out.Threshold)
		return message, presentation
	}

	message = fmt.Sprintf("%s expected %s", identity, ep.Expected)
	presentation = fmt.Sprintf("result was %s", out.Message)
	if out.Actual != "" {
		message += ", actual: " + out.Actual
		presentation += ", actual: " + out.Actual
	} else {
		message += ", actual: " + out.Message
	}
	return message, presentation
}

// recoveryMessage composes the all-clear text, including how long the
// endpoint was down.
func recoveryMessage(id model.Identity, downFor time.Duration) string {
	return fmt.Sprintf("%s now OK after %s", id.String(), humanizeDuration(downFor))
}

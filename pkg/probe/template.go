package probe

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// AttemptPlaceholder is substituted with the 1-based attempt number before
// each dispatch when attempt templating is enabled.
const AttemptPlaceholder = "##VIGIL_ATTEMPT##"

// Default query argument keys for URL templating.
const (
	DefaultTraceArgumentKey   = "vigil_trace_id"
	DefaultAttemptArgumentKey = "vigil_attempt"
)

// NewTraceID returns a fresh unique token for trace-id templating.
func NewTraceID() string {
	return uuid.NewString()
}

// AppendQueryArgument appends argument (already in key=value form) to the
// URL, creating the query string when none exists yet.
func AppendQueryArgument(original, argument string) string {
	if strings.Contains(original, "?") {
		return original + "&" + argument
	}
	return original + "?" + argument
}

// substituteAttempt fills the attempt placeholder with the current attempt
// number.
func substituteAttempt(url string, attempt int) string {
	return strings.ReplaceAll(url, AttemptPlaceholder, strconv.Itoa(attempt))
}

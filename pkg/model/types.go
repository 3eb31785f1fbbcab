// Package model holds the core types shared across the probe, incident and
// delivery layers.
package model

import (
	"strings"
	"time"
)

// Probe outcome classifications. Exactly one of MessageOK with Result=true,
// or Result=false with a message explaining why.
const (
	MessageOK      = "OK"
	MessageBad     = "BAD"
	MessageTimeout = "TIMEOUT"
)

// Identity uniquely names a monitored target across cycles. Two probes of the
// same endpoint must produce equal identities for incident correlation to
// work.
type Identity struct {
	EnvironmentGroup string `json:"environment_group"`
	Environment      string `json:"environment"`
	EndpointGroup    string `json:"endpoint_group"`
	Endpoint         string `json:"endpoint"`
}

// String renders the identity as its four fields space-joined. This rendering
// is part of the delivered alert text, so it must stay stable.
func (id Identity) String() string {
	return strings.Join([]string{id.EnvironmentGroup, id.Environment, id.EndpointGroup, id.Endpoint}, " ")
}

// Threshold is a response-time bound in milliseconds. Either side may be
// unset.
type Threshold struct {
	Min *int64
	Max *int64
}

// ThresholdResult is the outcome of evaluating an observed response time
// against a Threshold.
type ThresholdResult struct {
	Okay   bool
	Result string
}

// Endpoint describes a single monitored target for one cycle: identity plus
// everything the probe executor needs, with group memberships already
// resolved through the definition tree.
type Endpoint struct {
	Identity

	// URL is the scheme-qualified target: http://, https:// or tcp://.
	URL string

	// Expected is a regex matched against the stringified HTTP status.
	// Empty means any status matches.
	Expected string

	// Threshold is the optional response-time bound.
	Threshold *Threshold

	// Retry is how many extra attempts the executor makes while the
	// outcome is a failure.
	Retry int

	// Timeout overrides the global connection timeout when non-zero.
	Timeout time.Duration

	MetricsGroups []string
	AlertGroups   []string
}

// Outcome is the structured result of probing one endpoint.
type Outcome struct {
	// Result is true only when the probe succeeded and any configured
	// threshold passed.
	Result bool

	// Message is OK, BAD or TIMEOUT.
	Message string

	// Actual is the observed HTTP status when it did not match Expected.
	Actual string

	// Threshold carries the violation description when a threshold failed.
	Threshold string

	// Retried records that the configured per-endpoint retry already ran,
	// so the caller's capped timeout-retry must not fire again.
	Retried bool
}

// Incident is rebuilt every probe cycle from the outcome and the endpoint it
// belongs to. Message is the transport-ready alert text, persisted with the
// active record; PresentationMessage is the shorter summary used in logs and
// structured payloads.
type Incident struct {
	Timestamp           time.Time
	Endpoint            Endpoint
	Outcome             Outcome
	Expected            string
	Message             string
	PresentationMessage string
}

// ActiveRecord is the persisted "currently failing" row for an identity.
// At most one exists per identity at any time.
type ActiveRecord struct {
	Identity
	// Timestamp is the float epoch of when the failure was first detected.
	// It is never refreshed while the failure continues.
	Timestamp float64 `json:"timestamp"`
	Message   string  `json:"message"`
	URL       string  `json:"url"`
}

// Metric is a single timing measurement bound for a metrics provider.
type Metric struct {
	Endpoint  Endpoint
	Timestamp time.Time
	Name      string
	Value     float64
}

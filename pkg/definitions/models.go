// Package definitions models the endpoint, alert and metrics definition
// trees, loads them from local files or S3, and resolves inherited
// properties down the tree.
package definitions

import (
	"encoding/json"
)

// EndpointDefinitions is the root of the endpoint tree:
// groups[].environments[].endpoint-groups[].endpoints[].
type EndpointDefinitions struct {
	Groups []EnvironmentGroup `json:"groups" yaml:"groups"`
}

// EnvironmentGroup is the top level of the tree (for example "prod").
type EnvironmentGroup struct {
	ID            string        `json:"id" yaml:"id"`
	Environments  []Environment `json:"environments" yaml:"environments"`
	MetricsGroups []string      `json:"metrics-groups,omitempty" yaml:"metrics-groups,omitempty"`
	AlertGroups   []string      `json:"alert-groups,omitempty" yaml:"alert-groups,omitempty"`
}

// Environment is the second level (for example "us-east").
type Environment struct {
	ID             string          `json:"id" yaml:"id"`
	EndpointGroups []EndpointGroup `json:"endpoint-groups" yaml:"endpoint-groups"`
	MetricsGroups  []string        `json:"metrics-groups,omitempty" yaml:"metrics-groups,omitempty"`
	AlertGroups    []string        `json:"alert-groups,omitempty" yaml:"alert-groups,omitempty"`
}

// EndpointGroup is the third level. Its Enabled flag (string "true") gates
// whether the group's endpoints run at all.
type EndpointGroup struct {
	ID            string        `json:"id" yaml:"id"`
	Enabled       string        `json:"enabled" yaml:"enabled"`
	Endpoints     []EndpointDef `json:"endpoints" yaml:"endpoints"`
	MetricsGroups []string      `json:"metrics-groups,omitempty" yaml:"metrics-groups,omitempty"`
	AlertGroups   []string      `json:"alert-groups,omitempty" yaml:"alert-groups,omitempty"`
}

// IsEnabled reports whether the group's endpoints should run.
func (g EndpointGroup) IsEnabled() bool {
	return g.Enabled == "true"
}

// ThresholdDef is a min/max response-time bound in milliseconds.
type ThresholdDef struct {
	Min *int64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *int64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// EndpointDef is a single monitored endpoint as configured.
type EndpointDef struct {
	ID       string        `json:"id" yaml:"id"`
	URL      string        `json:"url" yaml:"url"`
	Expected string        `json:"expected,omitempty" yaml:"expected,omitempty"`
	Thresh   *ThresholdDef `json:"threshold,omitempty" yaml:"threshold,omitempty"`

	// Retry is how many extra probe attempts to make while failing.
	Retry int `json:"retry,omitempty" yaml:"retry,omitempty"`

	// TimeoutSeconds overrides the global connection timeout.
	TimeoutSeconds int `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	MetricsGroups []string `json:"metrics-groups,omitempty" yaml:"metrics-groups,omitempty"`
	AlertGroups   []string `json:"alert-groups,omitempty" yaml:"alert-groups,omitempty"`

	AppendTraceID    bool   `json:"appendTraceID,omitempty" yaml:"appendTraceID,omitempty"`
	TraceArgumentKey string `json:"traceArgumentKey,omitempty" yaml:"traceArgumentKey,omitempty"`

	AppendAttempt      bool   `json:"appendAttempt,omitempty" yaml:"appendAttempt,omitempty"`
	AttemptArgumentKey string `json:"attemptArgumentKey,omitempty" yaml:"attemptArgumentKey,omitempty"`
}

// Alert channel kinds understood by the fan-out. Anything else is skipped.
const (
	AlertTypeSlackWebhook = "alert-slack-webhook"
	AlertTypeSlack        = "alert-slack" // older spelling, same channel
	AlertTypeSNS          = "alert-sns"
	AlertTypeEmail        = "alert-email"
)

// Alert is one concrete alert channel configuration. Which fields are
// meaningful depends on Type.
type Alert struct {
	ID   string `json:"id" yaml:"id"`
	Type string `json:"@type" yaml:"@type"`

	// Slack webhook.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// SNS topic.
	ARN    string `json:"arn,omitempty" yaml:"arn,omitempty"`
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Email (SMTP).
	Host     string   `json:"host,omitempty" yaml:"host,omitempty"`
	Port     int      `json:"port,omitempty" yaml:"port,omitempty"`
	From     string   `json:"from,omitempty" yaml:"from,omitempty"`
	To       []string `json:"to,omitempty" yaml:"to,omitempty"`
	Username string   `json:"username,omitempty" yaml:"username,omitempty"`
	Password string   `json:"password,omitempty" yaml:"password,omitempty"`
	TLS      bool     `json:"tls,omitempty" yaml:"tls,omitempty"`
}

// AlertGroup names a list of alert channel ids.
type AlertGroup struct {
	ID     string   `json:"id" yaml:"id"`
	Alerts []string `json:"alerts" yaml:"alerts"`
}

// AlertDefinitions holds the alert channels and their groupings.
type AlertDefinitions struct {
	Alerts []Alert      `json:"alerts" yaml:"alerts"`
	Groups []AlertGroup `json:"alert-groups" yaml:"alert-groups"`
}

// alertDefinitionsWire accepts both the "alert-groups" and the shorter
// "groups" key for the group list.
type alertDefinitionsWire struct {
	Alerts      []Alert      `json:"alerts"`
	AlertGroups []AlertGroup `json:"alert-groups"`
	PlainGroups []AlertGroup `json:"groups"`
}

func (d *AlertDefinitions) UnmarshalJSON(data []byte) error {
	var wire alertDefinitionsWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	d.Alerts = wire.Alerts
	d.Groups = wire.AlertGroups
	if len(d.Groups) == 0 {
		d.Groups = wire.PlainGroups
	}
	return nil
}

// MetricsProvider is a concrete metric backend configuration.
type MetricsProvider struct {
	Type      string `json:"@type" yaml:"@type"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// MetricDef is one named metric sink.
type MetricDef struct {
	ID       string          `json:"id" yaml:"id"`
	Provider MetricsProvider `json:"provider" yaml:"provider"`
}

// MetricsGroup names a list of metric sink ids.
type MetricsGroup struct {
	ID      string   `json:"id" yaml:"id"`
	Metrics []string `json:"metrics" yaml:"metrics"`
}

// MetricsDefinitions holds the metric sinks and their groupings.
type MetricsDefinitions struct {
	Metrics []MetricDef    `json:"metrics" yaml:"metrics"`
	Groups  []MetricsGroup `json:"groups" yaml:"groups"`
}

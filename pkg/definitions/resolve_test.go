package definitions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vigil-monitoring/vigil/pkg/errors"
	"github.com/vigil-monitoring/vigil/pkg/model"
)

func testTree() *EndpointDefinitions {
	return &EndpointDefinitions{
		Groups: []EnvironmentGroup{
			{
				ID:          "prod",
				AlertGroups: []string{"group-level"},
				Environments: []Environment{
					{
						ID: "us-east",
						EndpointGroups: []EndpointGroup{
							{
								ID:      "web",
								Enabled: "true",
								Endpoints: []EndpointDef{
									{ID: "health", URL: "https://example.com/health"},
									{ID: "search", URL: "https://example.com/search", AlertGroups: []string{"endpoint-level"}},
								},
							},
							{
								ID:      "batch",
								Enabled: "false",
								Endpoints: []EndpointDef{
									{ID: "nightly", URL: "https://example.com/nightly"},
								},
							},
						},
					},
					{
						ID: "eu-west",
						EndpointGroups: []EndpointGroup{
							{
								ID:            "web",
								Enabled:       "true",
								MetricsGroups: []string{"eu-metrics"},
								Endpoints: []EndpointDef{
									{ID: "health", URL: "https://eu.example.com/health"},
								},
							},
						},
					},
				},
			},
		},
	}
}

func identity(envGroup, env, epGroup, ep string) model.Identity {
	return model.Identity{
		EnvironmentGroup: envGroup,
		Environment:      env,
		EndpointGroup:    epGroup,
		Endpoint:         ep,
	}
}

func TestResolveDefaultWhenNoLevelDeclares(t *testing.T) {
	defs := testTree()

	got, err := defs.Resolve(identity("prod", "us-east", "web", "health"), PropertyMetricsGroups, []string{"default"})
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, got)
}

func TestResolveShallowLevelApplies(t *testing.T) {
	defs := testTree()

	// Declared at the environment-group level, inherited by the endpoint.
	got, err := defs.Resolve(identity("prod", "us-east", "web", "health"), PropertyAlertGroups, []string{"default"})
	require.NoError(t, err)
	assert.Equal(t, []string{"group-level"}, got)
}

func TestResolveDeepestDeclarationWins(t *testing.T) {
	defs := testTree()

	got, err := defs.Resolve(identity("prod", "us-east", "web", "search"), PropertyAlertGroups, []string{"default"})
	require.NoError(t, err)
	assert.Equal(t, []string{"endpoint-level"}, got)
}

func TestResolveMidLevelDeclaration(t *testing.T) {
	defs := testTree()

	got, err := defs.Resolve(identity("prod", "eu-west", "web", "health"), PropertyMetricsGroups, []string{"default"})
	require.NoError(t, err)
	assert.Equal(t, []string{"eu-metrics"}, got)
}

func TestResolveUnknownIdentity(t *testing.T) {
	defs := testTree()

	_, err := defs.Resolve(identity("prod", "us-east", "web", "missing"), PropertyAlertGroups, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.NotFoundError))

	_, err = defs.Resolve(identity("staging", "us-east", "web", "health"), PropertyAlertGroups, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.NotFoundError))
}

func TestCountEnabledEndpoints(t *testing.T) {
	// The disabled batch group's endpoint must not count.
	assert.Equal(t, 3, testTree().CountEnabledEndpoints())
}

func TestIdentitiesSkipsDisabledGroups(t *testing.T) {
	ids := testTree().Identities()

	assert.Len(t, ids, 3)
	assert.Contains(t, ids, identity("prod", "us-east", "web", "health"))
	assert.Contains(t, ids, identity("prod", "us-east", "web", "search"))
	assert.Contains(t, ids, identity("prod", "eu-west", "web", "health"))
	assert.NotContains(t, ids, identity("prod", "us-east", "batch", "nightly"))
}

func TestAlertLookups(t *testing.T) {
	defs := &AlertDefinitions{
		Alerts: []Alert{{ID: "slack-ops", Type: AlertTypeSlackWebhook, URL: "https://hooks.example.com/x"}},
		Groups: []AlertGroup{{ID: "default", Alerts: []string{"slack-ops"}}},
	}

	ids, err := defs.AlertsInGroup("default")
	require.NoError(t, err)
	assert.Equal(t, []string{"slack-ops"}, ids)

	alert, err := defs.AlertByID("slack-ops")
	require.NoError(t, err)
	assert.Equal(t, AlertTypeSlackWebhook, alert.Type)

	_, err = defs.AlertsInGroup("missing")
	assert.True(t, apperrors.IsType(err, apperrors.NotFoundError))

	_, err = defs.AlertByID("missing")
	assert.True(t, apperrors.IsType(err, apperrors.NotFoundError))
}

func TestMetricsLookups(t *testing.T) {
	defs := &MetricsDefinitions{
		Metrics: []MetricDef{{ID: "cw", Provider: MetricsProvider{Type: "cloudwatch", Region: "eu-west-1", Namespace: "VIGIL"}}},
		Groups:  []MetricsGroup{{ID: "default", Metrics: []string{"cw"}}},
	}

	ids, err := defs.MetricsInGroup("default")
	require.NoError(t, err)
	assert.Equal(t, []string{"cw"}, ids)

	def, err := defs.MetricByID("cw")
	require.NoError(t, err)
	assert.Equal(t, "VIGIL", def.Provider.Namespace)

	_, err = defs.MetricsInGroup("missing")
	assert.True(t, apperrors.IsType(err, apperrors.NotFoundError))
}

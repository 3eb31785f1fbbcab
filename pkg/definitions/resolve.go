package definitions

import (
	"github.com/vigil-monitoring/vigil/pkg/errors"
	"github.com/vigil-monitoring/vigil/pkg/model"
)

// Property names a group-list property that can be declared at any level of
// the endpoint tree.
type Property string

const (
	PropertyMetricsGroups Property = "metrics-groups"
	PropertyAlertGroups   Property = "alert-groups"
)

// Resolve walks the four-level override chain for the given identity:
// environment-group, environment, endpoint-group, endpoint. The deepest
// declaration wins; when no level declares the property the caller-supplied
// default applies. A level node missing for the identity is a configuration
// error, not a silent default.
func (d *EndpointDefinitions) Resolve(id model.Identity, property Property, def []string) ([]string, error) {
	group, env, epGroup, endpoint, err := d.find(id)
	if err != nil {
		return nil, err
	}

	result := def
	for _, declared := range [][]string{
		pick(property, group.MetricsGroups, group.AlertGroups),
		pick(property, env.MetricsGroups, env.AlertGroups),
		pick(property, epGroup.MetricsGroups, epGroup.AlertGroups),
		pick(property, endpoint.MetricsGroups, endpoint.AlertGroups),
	} {
		if declared != nil {
			result = declared
		}
	}
	return result, nil
}

func pick(property Property, metrics, alerts []string) []string {
	if property == PropertyMetricsGroups {
		return metrics
	}
	return alerts
}

// find locates each level node for the identity by a linear id scan.
func (d *EndpointDefinitions) find(id model.Identity) (*EnvironmentGroup, *Environment, *EndpointGroup, *EndpointDef, error) {
	group := d.findGroup(id.EnvironmentGroup)
	if group == nil {
		return nil, nil, nil, nil, errors.NewNotFoundError("environment group not found", map[string]interface{}{"id": id.EnvironmentGroup})
	}

	var env *Environment
	for i := range group.Environments {
		if group.Environments[i].ID == id.Environment {
			env = &group.Environments[i]
			break
		}
	}
	if env == nil {
		return nil, nil, nil, nil, errors.NewNotFoundError("environment not found", map[string]interface{}{"id": id.Environment})
	}

	var epGroup *EndpointGroup
	for i := range env.EndpointGroups {
		if env.EndpointGroups[i].ID == id.EndpointGroup {
			epGroup = &env.EndpointGroups[i]
			break
		}
	}
	if epGroup == nil {
		return nil, nil, nil, nil, errors.NewNotFoundError("endpoint group not found", map[string]interface{}{"id": id.EndpointGroup})
	}

	var endpoint *EndpointDef
	for i := range epGroup.Endpoints {
		if epGroup.Endpoints[i].ID == id.Endpoint {
			endpoint = &epGroup.Endpoints[i]
			break
		}
	}
	if endpoint == nil {
		return nil, nil, nil, nil, errors.NewNotFoundError("endpoint not found", map[string]interface{}{"id": id.Endpoint})
	}

	return group, env, epGroup, endpoint, nil
}

func (d *EndpointDefinitions) findGroup(id string) *EnvironmentGroup {
	for i := range d.Groups {
		if d.Groups[i].ID == id {
			return &d.Groups[i]
		}
	}
	return nil
}

// CountEnabledEndpoints returns the number of endpoints inside enabled
// endpoint groups. Used by the summary heartbeat.
func (d *EndpointDefinitions) CountEnabledEndpoints() int {
	count := 0
	for _, group := range d.Groups {
		for _, env := range group.Environments {
			for _, epGroup := range env.EndpointGroups {
				if epGroup.IsEnabled() {
					count += len(epGroup.Endpoints)
				}
			}
		}
	}
	return count
}

// Identities returns the identity of every endpoint inside enabled groups.
// The reconciliation pass uses this to prune stale active records.
func (d *EndpointDefinitions) Identities() []model.Identity {
	var ids []model.Identity
	for _, group := range d.Groups {
		for _, env := range group.Environments {
			for _, epGroup := range env.EndpointGroups {
				if !epGroup.IsEnabled() {
					continue
				}
				for _, ep := range epGroup.Endpoints {
					ids = append(ids, model.Identity{
						EnvironmentGroup: group.ID,
						Environment:      env.ID,
						EndpointGroup:    epGroup.ID,
						Endpoint:         ep.ID,
					})
				}
			}
		}
	}
	return ids
}

// AlertsInGroup returns the alert channel ids of the named group. A missing
// group id is a configuration error.
func (d *AlertDefinitions) AlertsInGroup(groupID string) ([]string, error) {
	for _, group := range d.Groups {
		if group.ID == groupID {
			return group.Alerts, nil
		}
	}
	return nil, errors.NewNotFoundError("alert group not found", map[string]interface{}{"id": groupID})
}

// AlertByID returns the alert channel configuration with the given id.
func (d *AlertDefinitions) AlertByID(id string) (*Alert, error) {
	for i := range d.Alerts {
		if d.Alerts[i].ID == id {
			return &d.Alerts[i], nil
		}
	}
	return nil, errors.NewNotFoundError("alert not found", map[string]interface{}{"id": id})
}

// MetricsInGroup returns the metric sink ids of the named group. A missing
// group id is a configuration error.
func (d *MetricsDefinitions) MetricsInGroup(groupID string) ([]string, error) {
	for _, group := range d.Groups {
		if group.ID == groupID {
			return group.Metrics, nil
		}
	}
	return nil, errors.NewNotFoundError("metrics group not found", map[string]interface{}{"id": groupID})
}

// MetricByID returns the metric sink definition with the given id.
func (d *MetricsDefinitions) MetricByID(id string) (*MetricDef, error) {
	for i := range d.Metrics {
		if d.Metrics[i].ID == id {
			return &d.Metrics[i], nil
		}
	}
	return nil, errors.NewNotFoundError("metric not found", map[string]interface{}{"id": id})
}

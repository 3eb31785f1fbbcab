package definitions

import (
	"gopkg.in/yaml.v3"
)

// yamlUnmarshal decodes YAML definition documents. AlertDefinitions gets the
// same dual-key handling ("alert-groups" or "groups") as the JSON path.
func yamlUnmarshal(data []byte, out interface{}) error {
	if defs, ok := out.(*AlertDefinitions); ok {
		var wire struct {
			Alerts      []Alert      `yaml:"alerts"`
			AlertGroups []AlertGroup `yaml:"alert-groups"`
			PlainGroups []AlertGroup `yaml:"groups"`
		}
		if err := yaml.Unmarshal(data, &wire); err != nil {
			return err
		}
		defs.Alerts = wire.Alerts
		defs.Groups = wire.AlertGroups
		if len(defs.Groups) == 0 {
			defs.Groups = wire.PlainGroups
		}
		return nil
	}
	return yaml.Unmarshal(data, out)
}

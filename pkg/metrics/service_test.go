package metrics

import (
	"context"
	"testing"

	"github.com/vigil-monitoring/vigil/pkg/definitions"
	"github.com/vigil-monitoring/vigil/pkg/logger"
	"github.com/vigil-monitoring/vigil/pkg/model"
)

func testEndpoint(groups ...string) model.Endpoint {
	return model.Endpoint{
		Identity: model.Identity{
			EnvironmentGroup: "prod",
			Environment:      "us-east",
			EndpointGroup:    "web",
			Endpoint:         "health",
		},
		URL:           "https://example.com/health",
		MetricsGroups: groups,
	}
}

func TestRecordResponseTimeUnknownGroupIsQuiet(t *testing.T) {
	svc := NewService(logger.NewDefault())
	// No definitions loaded yet; lookup failures are logged, never raised.
	svc.RecordResponseTime(context.Background(), testEndpoint("default"), 42)
}

func TestRecordResponseTimeSkipsUnknownProvider(t *testing.T) {
	svc := NewService(logger.NewDefault())
	svc.UpdateDefinitions(&definitions.MetricsDefinitions{
		Metrics: []definitions.MetricDef{
			{ID: "graphite", Provider: definitions.MetricsProvider{Type: "graphite"}},
		},
		Groups: []definitions.MetricsGroup{{ID: "default", Metrics: []string{"graphite"}}},
	})

	// Unknown provider types are skipped without touching any backend.
	svc.RecordResponseTime(context.Background(), testEndpoint("default"), 42)
}

func TestRecordResponseTimeMissingSinkContinues(t *testing.T) {
	svc := NewService(logger.NewDefault())
	svc.UpdateDefinitions(&definitions.MetricsDefinitions{
		Groups: []definitions.MetricsGroup{{ID: "default", Metrics: []string{"vanished"}}},
	})

	svc.RecordResponseTime(context.Background(), testEndpoint("default"), 42)
}

// Package metrics delivers endpoint response times to the configured metric
// providers. Delivery is best effort; a provider failure is logged and never
// interferes with probing.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/vigil-monitoring/vigil/pkg/definitions"
	"github.com/vigil-monitoring/vigil/pkg/logger"
	"github.com/vigil-monitoring/vigil/pkg/model"
)

// ProviderCloudWatch is the only provider type currently understood.
// Definitions naming any other type are skipped.
const ProviderCloudWatch = "cloudwatch"

// MetricResponseTime is the metric name used for probe timings.
const MetricResponseTime = "RESPONSE-TIME"

// Service fans timing measurements out to metric sinks. Definitions are
// swapped in per cycle, like the alert definitions.
type Service struct {
	log *logger.Logger

	mu   sync.RWMutex
	defs *definitions.MetricsDefinitions

	cwMu      sync.Mutex
	cwClients map[string]*cloudwatch.Client

	now func() time.Time
}

func NewService(log *logger.Logger) *Service {
	return &Service{
		log:       log,
		defs:      &definitions.MetricsDefinitions{},
		cwClients: make(map[string]*cloudwatch.Client),
		now:       time.Now,
	}
}

// UpdateDefinitions replaces the metric configuration used for subsequent
// deliveries.
func (s *Service) UpdateDefinitions(defs *definitions.MetricsDefinitions) {
	s.mu.Lock()
	s.defs = defs
	s.mu.Unlock()
}

func (s *Service) definitions() *definitions.MetricsDefinitions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defs
}

// RecordResponseTime publishes one timing for the endpoint to every sink of
// every metrics group the endpoint resolved to.
func (s *Service) RecordResponseTime(ctx context.Context, ep model.Endpoint, valueMS float64) {
	metric := model.Metric{
		Endpoint:  ep,
		Timestamp: s.now(),
		Name:      MetricResponseTime,
		Value:     valueMS,
	}
	s.DeliverToGroups(ctx, ep.MetricsGroups, metric)
}

// DeliverToGroups sends the metric to every sink of every named group.
func (s *Service) DeliverToGroups(ctx context.Context, groups []string, metric model.Metric) {
	for _, group := range groups {
		s.DeliverToGroup(ctx, group, metric)
	}
}

// DeliverToGroup sends the metric to every sink of one group.
func (s *Service) DeliverToGroup(ctx context.Context, groupID string, metric model.Metric) {
	defs := s.definitions()

	sinkIDs, err := defs.MetricsInGroup(groupID)
	if err != nil {
		s.log.Error("metrics group lookup failed", "group", groupID, "error", err)
		return
	}

	for _, id := range sinkIDs {
		def, err := defs.MetricByID(id)
		if err != nil {
			s.log.Error("metric sink lookup failed", "metric", id, "error", err)
			continue
		}
		s.deliver(ctx, def, metric)
	}
}

func (s *Service) deliver(ctx context.Context, def *definitions.MetricDef, metric model.Metric) {
	switch def.Provider.Type {
	case ProviderCloudWatch:
		if err := s.deliverCloudWatch(ctx, def, metric); err != nil {
			s.log.Error("cloudwatch delivery failed", "metric", def.ID, "error", err)
		}
	default:
		s.log.Warn("skipping metric sink with unknown provider", "metric", def.ID, "provider", def.Provider.Type)
	}
}

func (s *Service) deliverCloudWatch(ctx context.Context, def *definitions.MetricDef, metric model.Metric) error {
	client, err := s.cloudwatchClient(ctx, def.Provider.Region)
	if err != nil {
		return err
	}

	_, err = client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(def.Provider.Namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metric.Name),
				Dimensions: []types.Dimension{
					{Name: aws.String("ENVIRONMENT-GROUP"), Value: aws.String(metric.Endpoint.EnvironmentGroup)},
					{Name: aws.String("ENVIRONMENT"), Value: aws.String(metric.Endpoint.Environment)},
					{Name: aws.String("ENDPOINT-GROUP"), Value: aws.String(metric.Endpoint.EndpointGroup)},
					{Name: aws.String("ENDPOINT"), Value: aws.String(metric.Endpoint.Endpoint)},
				},
				Unit:  types.StandardUnitMilliseconds,
				Value: aws.Float64(metric.Value),
			},
		},
	})
	return err
}

func (s *Service) cloudwatchClient(ctx context.Context, region string) (*cloudwatch.Client, error) {
	s.cwMu.Lock()
	defer s.cwMu.Unlock()

	if client, ok := s.cwClients[region]; ok {
		return client, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := cloudwatch.NewFromConfig(cfg)
	s.cwClients[region] = client
	return client, nil
}

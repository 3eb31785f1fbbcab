package alerts

import (
	"context"
	"encoding/json"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/vigil-monitoring/vigil/pkg/definitions"
	"github.com/vigil-monitoring/vigil/pkg/model"
)

// deliverSNS publishes the full incident as an indented JSON document to the
// configured topic. Map keys come out sorted, which keeps the payload stable
// for downstream consumers.
func (s *Service) deliverSNS(ctx context.Context, alert *definitions.Alert, inc model.Incident) error {
	client, err := s.snsClient(ctx, alert.Region)
	if err != nil {
		return err
	}

	payload, err := snsPayload(inc)
	if err != nil {
		return err
	}

	message := string(payload)
	_, err = client.Publish(ctx, &sns.PublishInput{
		TopicArn: &alert.ARN,
		Message:  &message,
	})
	return err
}

func snsPayload(inc model.Incident) ([]byte, error) {
	return json.MarshalIndent(map[string]interface{}{
		"timestamp":            float64(inc.Timestamp.UnixNano()) / float64(time.Second),
		"environment_group":    inc.Endpoint.EnvironmentGroup,
		"environment":          inc.Endpoint.Environment,
		"endpoint_group":       inc.Endpoint.EndpointGroup,
		"endpoint":             inc.Endpoint.Endpoint,
		"result":               inc.Outcome.Result,
		"url":                  inc.Endpoint.URL,
		"expected":             inc.Expected,
		"message":              inc.Message,
		"presentation_message": inc.PresentationMessage,
	}, "", "    ")
}

// snsClient returns the cached client for the region, creating it on first
// use.
func (s *Service) snsClient(ctx context.Context, region string) (*sns.Client, error) {
	s.snsMu.Lock()
	defer s.snsMu.Unlock()

	if client, ok := s.snsClients[region]; ok {
		return client, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := sns.NewFromConfig(cfg)
	s.snsClients[region] = client
	return client, nil
}

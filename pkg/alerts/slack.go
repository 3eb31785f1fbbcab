package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vigil-monitoring/vigil/pkg/definitions"
	apperrors "github.com/vigil-monitoring/vigil/pkg/errors"
	"github.com/vigil-monitoring/vigil/pkg/model"
)

// deliverSlack posts the incident text to a Slack incoming webhook. No
// retries; a failed post is logged and dropped.
func (s *Service) deliverSlack(ctx context.Context, alert *definitions.Alert, inc model.Incident) error {
	payload, err := json.Marshal(map[string]interface{}{
		"text":       inc.Message,
		"link_names": 1,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, alert.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return apperrors.NewNetworkError("posting slack webhook", err, nil)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return apperrors.NewNetworkError(fmt.Sprintf("webhook returned status %d", resp.StatusCode), nil, nil)
	}
	return nil
}

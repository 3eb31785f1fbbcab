// Package alerts fans incident notifications out to the configured alert
// channels. Delivery is best effort, at most once per channel; a channel
// failure never blocks the other channels in the group.
package alerts

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/vigil-monitoring/vigil/pkg/definitions"
	"github.com/vigil-monitoring/vigil/pkg/logger"
	"github.com/vigil-monitoring/vigil/pkg/model"
	"github.com/vigil-monitoring/vigil/pkg/telemetry"
)

// Service delivers incidents to alert channels. Definitions are swapped in
// per cycle so configuration edits take effect without a restart.
type Service struct {
	log        *logger.Logger
	httpClient *http.Client

	mu   sync.RWMutex
	defs *definitions.AlertDefinitions

	snsMu      sync.Mutex
	snsClients map[string]*sns.Client
}

func NewService(log *logger.Logger) *Service {
	return &Service{
		log:        log,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		defs:       &definitions.AlertDefinitions{},
		snsClients: make(map[string]*sns.Client),
	}
}

// UpdateDefinitions replaces the alert configuration used for subsequent
// deliveries.
func (s *Service) UpdateDefinitions(defs *definitions.AlertDefinitions) {
	s.mu.Lock()
	s.defs = defs
	s.mu.Unlock()
}

func (s *Service) definitions() *definitions.AlertDefinitions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defs
}

// DeliverToGroups sends the incident to every channel of every named group.
func (s *Service) DeliverToGroups(ctx context.Context, groups []string, inc model.Incident) {
	for _, group := range groups {
		s.DeliverToGroup(ctx, group, inc)
	}
}

// DeliverToGroup sends the incident to every channel of one group. Unknown
// group or channel ids are configuration errors and get logged, not raised.
func (s *Service) DeliverToGroup(ctx context.Context, groupID string, inc model.Incident) {
	defs := s.definitions()

	channelIDs, err := defs.AlertsInGroup(groupID)
	if err != nil {
		s.log.Error("alert group lookup failed", "group", groupID, "error", err)
		return
	}

	for _, id := range channelIDs {
		alert, err := defs.AlertByID(id)
		if err != nil {
			s.log.Error("alert channel lookup failed", "alert", id, "error", err)
			continue
		}
		s.deliver(ctx, alert, inc)
	}
}

func (s *Service) deliver(ctx context.Context, alert *definitions.Alert, inc model.Incident) {
	var err error
	switch alert.Type {
	case definitions.AlertTypeSlackWebhook, definitions.AlertTypeSlack:
		err = s.deliverSlack(ctx, alert, inc)
	case definitions.AlertTypeSNS:
		err = s.deliverSNS(ctx, alert, inc)
	case definitions.AlertTypeEmail:
		err = s.deliverEmail(alert, inc)
	default:
		s.log.Warn("skipping alert with unknown type", "alert", alert.ID, "type", alert.Type)
		return
	}

	if err != nil {
		telemetry.NotificationsTotal.WithLabelValues(alert.Type, telemetry.StatusError).Inc()
		s.log.Error("alert delivery failed", "alert", alert.ID, "type", alert.Type, "error", err)
		return
	}
	telemetry.NotificationsTotal.WithLabelValues(alert.Type, telemetry.StatusOK).Inc()
	s.log.Debug("alert delivered", "alert", alert.ID, "type", alert.Type)
}

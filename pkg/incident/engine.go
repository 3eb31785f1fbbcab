// Package incident tracks each endpoint through a two-state lifecycle,
// clear or active, and raises exactly one notification per transition.
package incident

import (
	"context"
	"math"
	"time"

	"github.com/vigil-monitoring/vigil/pkg/logger"
	"github.com/vigil-monitoring/vigil/pkg/model"
	"github.com/vigil-monitoring/vigil/pkg/store"
	"github.com/vigil-monitoring/vigil/pkg/telemetry"
)

// Notifier fans an incident out to the named alert groups. Delivery failures
// are handled (and logged) inside the notifier; they never abort lifecycle
// processing.
type Notifier interface {
	DeliverToGroups(ctx context.Context, groups []string, inc model.Incident)
}

// Engine applies probe outcomes to the persisted incident state.
type Engine struct {
	store    store.Store
	notifier Notifier
	log      *logger.Logger
	locks    *identityLocks
	now      func() time.Time
}

func NewEngine(st store.Store, notifier Notifier, log *logger.Logger) *Engine {
	return &Engine{
		store:    st,
		notifier: notifier,
		log:      log,
		locks:    newIdentityLocks(),
		now:      time.Now,
	}
}

// Handle applies one probe outcome. A failure with no active record opens an
// incident: the record is persisted first, then the failure notification is
// sent. A success with an active record resolves it: the record is removed
// first, then the recovery notification is sent. All other combinations are
// no-ops, so an endpoint that stays broken alerts only once. A store error
// aborts the decision without notifying; the outcome is simply retried on
// the next cycle.
func (e *Engine) Handle(ctx context.Context, ep model.Endpoint, out model.Outcome) error {
	unlock := e.locks.lock(ep.Identity)
	defer unlock()

	active, err := e.store.GetActive(ctx, ep.Identity)
	if err != nil {
		return err
	}

	if out.Result {
		if active == nil {
			return nil
		}
		return e.resolve(ctx, ep, active)
	}
	return e.open(ctx, ep, out, active)
}

func (e *Engine) open(ctx context.Context, ep model.Endpoint, out model.Outcome, active *model.ActiveRecord) error {
	message, presentation := failureMessages(ep, out)
	e.log.Info("endpoint is not OK", "identity", ep.Identity.String(), "result", presentation)

	if active != nil {
		// Already alerted when the incident opened; stay quiet.
		e.log.Debug("incident already active", "identity", ep.Identity.String(), "since", active.Timestamp)
		return nil
	}

	now := e.now()
	rec := model.ActiveRecord{
		Identity:  ep.Identity,
		Timestamp: float64(now.UnixNano()) / float64(time.Second),
		Message:   message,
		URL:       ep.URL,
	}
	if err := e.store.SaveActive(ctx, rec); err != nil {
		return err
	}

	telemetry.TransitionsTotal.WithLabelValues(telemetry.DirectionOpened).Inc()
	e.notifier.DeliverToGroups(ctx, ep.AlertGroups, model.Incident{
		Timestamp:           now,
		Endpoint:            ep,
		Outcome:             out,
		Expected:            ep.Expected,
		Message:             message,
		PresentationMessage: presentation,
	})
	return nil
}

func (e *Engine) resolve(ctx context.Context, ep model.Endpoint, active *model.ActiveRecord) error {
	if err := e.store.RemoveActive(ctx, ep.Identity); err != nil {
		return err
	}

	sec, frac := math.Modf(active.Timestamp)
	openedAt := time.Unix(int64(sec), int64(frac*float64(time.Second)))
	now := e.now()
	message := recoveryMessage(ep.Identity, now.Sub(openedAt))
	e.log.Info("endpoint recovered", "identity", ep.Identity.String())

	telemetry.TransitionsTotal.WithLabelValues(telemetry.DirectionResolved).Inc()
	e.notifier.DeliverToGroups(ctx, ep.AlertGroups, model.Incident{
		Timestamp:           now,
		Endpoint:            ep,
		Outcome:             model.Outcome{Result: true, Message: model.MessageOK},
		Expected:            ep.Expected,
		Message:             message,
		PresentationMessage: message,
	})
	return nil
}

package scheduler

import (
	"context"

	"github.com/vigil-monitoring/vigil/pkg/model"
)

// Reconcile removes active records whose endpoints no longer exist in the
// definitions (or sit in disabled groups). Without it an endpoint deleted
// while failing would stay "active" forever, polluting every summary.
func (s *Scheduler) Reconcile(ctx context.Context) error {
	defs, err := s.loader.Endpoints(ctx, s.settings.EndpointDefinitionsFile)
	if err != nil {
		return err
	}

	known := make(map[model.Identity]struct{})
	for _, id := range defs.Identities() {
		known[id] = struct{}{}
	}

	actives, err := s.store.GetAllActives(ctx)
	if err != nil {
		return err
	}

	for _, active := range actives {
		if _, ok := known[active.Identity]; ok {
			continue
		}
		s.log.Info("pruning stale active record", "identity", active.Identity.String())
		if err := s.store.RemoveActive(ctx, active.Identity); err != nil {
			return err
		}
	}
	return nil
}

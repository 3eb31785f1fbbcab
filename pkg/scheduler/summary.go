package scheduler

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vigil-monitoring/vigil/pkg/definitions"
	"github.com/vigil-monitoring/vigil/pkg/model"
)

// summaryAlertGroup is the alert group the heartbeat goes to. It is fixed;
// the heartbeat deliberately bypasses per-endpoint alert resolution.
const summaryAlertGroup = "summary"

// emitSummary tells the summary alert group that the daemon is alive, how
// many endpoints it watches and which incidents are currently open. Failures
// to assemble or deliver the summary never fail the cycle.
func (s *Scheduler) emitSummary(ctx context.Context, defs *definitions.EndpointDefinitions) {
	s.log.Info("emitting summary")

	count := defs.CountEnabledEndpoints()
	plural := "s"
	if count == 1 {
		plural = ""
	}
	message := fmt.Sprintf("Vigil is alive and currently monitoring %d endpoint%s.", count, plural)

	actives, err := s.store.GetAllActives(ctx)
	if err != nil {
		s.log.Error("loading actives for summary", "error", err)
		return
	}

	if len(actives) == 0 {
		message += "\n\nVigil is not currently aware of any alerts."
	} else {
		message += "\n\nVigil is aware of the following alerts:\n"
		for _, active := range actives {
			sec, frac := math.Modf(active.Timestamp)
			opened := time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
			message += fmt.Sprintf("%s since %s\n", active.Message, opened.Format("2006-01-02 15:04:05"))
		}
	}

	s.alerts.DeliverToGroup(ctx, summaryAlertGroup, model.Incident{
		Timestamp:           s.now(),
		Message:             message,
		PresentationMessage: message,
	})
}

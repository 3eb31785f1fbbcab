// Package scheduler drives the monitoring loop: load definitions, probe
// every enabled endpoint through a bounded worker pool, hand the outcomes to
// the incident engine, sleep, repeat.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/vigil-monitoring/vigil/pkg/alerts"
	"github.com/vigil-monitoring/vigil/pkg/config"
	"github.com/vigil-monitoring/vigil/pkg/definitions"
	"github.com/vigil-monitoring/vigil/pkg/incident"
	"github.com/vigil-monitoring/vigil/pkg/logger"
	"github.com/vigil-monitoring/vigil/pkg/metrics"
	"github.com/vigil-monitoring/vigil/pkg/model"
	"github.com/vigil-monitoring/vigil/pkg/probe"
	"github.com/vigil-monitoring/vigil/pkg/store"
	"github.com/vigil-monitoring/vigil/pkg/telemetry"
)

// Scheduler owns the monitoring loop and wires the probe executor, incident
// engine and delivery services together.
type Scheduler struct {
	settings *config.Settings
	loader   *definitions.Loader
	executor *probe.Executor
	engine   *incident.Engine
	alerts   *alerts.Service
	metrics  *metrics.Service
	store    store.Store
	log      *logger.Logger

	lastSummary time.Time
	now         func() time.Time
}

func New(
	settings *config.Settings,
	loader *definitions.Loader,
	executor *probe.Executor,
	engine *incident.Engine,
	alertSvc *alerts.Service,
	metricSvc *metrics.Service,
	st store.Store,
	log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		settings: settings,
		loader:   loader,
		executor: executor,
		engine:   engine,
		alerts:   alertSvc,
		metrics:  metricSvc,
		store:    st,
		log:      log,
		now:      time.Now,
	}
}

// Run executes cycles until the context is cancelled. A failed cycle is
// logged and the loop carries on; the next cycle gets a fresh chance.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("starting monitoring loop")

	for {
		if err := s.Cycle(ctx); err != nil {
			s.log.Error("cycle failed", "error", err)
		} else {
			telemetry.CyclesTotal.Inc()
		}

		if ctx.Err() != nil {
			s.log.Info("monitoring loop stopping")
			return
		}

		s.log.Info("sleeping", "seconds", s.settings.SleepSeconds)
		select {
		case <-ctx.Done():
			s.log.Info("monitoring loop stopping")
			return
		case <-time.After(time.Duration(s.settings.SleepSeconds) * time.Second):
		}
	}
}

// Cycle runs one complete monitoring pass: reload definitions, emit the
// summary heartbeat when due, probe every enabled endpoint.
func (s *Scheduler) Cycle(ctx context.Context) error {
	endpointDefs, err := s.loader.Endpoints(ctx, s.settings.EndpointDefinitionsFile)
	if err != nil {
		return err
	}
	alertDefs, err := s.loader.Alerts(ctx, s.settings.AlertDefinitionsFile)
	if err != nil {
		return err
	}
	metricsDefs, err := s.loader.Metrics(ctx, s.settings.MetricsDefinitionsFile)
	if err != nil {
		return err
	}

	s.alerts.UpdateDefinitions(alertDefs)
	s.metrics.UpdateDefinitions(metricsDefs)

	if s.settings.SummaryEnabled && s.now().Sub(s.lastSummary) >= time.Duration(s.settings.SummarySleepSeconds)*time.Second {
		s.lastSummary = s.now()
		s.emitSummary(ctx, endpointDefs)
	}

	endpoints := s.collectEndpoints(endpointDefs)
	s.log.Info("collecting endpoint health", "endpoints", len(endpoints))
	s.probeAll(ctx, endpoints)
	return nil
}

// probeAll pushes the endpoints through a pool of MaxWorkers goroutines and
// waits for all of them to finish. Cancellation is cooperative: in-flight
// probes run to completion but their outcomes are discarded.
func (s *Scheduler) probeAll(ctx context.Context, endpoints []model.Endpoint) {
	work := make(chan model.Endpoint)

	var wg sync.WaitGroup
	for i := 0; i < s.settings.MaxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ep := range work {
				s.probeOne(ctx, ep)
			}
		}()
	}

	for _, ep := range endpoints {
		if ctx.Err() != nil {
			break
		}
		work <- ep
	}
	close(work)
	wg.Wait()
}

func (s *Scheduler) probeOne(ctx context.Context, ep model.Endpoint) {
	if ctx.Err() != nil {
		s.log.Info("probe skipped, shutting down", "url", ep.URL)
		return
	}

	s.log.Info("testing endpoint", "url", ep.URL)
	out := s.executor.Run(ctx, ep, s.metrics)
	telemetry.ProbesTotal.WithLabelValues(out.Message).Inc()

	if ctx.Err() != nil {
		s.log.Info("discarding outcome, shutting down", "url", ep.URL)
		return
	}
	if err := s.engine.Handle(ctx, ep, out); err != nil {
		s.log.Error("handling outcome failed", "identity", ep.Identity.String(), "error", err)
	}
}

// collectEndpoints flattens the definition tree into probe-ready endpoints,
// applying URL templating and resolving the inherited group memberships.
// An endpoint whose group resolution fails is skipped for the cycle.
func (s *Scheduler) collectEndpoints(defs *definitions.EndpointDefinitions) []model.Endpoint {
	var endpoints []model.Endpoint

	for _, group := range defs.Groups {
		for _, env := range group.Environments {
			for _, epGroup := range env.EndpointGroups {
				if !epGroup.IsEnabled() {
					continue
				}
				for _, def := range epGroup.Endpoints {
					id := model.Identity{
						EnvironmentGroup: group.ID,
						Environment:      env.ID,
						EndpointGroup:    epGroup.ID,
						Endpoint:         def.ID,
					}

					ep, err := s.buildEndpoint(defs, id, def)
					if err != nil {
						s.log.Error("skipping endpoint", "identity", id.String(), "error", err)
						continue
					}
					endpoints = append(endpoints, ep)
				}
			}
		}
	}
	return endpoints
}

func (s *Scheduler) buildEndpoint(defs *definitions.EndpointDefinitions, id model.Identity, def definitions.EndpointDef) (model.Endpoint, error) {
	url := def.URL
	if def.AppendTraceID {
		key := def.TraceArgumentKey
		if key == "" {
			key = probe.DefaultTraceArgumentKey
		}
		url = probe.AppendQueryArgument(url, key+"="+probe.NewTraceID())
	}
	if def.AppendAttempt {
		key := def.AttemptArgumentKey
		if key == "" {
			key = probe.DefaultAttemptArgumentKey
		}
		url = probe.AppendQueryArgument(url, key+"="+probe.AttemptPlaceholder)
	}

	metricsGroups, err := defs.Resolve(id, definitions.PropertyMetricsGroups, []string{"default"})
	if err != nil {
		return model.Endpoint{}, err
	}
	alertGroups, err := defs.Resolve(id, definitions.PropertyAlertGroups, []string{"default"})
	if err != nil {
		return model.Endpoint{}, err
	}

	var threshold *model.Threshold
	if def.Thresh != nil {
		threshold = &model.Threshold{Min: def.Thresh.Min, Max: def.Thresh.Max}
	}

	return model.Endpoint{
		Identity:      id,
		URL:           url,
		Expected:      def.Expected,
		Threshold:     threshold,
		Retry:         def.Retry,
		Timeout:       time.Duration(def.TimeoutSeconds) * time.Second,
		MetricsGroups: metricsGroups,
		AlertGroups:   alertGroups,
	}, nil
}

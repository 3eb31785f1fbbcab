// Package serve implements the long-running monitoring daemon command.
package serve

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/vigil-monitoring/vigil/pkg/alerts"
	"github.com/vigil-monitoring/vigil/pkg/config"
	"github.com/vigil-monitoring/vigil/pkg/definitions"
	"github.com/vigil-monitoring/vigil/pkg/incident"
	"github.com/vigil-monitoring/vigil/pkg/logger"
	"github.com/vigil-monitoring/vigil/pkg/metrics"
	"github.com/vigil-monitoring/vigil/pkg/probe"
	"github.com/vigil-monitoring/vigil/pkg/scheduler"
	"github.com/vigil-monitoring/vigil/pkg/status"
	"github.com/vigil-monitoring/vigil/pkg/store"
)

// Command returns the serve subcommand.
func Command(log *logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the monitoring daemon",
		Long:  "Run monitoring cycles until interrupted, probing every configured endpoint and raising alerts on state changes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(log)
		},
	}
}

func run(log *logger.Logger) error {
	settings, err := config.FromEnv()
	if err != nil {
		return err
	}
	if settings.Debug {
		log = logger.NewWithLevel("debug")
	}
	log.Info("starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(settings, log)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Initialise(ctx); err != nil {
		return err
	}

	alertSvc := alerts.NewService(log)
	metricSvc := metrics.NewService(log)
	engine := incident.NewEngine(st, alertSvc, log)
	executor := probe.NewExecutor(settings.ConnectionTimeout, log)
	executor.LogBodyOnUnexpectedStatus = settings.ShowBodyOnUnexpectedStatus
	loader := definitions.NewLoader(log)

	sched := scheduler.New(settings, loader, executor, engine, alertSvc, metricSvc, st, log)

	var reconciler *cron.Cron
	if settings.ReconcileSchedule != "" {
		reconciler = cron.New()
		if _, err := reconciler.AddFunc(settings.ReconcileSchedule, func() {
			if err := sched.Reconcile(ctx); err != nil {
				log.Error("reconciliation failed", "error", err)
			}
		}); err != nil {
			return err
		}
		reconciler.Start()
		log.Info("reconciliation scheduled", "schedule", settings.ReconcileSchedule)
	}

	var statusSrv *status.Server
	if settings.StatusListen != "" {
		statusSrv = status.New(settings.StatusListen, st, log)
		statusSrv.Start()
	}

	sched.Run(ctx)

	if reconciler != nil {
		<-reconciler.Stop().Done()
	}
	if statusSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := statusSrv.Shutdown(shutdownCtx); err != nil {
			log.Error("status server shutdown failed", "error", err)
		}
	}

	log.Info("shutdown complete")
	return nil
}

func openStore(settings *config.Settings, log *logger.Logger) (store.Store, error) {
	if settings.DBType == config.DBTypePostgres {
		return store.NewPostgres(settings.PostgresDSN(), log)
	}
	return store.NewSQLite(settings.DBName, log)
}

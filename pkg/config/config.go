// Package config reads the daemon settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	apperrors "github.com/vigil-monitoring/vigil/pkg/errors"
)

// Database backends.
const (
	DBTypeSQLite   = "sqlite"
	DBTypePostgres = "postgres"
)

// Settings is the complete runtime configuration.
type Settings struct {
	// SleepSeconds is the pause between monitoring cycles.
	SleepSeconds int

	// ConnectionTimeout bounds each probe attempt.
	ConnectionTimeout time.Duration

	// MaxWorkers sizes the probe worker pool.
	MaxWorkers int

	// Definition documents, local paths or s3:// URIs.
	EndpointDefinitionsFile string
	AlertDefinitionsFile    string
	MetricsDefinitionsFile  string

	// DBType selects sqlite or postgres.
	DBType string

	// DBName is the sqlite database path.
	DBName string

	// Postgres connection parameters.
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBDatabase string

	// SummaryEnabled turns on the periodic heartbeat to the "summary"
	// alert group.
	SummaryEnabled      bool
	SummarySleepSeconds int

	// ReconcileSchedule is a cron expression for pruning active records
	// whose endpoints left the definitions. Empty disables the pass.
	ReconcileSchedule string

	// StatusListen is the bind address of the status HTTP surface. Empty
	// disables it.
	StatusListen string

	Debug                      bool
	ShowBodyOnUnexpectedStatus bool
}

// FromEnv builds Settings from environment variables, applying defaults and
// validating the required entries.
func FromEnv() (*Settings, error) {
	s := &Settings{
		SleepSeconds:            envInt("SLEEP_SECONDS", 60),
		ConnectionTimeout:       time.Duration(envInt("CONNECTION_TIMEOUT_SECONDS", 10)) * time.Second,
		MaxWorkers:              envInt("MAX_WORKERS", 5),
		EndpointDefinitionsFile: os.Getenv("ENDPOINT_DEFINITIONS_FILE"),
		AlertDefinitionsFile:    os.Getenv("ALERT_DEFINITIONS_FILE"),
		MetricsDefinitionsFile:  os.Getenv("METRICS_DEFINITIONS_FILE"),
		DBType:                  envDefault("DB_TYPE", DBTypeSQLite),
		DBName:                  envDefault("DB_NAME", "vigil.db"),
		DBHost:                  os.Getenv("DB_HOST"),
		DBPort:                  envInt("DB_PORT", 5432),
		DBUser:                  os.Getenv("DB_USER"),
		DBPassword:              os.Getenv("DB_PASSWORD"),
		DBDatabase:              os.Getenv("DB_DBNAME"),
		SummaryEnabled:          envBool("SUMMARY_ENABLED"),
		SummarySleepSeconds:     envInt("SUMMARY_SLEEP_SECONDS", 86400),
		ReconcileSchedule:       os.Getenv("RECONCILE_SCHEDULE"),
		StatusListen:            os.Getenv("STATUS_LISTEN"),
		Debug:                   envBool("DEBUG"),

		ShowBodyOnUnexpectedStatus: envBool("SHOW_BODY_IN_DEBUG_ON_UNEXPECTED_STATUS"),
	}

	for name, value := range map[string]string{
		"ENDPOINT_DEFINITIONS_FILE": s.EndpointDefinitionsFile,
		"ALERT_DEFINITIONS_FILE":    s.AlertDefinitionsFile,
		"METRICS_DEFINITIONS_FILE":  s.MetricsDefinitionsFile,
	} {
		if value == "" {
			return nil, apperrors.NewValidationError(fmt.Sprintf("%s must be set", name), nil)
		}
	}

	if s.MaxWorkers < 1 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("MAX_WORKERS must be at least 1, got %d", s.MaxWorkers), nil)
	}

	if s.DBType != DBTypeSQLite && s.DBType != DBTypePostgres {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported DB_TYPE %q", s.DBType), nil)
	}
	if s.DBType == DBTypePostgres && s.DBHost == "" {
		return nil, apperrors.NewValidationError("DB_HOST must be set for postgres", nil)
	}

	return s, nil
}

// PostgresDSN renders the connection string for the postgres backend.
func (s *Settings) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		s.DBHost, s.DBPort, s.DBUser, s.DBPassword, s.DBDatabase)
}

func envDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(name string) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	return err == nil && v
}

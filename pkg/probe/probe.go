// Package probe executes single endpoint checks over HTTP(S) or TCP and
// classifies the outcome as OK, BAD or TIMEOUT.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/vigil-monitoring/vigil/pkg/logger"
	"github.com/vigil-monitoring/vigil/pkg/model"
)

// maxTimeoutRetries caps the extra attempts made when an endpoint without
// configured retries keeps timing out.
const maxTimeoutRetries = 3

// Recorder receives a response-time measurement for every probe attempt.
type Recorder interface {
	RecordResponseTime(ctx context.Context, ep model.Endpoint, valueMS float64)
}

// Executor performs endpoint checks with retry and timeout policy applied.
type Executor struct {
	defaultTimeout time.Duration
	client         *http.Client
	log            *logger.Logger

	// LogBodyOnUnexpectedStatus dumps response bodies at debug level when
	// the status does not match the expectation.
	LogBodyOnUnexpectedStatus bool
}

// NewExecutor creates an Executor. defaultTimeout applies to endpoints that
// do not carry their own timeout.
func NewExecutor(defaultTimeout time.Duration, log *logger.Logger) *Executor {
	return &Executor{
		defaultTimeout: defaultTimeout,
		client: &http.Client{
			// Per-request deadlines come from the context; the client
			// itself stays unbounded.
			Timeout: 0,
		},
		log: log,
	}
}

// Run probes the endpoint applying both retry layers: the configured
// per-endpoint retry loop (short-circuiting on first success), then the
// capped timeout-retry for endpoints whose configured retry never ran.
// An outcome whose configured retry already attempted and failed carries
// Retried=true and is returned as-is, never re-retried.
func (e *Executor) Run(ctx context.Context, ep model.Endpoint, rec Recorder) model.Outcome {
	attempt := 0

	var out model.Outcome
	for {
		attempt++
		out = e.Execute(ctx, withAttempt(ep, attempt), rec)
		if out.Result || attempt > ep.Retry {
			break
		}
		e.log.Info("re-testing failed endpoint", "url", ep.URL, "attempt", attempt, "message", out.Message)
	}
	if ep.Retry > 0 && !out.Result {
		out.Retried = true
	}

	for extra := 0; !out.Result && out.Message == model.MessageTimeout && !out.Retried && extra < maxTimeoutRetries; extra++ {
		attempt++
		e.log.Info("re-testing timed out endpoint", "url", ep.URL, "attempt", attempt)
		out = e.Execute(ctx, withAttempt(ep, attempt), rec)
	}

	return out
}

// Execute performs exactly one check of the endpoint.
func (e *Executor) Execute(ctx context.Context, ep model.Endpoint, rec Recorder) model.Outcome {
	parsed, err := url.Parse(ep.URL)
	if err != nil {
		e.log.Error("unparseable endpoint url", "url", ep.URL, "error", err)
		return model.Outcome{Result: false, Message: model.MessageBad}
	}

	switch parsed.Scheme {
	case "http", "https":
		return e.executeHTTP(ctx, ep, rec)
	case "tcp":
		return e.executeTCP(ctx, ep, parsed, rec)
	default:
		e.log.Error("unsupported endpoint scheme", "url", ep.URL, "scheme", parsed.Scheme)
		return model.Outcome{Result: false, Message: model.MessageBad}
	}
}

func (e *Executor) executeHTTP(ctx context.Context, ep model.Endpoint, rec Recorder) model.Outcome {
	reqCtx, cancel := context.WithTimeout(ctx, e.timeoutFor(ep))
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, ep.URL, nil)
	if err != nil {
		e.log.Error("building probe request", "url", ep.URL, "error", err)
		return model.Outcome{Result: false, Message: model.MessageBad}
	}

	resp, err := e.client.Do(req)
	elapsedMS := elapsedMillis(start)
	if err != nil {
		// The transport error detail (timeout vs refused vs other) is
		// logged; outwardly every HTTP transport failure is a TIMEOUT.
		e.log.Debug("error during http probe", "url", ep.URL, "cause", transportCause(err), "error", err)
		e.record(ctx, ep, elapsedMS, rec)
		return model.Outcome{Result: false, Message: model.MessageTimeout}
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	e.log.Debug("probe response", "url", ep.URL, "status", status, "expected", ep.Expected, "elapsed_ms", elapsedMS)
	e.record(ctx, ep, elapsedMS, rec)

	if matchExpected(ep.Expected, status) {
		// Status was good; the response time may still breach the
		// threshold.
		if tr := EvaluateThreshold(int64(elapsedMS), ep.Threshold); !tr.Okay {
			return model.Outcome{Result: false, Message: model.MessageBad, Threshold: tr.Result}
		}
		return model.Outcome{Result: true, Message: model.MessageOK}
	}

	if e.LogBodyOnUnexpectedStatus {
		if body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096)); readErr == nil {
			e.log.Debug("unexpected status body", "url", ep.URL, "body", string(body))
		}
	}

	return model.Outcome{Result: false, Message: model.MessageBad, Actual: status}
}

func (e *Executor) executeTCP(ctx context.Context, ep model.Endpoint, parsed *url.URL, rec Recorder) model.Outcome {
	start := time.Now()

	dialer := net.Dialer{Timeout: e.timeoutFor(ep)}
	conn, err := dialer.DialContext(ctx, "tcp", parsed.Host)
	elapsedMS := elapsedMillis(start)
	e.record(ctx, ep, elapsedMS, rec)

	if err != nil {
		if isTimeout(err) {
			e.log.Info("tcp endpoint hit timeout", "host", parsed.Host)
			return model.Outcome{Result: false, Message: model.MessageTimeout}
		}
		e.log.Info("tcp endpoint had a problem", "host", parsed.Host, "error", err)
		return model.Outcome{Result: false, Message: model.MessageBad}
	}
	conn.Close()

	if tr := EvaluateThreshold(int64(elapsedMS), ep.Threshold); !tr.Okay {
		return model.Outcome{Result: false, Message: model.MessageBad, Threshold: tr.Result}
	}
	return model.Outcome{Result: true, Message: model.MessageOK}
}

func (e *Executor) timeoutFor(ep model.Endpoint) time.Duration {
	if ep.Timeout > 0 {
		return ep.Timeout
	}
	return e.defaultTimeout
}

func (e *Executor) record(ctx context.Context, ep model.Endpoint, valueMS float64, rec Recorder) {
	if rec != nil {
		rec.RecordResponseTime(ctx, ep, valueMS)
	}
}

// matchExpected treats expected as a regex anchored at the start of the
// stringified status, with the empty expectation matching anything.
func matchExpected(expected, status string) bool {
	if expected == "" {
		return true
	}
	re, err := regexp.Compile("^(?:" + expected + ")")
	if err != nil {
		return false
	}
	return re.MatchString(status)
}

func withAttempt(ep model.Endpoint, attempt int) model.Endpoint {
	ep.URL = substituteAttempt(ep.URL, attempt)
	return ep
}

func elapsedMillis(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

func transportCause(err error) string {
	if isTimeout(err) {
		return "timeout"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Sprintf("net %s", opErr.Op)
	}
	return "transport"
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

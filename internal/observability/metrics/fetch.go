// Package metrics provides standardised metric emission helpers for the
// catalog facade and the session monitor.
package metrics

import (
	"time"

	obserrors "github.com/atlastours/agency-api/internal/observability/errors"
	"github.com/atlastours/agency-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess  = "success"
	ResultDegraded = "degraded"
	ResultError    = "error"
	ResultNoop     = "noop"
)

// FetchMetric captures the outcome of one facade fetch for metric emission.
// Source distinguishes live hits from cache, store, and fallback tiers so a
// degraded response is visible in telemetry even though callers see success.
type FetchMetric struct {
	Collection string
	Source     string
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitFetch emits standardised catalog fetch metrics.
func EmitFetch(sink statsd.Sink, in FetchMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"collection": in.Collection,
		"source":     in.Source,
		"result":     in.Result,
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("catalog.fetch", 1, tags)

	if in.Duration > 0 {
		sink.Timing("catalog.fetch_duration", in.Duration, CloneTags(tags))
	}
}

// SessionSweepMetric captures one pass of the background session monitor.
type SessionSweepMetric struct {
	Tracked   int
	Refreshed int64
	Dropped   int64
	Duration  time.Duration
}

// EmitSessionSweep emits session monitor sweep metrics.
func EmitSessionSweep(sink statsd.Sink, in SessionSweepMetric) {
	if sink == nil {
		return
	}

	sink.Gauge("sessions.tracked", float64(in.Tracked), nil)
	if in.Refreshed > 0 {
		sink.Count("sessions.refreshed", in.Refreshed, nil)
	}
	if in.Dropped > 0 {
		sink.Count("sessions.dropped", in.Dropped, nil)
	}
	if in.Duration > 0 {
		sink.Timing("sessions.sweep_duration", in.Duration, nil)
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

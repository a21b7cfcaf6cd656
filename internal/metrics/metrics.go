// Package metrics exposes Prometheus metrics for the feedback-call service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for this application.
var Registry = prometheus.NewRegistry()

// factory registers metrics to our custom Registry directly.
var factory = promauto.With(Registry)

// RowsParsedTotal counts CSV data rows successfully tokenized.
var RowsParsedTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "feedback",
	Name:      "csv_rows_parsed_total",
	Help:      "Total number of CSV data rows parsed from uploads",
})

// ParseFailuresTotal counts uploads rejected by the CSV parser.
var ParseFailuresTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "feedback",
	Name:      "csv_parse_failures_total",
	Help:      "Total number of uploads rejected with a parse error",
})

// BulkSubmissionsTotal counts bulk campaign submissions by outcome.
var BulkSubmissionsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "feedback",
	Name:      "bulk_submissions_total",
	Help:      "Total number of bulk campaign submissions",
}, []string{"outcome"}) // outcome: clean, partial, error

// PollTicksTotal counts call-status poll ticks.
var PollTicksTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "feedback",
	Name:      "poll_ticks_total",
	Help:      "Total number of call status poll ticks executed",
})

// PollErrorsTotal counts transport errors during poll ticks (swallowed and retried).
var PollErrorsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "feedback",
	Name:      "poll_errors_total",
	Help:      "Total number of transient poll tick failures",
})

// TerminalTransitionsTotal counts calls reaching a terminal status, by status.
var TerminalTransitionsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "feedback",
	Name:      "terminal_transitions_total",
	Help:      "Total number of tracked calls reaching a terminal status",
}, []string{"status"})

// RefreshCyclesTotal counts list auto-refresh fetch cycles.
var RefreshCyclesTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "feedback",
	Name:      "refresh_cycles_total",
	Help:      "Total number of call list refresh fetches (timer-driven and manual)",
})

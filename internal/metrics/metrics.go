package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	rawEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lendingscope_raw_entries_total",
			Help: "Raw log entries read",
		},
	)

	duplicateEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lendingscope_duplicate_entries_total",
			Help: "Raw log entries dropped as exact duplicates",
		},
	)

	unknownSignatures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lendingscope_unknown_signature_total",
			Help: "Raw log entries whose topic0 matched no known event",
		},
	)

	decodedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendingscope_decoded_records_total",
			Help: "Decoded records per event kind",
		},
		[]string{"event"},
	)

	malformedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendingscope_malformed_events_total",
			Help: "Entries rejected as malformed per event kind",
		},
		[]string{"event"},
	)

	mintsFiltered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lendingscope_transfer_mints_filtered_total",
			Help: "Transfers from the zero address dropped",
		},
	)

	activeUsers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lendingscope_active_users",
			Help: "Distinct active addresses in the last run",
		},
		[]string{"source"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lendingscope_run_duration_seconds",
			Help:    "Duration of batch runs",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"command"},
	)
)

func RawEntriesAdd(n int) {
	rawEntries.Add(float64(n))
}

func DuplicateEntriesAdd(n int) {
	duplicateEntries.Add(float64(n))
}

func UnknownSignaturesAdd(n int) {
	unknownSignatures.Add(float64(n))
}

func DecodedRecordsAdd(event string, n int) {
	decodedRecords.WithLabelValues(event).Add(float64(n))
}

func MalformedEventInc(event string) {
	malformedEvents.WithLabelValues(event).Inc()
}

func MintsFilteredAdd(n int) {
	mintsFiltered.Add(float64(n))
}

func ActiveUsersSet(source string, n int) {
	activeUsers.WithLabelValues(source).Set(float64(n))
}

func RunDurationObserve(command string, seconds float64) {
	runDuration.WithLabelValues(command).Observe(seconds)
}

// Push sends the default registry to a Pushgateway under job. An empty url
// disables pushing.
func Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(prometheus.DefaultGatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

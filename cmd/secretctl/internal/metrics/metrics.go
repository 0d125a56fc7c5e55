// Package metrics holds the Prometheus counters for secret fetches and copies.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultSuccess = "success"
	ResultError   = "error"

	ModeScalar   = "scalar"
	ModeDocument = "document"
)

var (
	// Registry holds every secretctl metric. It is separate from the default
	// registry so textfile exports only carry these series.
	Registry = prometheus.NewRegistry()

	fetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "secretctl",
			Subsystem: "store",
			Name:      "fetch_total",
			Help:      "Total number of secret fetches by mode and result",
		},
		[]string{"mode", "result"},
	)

	copyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "secretctl",
			Subsystem: "propagation",
			Name:      "copy_total",
			Help:      "Total number of values written to destinations by result",
		},
		[]string{"destination", "result"},
	)
)

func init() {
	Registry.MustRegister(fetchTotal, copyTotal)
}

// RecordFetch counts one store fetch.
func RecordFetch(mode string, err error) {
	fetchTotal.WithLabelValues(mode, result(err)).Inc()
}

// RecordCopy counts one destination write.
func RecordCopy(destination string, err error) {
	copyTotal.WithLabelValues(destination, result(err)).Inc()
}

// WriteTextfile writes all metrics in the node-exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

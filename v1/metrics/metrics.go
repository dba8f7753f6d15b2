package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ConsoleWriteCounter tracks the number of console write operations.
	ConsoleWriteCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pigweed_console_writes_total",
		Help: "Total number of console write operations",
	})
	// ConsoleWriteBytes tracks the bytes accepted by the console backend.
	ConsoleWriteBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pigweed_console_write_bytes_total",
		Help: "Total bytes accepted by the console backend",
	})
	// ConsoleErrorCounter tracks failed console writes and flushes.
	ConsoleErrorCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pigweed_console_errors_total",
		Help: "Total number of failed console writes and flushes",
	})
)

// NewRegistry creates a new Prometheus registry.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// RegisterConsoleMetrics registers the console metrics on the provided
// registry.
func RegisterConsoleMetrics(reg prometheus.Registerer) {
	reg.MustRegister(ConsoleWriteCounter, ConsoleWriteBytes, ConsoleErrorCounter)
}

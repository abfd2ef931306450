// Package metrics registers Prometheus instrumentation for the
// thermostat worker loop.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "thermostat_"

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	telemetryPublished *prometheus.CounterVec
	propertyUpdates    prometheus.Counter
	maxChangedTotal    prometheus.Counter
	commandResults     *prometheus.CounterVec
	reconnectCycles    prometheus.Counter

	currentTemperature prometheus.Gauge
	maximumTemperature prometheus.Gauge
)

// Init registers the worker-loop metrics.
func Init() {
	registerOnce.Do(func() {
		telemetryPublished = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "telemetry_published_total",
				Help: "Total telemetry publishes by result",
			},
			[]string{"result"},
		)
		propertyUpdates = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "property_updates_total",
				Help: "Total reconciled writable-property updates",
			},
		)
		maxChangedTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "max_changed_total",
				Help: "Total property updates that raised the running maximum",
			},
		)
		commandResults = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "command_results_total",
				Help: "Total command responses by status code",
			},
			[]string{"status"},
		)
		reconnectCycles = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconnect_cycles_total",
				Help: "Total completed connection cycles",
			},
		)
		currentTemperature = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "current_temperature_celsius",
				Help: "Last accepted temperature value",
			},
		)
		maximumTemperature = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "maximum_temperature_celsius",
				Help: "Running maximum temperature since startup",
			},
		)

		prometheus.MustRegister(
			telemetryPublished,
			propertyUpdates,
			maxChangedTotal,
			commandResults,
			reconnectCycles,
			currentTemperature,
			maximumTemperature,
		)
	})
}

// IncTelemetry counts one telemetry publish attempt.
func IncTelemetry(result string) {
	if telemetryPublished != nil {
		telemetryPublished.WithLabelValues(result).Inc()
	}
}

// IncPropertyUpdate counts one reconciled writable-property update.
func IncPropertyUpdate(maxChanged bool) {
	if propertyUpdates != nil {
		propertyUpdates.Inc()
	}
	if maxChanged && maxChangedTotal != nil {
		maxChangedTotal.Inc()
	}
}

// IncCommandResult counts one command response by status code.
func IncCommandResult(status int) {
	if commandResults != nil {
		commandResults.WithLabelValues(strconv.Itoa(status)).Inc()
	}
}

// IncReconnectCycle counts one completed connection cycle.
func IncReconnectCycle() {
	if reconnectCycles != nil {
		reconnectCycles.Inc()
	}
}

// SetTemperatures publishes the current and maximum temperature gauges.
func SetTemperatures(current, maximum float64) {
	if currentTemperature != nil {
		currentTemperature.Set(current)
	}
	if maximumTemperature != nil {
		maximumTemperature.Set(maximum)
	}
}

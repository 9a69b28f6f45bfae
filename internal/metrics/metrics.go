// Package metrics exposes the controller's Prometheus collectors.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Control loop
	TemperatureCelsius = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "poolpump_temperature_celsius",
		Help: "Last valid temperature per channel",
	}, []string{"channel"})
	SensorConnected = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "poolpump_sensor_connected",
		Help: "1 if the channel produced a valid reading on the last tick",
	}, []string{"channel"})
	PumpOn = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "poolpump_pump_on",
		Help: "1 while the pump output is driven high",
	})
	PumpStateSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "poolpump_pump_state_seconds",
		Help: "Time spent in the current pump state",
	})
	TicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "poolpump_ticks_total",
		Help: "Total number of control loop ticks",
	})
	TickDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "poolpump_tick_duration_seconds",
		Help:    "Duration of one control loop tick",
		Buckets: prometheus.DefBuckets,
	})
	TransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poolpump_transitions_total",
		Help: "Committed pump transitions by target state",
	}, []string{"to"})
	DeferredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "poolpump_transitions_deferred_total",
		Help: "Commanded transitions held back by dwell time or actuator failure",
	})
	SensorFaultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poolpump_sensor_faults_total",
		Help: "Ticks on which a channel read as disconnected",
	}, []string{"channel"})
	WatchdogSignalsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "poolpump_watchdog_signals_total",
		Help: "Watchdog queue signals consumed by the control loop",
	})

	// Telemetry channel
	ActiveSessions = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "poolpump_ws_sessions",
		Help: "Connected websocket sessions by type",
	}, []string{"type"})
	FramesRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poolpump_ws_frames_rejected_total",
		Help: "Inbound frames dropped as malformed",
	}, []string{"reason"})
	SendFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poolpump_ws_send_failures_total",
		Help: "Failed frame writes by session type",
	}, []string{"type"})
	DebugLinesDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "poolpump_debug_lines_dropped_total",
		Help: "Log lines not forwarded to debug sessions because the queue was full",
	})

	// MQTT mirror
	MQTTDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "poolpump_mqtt_messages_dropped_total",
		Help: "Messages not mirrored because the publish queue was full",
	})
	MQTTPublishFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "poolpump_mqtt_publish_failures_total",
		Help: "Messages the broker did not acknowledge",
	})

	registerOnce sync.Once
)

func init() {
	InitMetrics()
}

// InitMetrics registers all collectors with the default registry.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			TemperatureCelsius,
			SensorConnected,
			PumpOn,
			PumpStateSeconds,
			TicksTotal,
			TickDurationSeconds,
			TransitionsTotal,
			DeferredTotal,
			SensorFaultsTotal,
			WatchdogSignalsTotal,
			ActiveSessions,
			FramesRejectedTotal,
			SendFailuresTotal,
			DebugLinesDroppedTotal,
			MQTTDroppedTotal,
			MQTTPublishFailuresTotal,
		)
	})
}

// Handler returns an HTTP handler that exposes the registered metrics.
func Handler() http.Handler {
	InitMetrics()
	return promhttp.Handler()
}

// ObserveReading records one channel sample.
func ObserveReading(channel string, valueC float32, valid bool) {
	if !valid {
		SensorConnected.WithLabelValues(channel).Set(0)
		SensorFaultsTotal.WithLabelValues(channel).Inc()
		return
	}
	SensorConnected.WithLabelValues(channel).Set(1)
	TemperatureCelsius.WithLabelValues(channel).Set(float64(valueC))
}

// ObserveTick records the outcome of one control tick.
func ObserveTick(on bool, stateTime, took time.Duration) {
	TicksTotal.Inc()
	TickDurationSeconds.Observe(took.Seconds())
	PumpStateSeconds.Set(stateTime.Seconds())
	if on {
		PumpOn.Set(1)
	} else {
		PumpOn.Set(0)
	}
}

// RecordTransition counts a committed transition.
func RecordTransition(to string) {
	TransitionsTotal.WithLabelValues(to).Inc()
}

// RecordDeferred counts a held-back transition.
func RecordDeferred() {
	DeferredTotal.Inc()
}

// RecordWatchdog counts a consumed watchdog signal.
func RecordWatchdog() {
	WatchdogSignalsTotal.Inc()
}

// SetSessions sets the live session count of one type.
func SetSessions(sessionType string, n int) {
	ActiveSessions.WithLabelValues(sessionType).Set(float64(n))
}

// RecordFrameRejected counts a dropped inbound frame.
func RecordFrameRejected(reason string) {
	FramesRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordSendFailure counts a failed write to a session.
func RecordSendFailure(sessionType string) {
	SendFailuresTotal.WithLabelValues(sessionType).Inc()
}

// RecordDebugDrop counts a log line dropped by the debug fan-out.
func RecordDebugDrop() {
	DebugLinesDroppedTotal.Inc()
}

// RecordMQTTDrop counts a message dropped by the MQTT publish queue.
func RecordMQTTDrop() {
	MQTTDroppedTotal.Inc()
}

// RecordMQTTFailure counts a failed MQTT publish.
func RecordMQTTFailure() {
	MQTTPublishFailuresTotal.Inc()
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	updateState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "baylight",
		Subsystem: "system",
		Name:      "update_state",
		Help:      "0 unknown, 1 current, 2 updates pending, 3 security updates pending, 4 reboot required",
	})

	pendingUpdates = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "baylight",
		Subsystem: "system",
		Name:      "pending_updates",
		Help:      "Pending package updates by kind",
	}, []string{"kind"})
)

// SetUpdateState records the summarised update state level.
func SetUpdateState(level int) {
	updateState.Set(float64(level))
}

// SetPendingUpdates records the pending package counts.
func SetPendingUpdates(updates, security int) {
	pendingUpdates.WithLabelValues("all").Set(float64(updates))
	pendingUpdates.WithLabelValues("security").Set(float64(security))
}

// UpdateStateGauge exposes the update state gauge for inspection.
func UpdateStateGauge() prometheus.Gauge {
	return updateState
}

// Package metrics provides Prometheus metrics for drive bays and system updates.
package metrics

import (
	"maps"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bayPresent = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "baylight",
		Subsystem: "bay",
		Name:      "present",
		Help:      "Whether a disk occupies the bay (1) or not (0)",
	}, []string{"bay"})

	bayInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "baylight",
		Subsystem: "bay",
		Name:      "ios_in_flight",
		Help:      "I/O requests in flight on the disk of the bay",
	}, []string{"bay"})

	deviceEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "baylight",
		Name:      "device_events_total",
		Help:      "Hot-plug notifications received",
	}, []string{"action", "accepted"})

	// Local cache for SSE exporter access.
	inFlightCache   = make(map[int]uint64)
	inFlightCacheMu sync.RWMutex
)

func bayLabel(index int) string {
	return strconv.Itoa(index)
}

// SetBayPresent records whether a bay holds a disk.
func SetBayPresent(index int, present bool) {
	v := 0.0
	if present {
		v = 1
	}
	bayPresent.WithLabelValues(bayLabel(index)).Set(v)
	if !present {
		SetBayInFlight(index, 0)
	}
}

// SetBayInFlight records the I/O queue depth of a bay.
func SetBayInFlight(index int, inFlight uint64) {
	bayInFlight.WithLabelValues(bayLabel(index)).Set(float64(inFlight))

	inFlightCacheMu.Lock()
	inFlightCache[index] = inFlight
	inFlightCacheMu.Unlock()
}

// IncDeviceEvent counts one hot-plug notification.
func IncDeviceEvent(action string, accepted bool) {
	deviceEvents.WithLabelValues(action, strconv.FormatBool(accepted)).Inc()
}

// DeleteBayMetrics removes all metrics of a bay.
func DeleteBayMetrics(index int) {
	bayPresent.DeleteLabelValues(bayLabel(index))
	bayInFlight.DeleteLabelValues(bayLabel(index))

	inFlightCacheMu.Lock()
	delete(inFlightCache, index)
	inFlightCacheMu.Unlock()
}

// GetBayInFlight returns the last recorded queue depth of a bay.
func GetBayInFlight(index int) (uint64, bool) {
	inFlightCacheMu.RLock()
	defer inFlightCacheMu.RUnlock()
	v, ok := inFlightCache[index]
	return v, ok
}

// GetAllBayInFlight returns the last recorded queue depth of every bay.
func GetAllBayInFlight() map[int]uint64 {
	inFlightCacheMu.RLock()
	defer inFlightCacheMu.RUnlock()
	return maps.Clone(inFlightCache)
}

// Package exporters exposes collected metrics over HTTP and the event bus.
package exporters

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smazurov/baylight/internal/version"
)

var registerBuildInfo = sync.OnceFunc(func() {
	info := version.Get()
	prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "baylight_build_info",
		Help: "Build of the running daemon, always 1",
		ConstLabels: prometheus.Labels{
			"version":   info.Version,
			"commit":    info.GitCommit,
			"goversion": info.GoVersion,
		},
	}, func() float64 { return 1 }))
})

// HTTPHandler serves every promauto-registered metric plus the build info
// gauge, in OpenMetrics format when the scraper asks for it.
func HTTPHandler() http.Handler {
	registerBuildInfo()
	return promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}),
	)
}

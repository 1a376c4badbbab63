package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the HTTP handler that serves this collector's registry in
// Prometheus exposition format. The watch command mounts it on the monitor
// listener at MetricsConfig.Path; one-shot commands never start a listener,
// so nothing is served unless a long-running mode is active.
//
// The handler negotiates OpenMetrics when the scraper accepts it and keeps
// serving partial output if a gather fails mid-scrape. Scrape timeouts are
// left to the surrounding http.Server. Custom scrape setups can build their
// own handler from Registry().
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler exposes the registry in the Prometheus text format.
//
//	@Summary		Prometheus metrics
//	@Description	Token lifecycle counters and Go runtime metrics.
//	@Tags			Health
//	@Produce		plain
//	@Success		200	{string}	string	"Prometheus exposition format"
//	@Router			/metrics [get]
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

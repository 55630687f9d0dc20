/*
Package observability turns the orchestrator's lifecycle hooks into Prometheus
metrics and structured log lines.

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	engine, _ := concierge.New(concierge.WithHooks(metrics.Hooks(), observability.LogHooks(logger)))
*/
package observability

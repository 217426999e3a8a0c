// Package middleware provides the observability middleware of the HTTP
// service.
//
// This package includes:
//   - OpenTelemetry request tracing
//   - Prometheus request and serialization metrics
//   - request body limits
//
// # OpenTelemetry Middleware
//
// OpenTelemetry starts a server span for every request. Handlers pass the
// request context on to the serializer, whose spans nest under it.
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
//
// # Prometheus Metrics
//
// Metrics collects:
//   - docsave_http_requests_total: requests by route, method and status
//   - docsave_http_request_duration_seconds: request duration histogram
//   - docsave_http_requests_in_flight: requests being served
//   - docsave_serializations_total: serializer calls by format and outcome
//   - docsave_serialization_duration_seconds: serializer duration histogram
//   - docsave_warnings_total: warn events published during saves
//   - docsave_event_stream_clients: connected event stream clients
//
// Metrics also implements render.Recorder:
//
//	reg := prometheus.NewRegistry()
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	ser, _ := render.NewSerializer(render.Config{Recorder: m})
//	r.Use(m.Handler)
//	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package middleware

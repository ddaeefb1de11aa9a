// Package metric provides Prometheus metrics for restkit.
//
//   - prometheus.go: the Registry, its collectors and the /metrics handler
//   - collector.go: a Collector reporting the live negotiate handshakes
//
// Metrics include request counts and latency per endpoint, rejections by
// error code, negotiate rounds by resulting state, rate-limited requests and
// emitted responses by body kind. Each Registry owns its own
// prometheus.Registry so that tests do not share state.
package metric

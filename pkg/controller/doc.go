// Package controller holds the HTTP middlewares and debug handlers shared by
// the API server.
//
//   - WithCORS answers cross-origin requests for a configured set of origins.
//   - WithLogger assigns request IDs and writes access logs.
//   - WithMetrics counts requests and their latency per chi route.
//   - Health serves a readiness report built from dependency checks.
//   - PprofMux serves net/http/pprof under PprofPrefix.
package controller

// Package probe performs single health checks against website URLs.
//
// A check issues one HEAD request and, if the target answers 405 Method Not
// Allowed, retries once with GET. The elapsed wall-clock time of the whole
// exchange is reported as the response time. Transport failures never
// surface as errors: they are folded into a [Result] carrying a synthesized
// status code (408 for timeouts, 503 for connectivity failures, 500 for
// anything else).
//
// The main components are:
//
//   - [Prober]: HTTP client wrapper with connection pooling and timeouts
//   - [Result]: the outcome of one check, in its JSON wire form
//   - [StatusCodeFor]: maps a failed request's error to a status code
package probe

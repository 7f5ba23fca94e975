// Package netshepherd polls the websites of a static server inventory and
// serves their health on a live dashboard.
//
// NetShepherd is SDK-first: the CLI in cmd/netshepherd is a thin wrapper
// around [New] and [Shepherd.Start]. A run probes every website in a scope
// (one server or all servers) through a bounded worker pool. Each probe is a
// HEAD request, retried once as GET when the target answers 405, and its
// outcome is merged into the inventory by website id.
//
// # Quick Start
//
//	sh, _ := netshepherd.New(netshepherd.WithInventoryFile("servers.json"))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	sh.Start(ctx) // blocks until context is cancelled
//
// Runs are started from the dashboard, from the HTTP API, periodically via
// [WithAutoPoll], or directly:
//
//	sum, err := sh.Poll(ctx, "web-01") // one server; "" polls all servers
//
// # Configuration
//
//	sh, err := netshepherd.New(
//	    netshepherd.WithInventoryFile("servers.json"),
//	    netshepherd.WithPort(5085),
//	    netshepherd.WithMaxConcurrency(10),
//	    netshepherd.WithPacing(time.Second),
//	    netshepherd.WithProbeTimeout(5*time.Second),
//	)
//
// Probes run in-process by default. [WithRemoteChecker] sends them to another
// NetShepherd's probe endpoint instead, behind a circuit breaker.
//
// # Architecture
//
//   - internal/inventory: data model, inventory loader, store with pub/sub
//   - internal/probe: the single-URL health probe
//   - internal/poller: the polling orchestrator and checkers
//   - internal/server: HTTP API, Server-Sent Events, dashboard
//   - dashboard: embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package netshepherd

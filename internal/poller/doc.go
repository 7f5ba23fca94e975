// Package poller implements the polling orchestrator for NetShepherd.
//
// A run probes every website in a scope (one server, or all servers) through
// a fixed-size worker pool. Each worker loops: take the next website from
// the queue, wait the pacing delay, wait while paused, probe, merge the
// result into the inventory store, repeat. At most one run is active at a
// time; starting another while one is active is rejected with
// [ErrPollInProgress].
//
// The main components are:
//
//   - [Orchestrator]: run lifecycle, pause and stop controls, observable [State]
//   - [Checker]: the probe abstraction, with [LocalChecker] (in-process) and
//     [RemoteChecker] (calls the probe HTTP endpoint behind a circuit breaker)
//   - [Summary]: per-run counts returned when a run resolves
//
// Stop cancels the run's context. Workers observe it at every suspension
// point (pacing, pause gate, the probe call) and a result that arrives after
// the stop is discarded rather than written.
package poller

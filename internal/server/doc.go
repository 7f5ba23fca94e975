// Package server provides the HTTP surface of NetShepherd.
//
// Routes:
//
//   - GET  /api/WebsiteStatus/check?url=: probe one URL (rate limited)
//   - GET  /api/servers, /api/servers/{id}: inventory with per-server stats
//   - GET  /api/polling: orchestrator state
//   - POST /api/polling[?serverId=], /api/polling/pause, /api/polling/stop: run control
//   - GET  /api/sse: Server-Sent Events stream of status updates
//   - GET  /: the embedded dashboard
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the netshepherd library should not need to interact with this
// package directly. The server is started by [netshepherd.Shepherd.Start].
package server

// Package inventory holds the server and website inventory for NetShepherd.
//
// The inventory is loaded once at startup from a JSON document and is never
// grown or shrunk at runtime. The only mutable data is each website's last
// known [Status], which is written by the polling orchestrator as probe
// results arrive.
//
// The main components are:
//
//   - [Server], [Website], [Status]: the data model
//   - [Parse] and [Load]: JSON decoding with validation
//   - [Store]: interface for snapshot reads, status merges and subscriptions
//   - [MemoryStore]: in-memory implementation of Store with pub/sub
//   - [Stats]: per-server aggregate counts used by the dashboard
//
// Status updates are merged by (server id, website id) under a lock, so
// concurrent updates to sibling websites never overwrite each other and
// readers never observe a partially written status.
package inventory

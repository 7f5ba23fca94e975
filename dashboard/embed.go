// Package dashboard provides the embedded web UI assets for NetShepherd.
//
// The embedded assets are served by the server package at the root path ("/").
// Users of the netshepherd library should not need to interact with this
// package directly.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Main dashboard page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS

package inventory

import "errors"

var (
	// ErrServerNotFound is returned when a server id is not in the inventory.
	ErrServerNotFound = errors.New("server not found")

	// ErrWebsiteNotFound is returned when a website id is not on the given server.
	ErrWebsiteNotFound = errors.New("website not found")
)

// StatusUpdate is published to subscribers whenever a website's status is
// written.
type StatusUpdate struct {
	ServerID  string `json:"serverId"`
	WebsiteID string `json:"websiteId"`
	Status    Status `json:"status"`
}

// Store defines the interface for reading the inventory, merging status
// updates, and subscribing to them.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// Servers returns a deep-copied snapshot of all servers in display order.
	Servers() []Server

	// Server returns a deep copy of one server.
	Server(id string) (Server, bool)

	// Targets returns the probe work list for a server, or for every server
	// when serverID is empty. Order follows the inventory.
	Targets(serverID string) ([]Target, error)

	// UpdateStatus replaces the status of exactly one website and notifies
	// subscribers. Sibling websites are left untouched.
	UpdateStatus(serverID, websiteID string, status Status) error

	// Subscribe returns a channel that receives status updates.
	// Slow consumers may miss updates. Caller must call Unsubscribe.
	Subscribe() <-chan StatusUpdate

	// Unsubscribe removes a subscription and closes the channel.
	Unsubscribe(ch <-chan StatusUpdate)
}

package inventory

import (
	"encoding/json"
	"fmt"
	"time"
)

// WebsiteType classifies a hosted website.
type WebsiteType string

const (
	// TypeWebsite is a regular browser-facing site.
	TypeWebsite WebsiteType = "website"

	// TypeAPI is a machine-facing HTTP API.
	TypeAPI WebsiteType = "api"

	// TypeRedirect is a host that only redirects to another site.
	TypeRedirect WebsiteType = "website-redirect"
)

// Valid reports whether t is one of the known website types.
func (t WebsiteType) Valid() bool {
	switch t {
	case TypeWebsite, TypeAPI, TypeRedirect:
		return true
	}
	return false
}

// Status is the last known health of a website.
//
// A Status value is replaced as a whole on every update; it is never
// modified field by field.
type Status struct {
	// IsRunning is true when the last probe returned HTTP 200.
	IsRunning bool

	// LastStatusCode is the HTTP status code of the last probe, or a
	// synthesized code (408, 503, 500) when the probe itself failed.
	LastStatusCode int

	// LastChecked is when the status was last written. Zero if never checked.
	LastChecked time.Time

	// ResponseTime is the probe latency in milliseconds, 0 when not measured
	// or when the probe failed.
	ResponseTime int64
}

// statusJSON is the wire form of Status. lastChecked is an RFC 3339 string
// and may be empty in hand-written inventory files.
type statusJSON struct {
	IsRunning      bool   `json:"isRunning"`
	LastStatusCode int    `json:"lastStatusCode"`
	LastChecked    string `json:"lastChecked"`
	ResponseTime   int64  `json:"responseTime"`
}

// MarshalJSON implements json.Marshaler.
func (s Status) MarshalJSON() ([]byte, error) {
	out := statusJSON{
		IsRunning:      s.IsRunning,
		LastStatusCode: s.LastStatusCode,
		ResponseTime:   s.ResponseTime,
	}
	if !s.LastChecked.IsZero() {
		out.LastChecked = s.LastChecked.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Status) UnmarshalJSON(data []byte) error {
	var in statusJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	var checked time.Time
	if in.LastChecked != "" {
		t, err := time.Parse(time.RFC3339Nano, in.LastChecked)
		if err != nil {
			return fmt.Errorf("invalid lastChecked %q: %w", in.LastChecked, err)
		}
		checked = t
	}

	*s = Status{
		IsRunning:      in.IsRunning,
		LastStatusCode: in.LastStatusCode,
		LastChecked:    checked,
		ResponseTime:   in.ResponseTime,
	}
	return nil
}

// Website is a site hosted on exactly one [Server].
type Website struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Type       WebsiteType `json:"type"`
	Technology string      `json:"technology"`

	// PrimaryURL is the only URL that is probed.
	PrimaryURL string `json:"primaryUrl"`

	// AdditionalURLs are informational and never probed.
	AdditionalURLs []string `json:"additionalUrls"`

	Status     Status  `json:"status"`
	Screenshot *string `json:"screenshot"`
}

// Server is a host machine and the ordered list of websites it serves.
type Server struct {
	ID          string    `json:"id"`
	CommonName  string    `json:"commonName"`
	MachineName string    `json:"machineName"`
	IPAddresses []string  `json:"ipAddresses"`
	Icon        string    `json:"icon"`
	Websites    []Website `json:"websites"`
}

// clone returns a deep copy of the server so snapshots can be handed out
// without sharing slices with the store.
func (s Server) clone() Server {
	cp := s
	cp.IPAddresses = copyStrings(s.IPAddresses)
	cp.Websites = make([]Website, len(s.Websites))
	for i, w := range s.Websites {
		cp.Websites[i] = w.clone()
	}
	return cp
}

func (w Website) clone() Website {
	cp := w
	cp.AdditionalURLs = copyStrings(w.AdditionalURLs)
	if w.Screenshot != nil {
		shot := *w.Screenshot
		cp.Screenshot = &shot
	}
	return cp
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// Target is one (server, website) pair to be probed.
type Target struct {
	ServerID   string
	WebsiteID  string
	Name       string
	PrimaryURL string
}

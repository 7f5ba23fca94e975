package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
)

// document is the top-level layout of an inventory file. Other top-level
// keys (such as per-user grid layouts) are ignored.
type document struct {
	Servers []Server `json:"servers"`
}

// Load reads and parses an inventory file.
func Load(path string) ([]Server, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates an inventory document.
func Parse(data []byte) ([]Server, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse inventory JSON: %w", err)
	}
	if err := Validate(doc.Servers); err != nil {
		return nil, err
	}
	return doc.Servers, nil
}

// Validate checks an inventory in place.
//
// Server ids must be unique, and website ids must be unique across the whole
// inventory because in-flight tracking is keyed by website id. Every
// website needs an absolute http or https primary URL. A missing website
// type is set to [TypeWebsite].
func Validate(servers []Server) error {
	if len(servers) == 0 {
		return errors.New("inventory must define at least one server")
	}

	serverIDs := make(map[string]struct{}, len(servers))
	websiteIDs := make(map[string]string)

	for i := range servers {
		srv := &servers[i]

		if srv.ID == "" {
			return fmt.Errorf("servers[%d]: id is required", i)
		}
		if _, dup := serverIDs[srv.ID]; dup {
			return fmt.Errorf("servers[%d]: duplicate server id %q", i, srv.ID)
		}
		serverIDs[srv.ID] = struct{}{}

		for j := range srv.Websites {
			w := &srv.Websites[j]
			where := fmt.Sprintf("servers[%d].websites[%d]", i, j)

			if w.ID == "" {
				return fmt.Errorf("%s: id is required", where)
			}
			if owner, dup := websiteIDs[w.ID]; dup {
				return fmt.Errorf("%s: website id %q already used on server %q", where, w.ID, owner)
			}
			websiteIDs[w.ID] = srv.ID

			if w.Type == "" {
				w.Type = TypeWebsite
			}
			if !w.Type.Valid() {
				return fmt.Errorf("%s (%s): unknown type %q", where, w.ID, w.Type)
			}

			if err := validatePrimaryURL(w.PrimaryURL); err != nil {
				return fmt.Errorf("%s (%s): %w", where, w.ID, err)
			}
		}
	}

	return nil
}

func validatePrimaryURL(raw string) error {
	if raw == "" {
		return errors.New("primaryUrl is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid primaryUrl: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("primaryUrl scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("primaryUrl must include a host")
	}
	return nil
}

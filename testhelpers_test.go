package netshepherd

import (
	"io"
	"log/slog"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fleet(upURL, downURL string) []Server {
	return []Server{
		{
			ID:         "web-01",
			CommonName: "Web 01",
			Websites: []Website{
				{ID: "shop", Name: "Shop", PrimaryURL: upURL},
				{ID: "shop-api", Name: "Shop API", Type: TypeAPI, PrimaryURL: downURL},
			},
		},
		{
			ID:         "web-02",
			CommonName: "Web 02",
			Websites: []Website{
				{ID: "blog", Name: "Blog", PrimaryURL: upURL},
			},
		},
	}
}

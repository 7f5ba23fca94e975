package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	netshepherd "github.com/MattHedgcorth/net-shepherd"
)

func main() {
	// start mock fleet (see mock_server.go)
	go func() {
		if err := StartMockFleet(":9999"); err != nil {
			slog.Error("mock fleet failed", "error", err)
			os.Exit(1)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	const base = "http://localhost:9999"
	servers := []netshepherd.Server{
		{
			ID:          "web-01",
			CommonName:  "Web 01",
			MachineName: "WEB01",
			IPAddresses: []string{"10.0.0.11"},
			Websites: []netshepherd.Website{
				{ID: "shop", Name: "Shop", Type: netshepherd.TypeWebsite, Technology: "Go", PrimaryURL: base + "/ok"},
				{ID: "catalog", Name: "Catalog", Type: netshepherd.TypeAPI, Technology: "Go", PrimaryURL: base + "/slow"},
				{ID: "legacy", Name: "Legacy", Type: netshepherd.TypeWebsite, Technology: "PHP", PrimaryURL: base + "/no-head"},
			},
		},
		{
			ID:          "web-02",
			CommonName:  "Web 02",
			MachineName: "WEB02",
			IPAddresses: []string{"10.0.0.12"},
			Websites: []netshepherd.Website{
				{ID: "billing", Name: "Billing", Type: netshepherd.TypeAPI, PrimaryURL: base + "/error"},
				{ID: "status", Name: "Status", Type: netshepherd.TypeWebsite, PrimaryURL: base + "/flaky"},
				{ID: "old-shop", Name: "Old Shop", Type: netshepherd.TypeRedirect, PrimaryURL: base + "/drop"},
			},
		},
	}

	sh, err := netshepherd.New(
		netshepherd.WithInventory(servers...),
		netshepherd.WithPort(5085),
		netshepherd.WithMaxConcurrency(3),
		netshepherd.WithPacing(500*time.Millisecond),
		netshepherd.WithAutoPoll(30*time.Second),
		netshepherd.WithStatusCallback(func(u netshepherd.StatusUpdate) {
			if !u.IsRunning {
				slog.Warn("website down",
					"server_id", u.ServerID,
					"website_id", u.WebsiteID,
					"status_code", u.StatusCode,
				)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create netshepherd", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  NetShepherd Demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:5085 in your browser")
	fmt.Println()
	fmt.Println("  Fleet: 2 servers, 6 mock websites (ok, slow, HEAD rejected,")
	fmt.Println("         500, flaky, dropped connection)")
	fmt.Println("  An all-servers run starts every 30s")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sh.Start(ctx); err != nil {
		slog.Error("netshepherd error", "error", err)
		os.Exit(1)
	}
}

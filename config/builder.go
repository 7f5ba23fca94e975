package config

import (
	netshepherd "github.com/MattHedgcorth/net-shepherd"
)

// BuildOptions converts a parsed configuration into SDK options.
//
// The logger and status callbacks are not part of the file format; callers
// append their own options.
func BuildOptions(cfg *Config) []netshepherd.Option {
	opts := []netshepherd.Option{
		netshepherd.WithInventoryFile(cfg.Inventory),
		netshepherd.WithPort(cfg.Port),
		netshepherd.WithMaxConcurrency(cfg.MaxConcurrency),
		netshepherd.WithPacing(cfg.PacingDuration()),
		netshepherd.WithProbeTimeout(cfg.Probe.Timeout.Duration()),
		netshepherd.WithRateLimit(cfg.RateRequests(), cfg.RateLimit.Window.Duration()),
		netshepherd.WithAutoPoll(cfg.AutoPoll.Duration()),
	}

	if cfg.Title != "" {
		opts = append(opts, netshepherd.WithTitle(cfg.Title))
	}
	if cfg.Probe.UserAgent != "" {
		opts = append(opts, netshepherd.WithUserAgent(cfg.Probe.UserAgent))
	}
	if cfg.Checker.Mode == ModeRemote {
		opts = append(opts,
			netshepherd.WithRemoteChecker(cfg.Checker.Endpoint, cfg.Checker.Timeout.Duration()),
			netshepherd.WithBreaker(cfg.Checker.Breaker.Failures, cfg.Checker.Breaker.Cooldown.Duration()),
		)
	}

	return opts
}

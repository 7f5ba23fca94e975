package inventory

// Health is the coarse state of a server shown on the dashboard grid.
type Health string

const (
	HealthHealthy  Health = "healthy"
	HealthDegraded Health = "degraded"
	HealthDown     Health = "down"
)

// Stats aggregates the website statuses of one server.
type Stats struct {
	TotalWebsites      int `json:"totalWebsites"`
	RunningWebsites    int `json:"runningWebsites"`
	OfflineWebsites    int `json:"offlineWebsites"`
	RespondingWebsites int `json:"respondingWebsites"`
}

// ComputeStats counts a server's websites. A website is running when
// IsRunning is set, and responding when it is running with a 200.
func ComputeStats(s Server) Stats {
	st := Stats{TotalWebsites: len(s.Websites)}
	for _, w := range s.Websites {
		if !w.Status.IsRunning {
			continue
		}
		st.RunningWebsites++
		if w.Status.LastStatusCode == 200 {
			st.RespondingWebsites++
		}
	}
	st.OfflineWebsites = st.TotalWebsites - st.RunningWebsites
	return st
}

// Health grades the share of running websites that are responding:
// above half is healthy, anything above zero is degraded.
func (s Stats) Health() Health {
	if s.RunningWebsites == 0 {
		return HealthDown
	}
	pct := float64(s.RespondingWebsites) / float64(s.RunningWebsites) * 100
	switch {
	case pct > 50:
		return HealthHealthy
	case pct > 0:
		return HealthDegraded
	default:
		return HealthDown
	}
}

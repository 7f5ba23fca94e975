package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStats(t *testing.T) {
	srv := Server{Websites: []Website{
		{Status: Status{IsRunning: true, LastStatusCode: 200}},
		{Status: Status{IsRunning: true, LastStatusCode: 200}},
		{Status: Status{IsRunning: true, LastStatusCode: 302}},
		{Status: Status{IsRunning: false, LastStatusCode: 503}},
	}}

	st := ComputeStats(srv)
	assert.Equal(t, Stats{TotalWebsites: 4, RunningWebsites: 3, OfflineWebsites: 1, RespondingWebsites: 2}, st)
	assert.Equal(t, HealthHealthy, st.Health())
}

func TestStats_Health(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		want  Health
	}{
		{"nothing running", Stats{TotalWebsites: 3}, HealthDown},
		{"empty server", Stats{}, HealthDown},
		{"all responding", Stats{RunningWebsites: 2, RespondingWebsites: 2}, HealthHealthy},
		{"exactly half", Stats{RunningWebsites: 2, RespondingWebsites: 1}, HealthDegraded},
		{"running but none responding", Stats{RunningWebsites: 2}, HealthDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stats.Health())
		})
	}
}

package entities

import "time"

type ServiceStatus struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
	Latency string `json:"latency"`
}

// HealthCheckResponse is served by /healthCheck. Status is "down" when any
// dependency failed its ping.
type HealthCheckResponse struct {
	Status   string                   `json:"status"`
	Services map[string]ServiceStatus `json:"services"`
	UpSince  time.Time                `json:"up_since"`
	Uptime   string                   `json:"uptime"`
}

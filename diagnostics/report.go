package diagnostics

import (
	"strings"
	"time"
)

// Report is the outcome of one diagnostics run.
type Report struct {
	PortAvailable     bool      `json:"port_available" yaml:"port_available"`
	EndpointReachable bool      `json:"endpoint_reachable" yaml:"endpoint_reachable"`
	UpstreamChecked   bool      `json:"upstream_checked" yaml:"upstream_checked"`
	UpstreamReachable bool      `json:"upstream_reachable" yaml:"upstream_reachable"`
	FirewallStatus    string    `json:"firewall_status" yaml:"firewall_status"`
	Errors            []string  `json:"errors" yaml:"errors"`
	Warnings          []string  `json:"warnings" yaml:"warnings"`
	CheckedAt         time.Time `json:"checked_at" yaml:"checked_at"`
}

// IsHealthy is true when the port is free, Discord answered and no check
// reported an error. Warnings do not affect health.
func (r Report) IsHealthy() bool {
	return r.PortAvailable && r.EndpointReachable && len(r.Errors) == 0
}

// Summary renders the report for humans.
func (r Report) Summary() string {
	if r.IsHealthy() && len(r.Warnings) == 0 {
		return "All diagnostics passed."
	}

	var b strings.Builder
	if r.IsHealthy() {
		b.WriteString("All diagnostics passed.\n")
	} else {
		b.WriteString("The following problems were detected:\n")
		for _, e := range r.Errors {
			b.WriteString("- " + e + "\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range r.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}
	return b.String()
}

func (r *Report) addError(msg string) {
	r.Errors = append(r.Errors, msg)
}

func (r *Report) addWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

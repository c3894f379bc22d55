package status

// Status is a derived health value, either for one service or for a whole
// status page.
type Status string

const (
	StatusOperational Status = "operational"
	StatusDegraded    Status = "degraded"
	StatusMajorOutage Status = "major_outage"
	StatusMaintenance Status = "maintenance"

	// StatusUnknown only appears per-service: the monitor exists but no
	// check has been observed yet. It never appears as an overall status.
	StatusUnknown Status = "unknown"
)

// Incident severities, lowest to highest.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Incident lifecycle statuses. Everything except "resolved" counts as open
// for aggregation purposes.
const (
	IncidentOpen          = "open"
	IncidentAcknowledged  = "acknowledged"
	IncidentInvestigating = "investigating"
	IncidentResolved      = "resolved"
)

// ValidSeverity reports whether s is a recognized incident severity.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ValidIncidentStatus reports whether s is a recognized incident lifecycle
// status.
func ValidIncidentStatus(s string) bool {
	switch s {
	case IncidentOpen, IncidentAcknowledged, IncidentInvestigating, IncidentResolved:
		return true
	}
	return false
}

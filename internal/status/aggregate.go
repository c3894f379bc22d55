package status

import (
	"sort"
	"time"

	"github.com/statuscore-dev/statuscore/internal/uptime"
)

// MonitorState is the latest observed state of one monitor.
type MonitorState struct {
	ID   uint
	Name string
	// Known is false until the first check result arrives. An unknown
	// monitor is reported distinctly and contributes nothing to the
	// overall status.
	Known          bool
	Up             bool
	ResponseTimeMs int
	LastCheckedAt  time.Time
}

// IncidentState is an unresolved incident as seen by the aggregator.
type IncidentState struct {
	ID         uint
	Severity   string
	MonitorIDs []uint
}

// MaintenanceState is a maintenance window that is active right now.
type MaintenanceState struct {
	ID         uint
	MonitorIDs []uint
}

// Inputs is everything Aggregate reads. Resolved incidents and
// non-active maintenance windows must not be included.
type Inputs struct {
	Monitors          []MonitorState
	OpenIncidents     []IncidentState
	ActiveMaintenance []MaintenanceState
	Uptime            map[uint]uptime.Windows
	// DegradedUptimeThreshold is the 24h availability percentage below
	// which an otherwise-healthy service reports degraded.
	DegradedUptimeThreshold float64
}

// ServiceStatus is the derived state of one monitor inside a snapshot.
type ServiceStatus struct {
	MonitorID uint     `json:"monitor_id"`
	Name      string   `json:"name"`
	Status    Status   `json:"status"`
	Uptime24h *float64 `json:"uptime_24h"`
	Uptime7d  *float64 `json:"uptime_7d"`
	Uptime30d *float64 `json:"uptime_30d"`
}

// Snapshot is one immutable computation of page-wide health. Snapshots are
// totally ordered by Sequence; a consumer must never apply one whose
// sequence is not strictly greater than the last applied.
type Snapshot struct {
	OverallStatus Status          `json:"overall_status"`
	Services      []ServiceStatus `json:"services"`
	ComputedAt    time.Time       `json:"computed_at"`
	Sequence      uint64          `json:"sequence"`
}

// Aggregate derives per-service and overall status from the current inputs.
//
// Per-service precedence, highest first: maintenance, major_outage,
// degraded, operational. Monitors with no observed check stay unknown
// (unless under maintenance) and are ignored by the overall rollup.
//
// Aggregate is total: every reachable input combination produces a
// snapshot. Overlapping maintenance windows or incidents union their
// affected sets rather than conflicting. ComputedAt and Sequence are
// assigned by the Engine, not here, so identical inputs yield identical
// results.
func Aggregate(in Inputs) Snapshot {
	underMaintenance := affectedSet(len(in.ActiveMaintenance), func(i int) []uint {
		return in.ActiveMaintenance[i].MonitorIDs
	})

	criticalTargets := make(map[uint]bool)
	impairedTargets := make(map[uint]bool)

	for _, inc := range in.OpenIncidents {
		for _, id := range inc.MonitorIDs {
			switch inc.Severity {
			case SeverityCritical:
				criticalTargets[id] = true
			case SeverityMedium, SeverityHigh:
				impairedTargets[id] = true
			}
		}
	}

	services := make([]ServiceStatus, 0, len(in.Monitors))

	var anyOutage, anyDegraded bool

	for _, m := range in.Monitors {
		windows := in.Uptime[m.ID]

		svc := ServiceStatus{
			MonitorID: m.ID,
			Name:      m.Name,
			Uptime24h: windows.H24,
			Uptime7d:  windows.D7,
			Uptime30d: windows.D30,
		}

		switch {
		case underMaintenance[m.ID]:
			svc.Status = StatusMaintenance
		case !m.Known:
			svc.Status = StatusUnknown
		case !m.Up || criticalTargets[m.ID]:
			svc.Status = StatusMajorOutage
			anyOutage = true
		case impairedTargets[m.ID] || belowThreshold(windows.H24, in.DegradedUptimeThreshold):
			svc.Status = StatusDegraded
			anyDegraded = true
		default:
			svc.Status = StatusOperational
		}

		services = append(services, svc)
	}

	sort.Slice(services, func(i, j int) bool {
		return services[i].MonitorID < services[j].MonitorID
	})

	var anyCritical bool
	for _, inc := range in.OpenIncidents {
		if inc.Severity == SeverityCritical {
			anyCritical = true
			break
		}
	}

	overall := StatusOperational
	switch {
	case len(in.ActiveMaintenance) > 0 && !anyOutage:
		overall = StatusMaintenance
	case anyOutage || anyCritical:
		overall = StatusMajorOutage
	case anyDegraded || len(in.OpenIncidents) > 0:
		overall = StatusDegraded
	}

	return Snapshot{
		OverallStatus: overall,
		Services:      services,
	}
}

func affectedSet(n int, ids func(int) []uint) map[uint]bool {
	set := make(map[uint]bool)
	for i := 0; i < n; i++ {
		for _, id := range ids(i) {
			set[id] = true
		}
	}
	return set
}

func belowThreshold(pct *float64, threshold float64) bool {
	return pct != nil && *pct < threshold
}

package status

import (
	"reflect"
	"testing"

	"github.com/statuscore-dev/statuscore/internal/uptime"
)

func pct(v float64) *float64 { return &v }

func monitorUp(id uint, name string) MonitorState {
	return MonitorState{ID: id, Name: name, Known: true, Up: true}
}

func monitorDown(id uint, name string) MonitorState {
	return MonitorState{ID: id, Name: name, Known: true, Up: false}
}

func serviceStatuses(snap Snapshot) map[uint]Status {
	out := make(map[uint]Status, len(snap.Services))
	for _, svc := range snap.Services {
		out[svc.MonitorID] = svc.Status
	}
	return out
}

// Exhaustive sweep over the single-monitor state space: monitor up/down,
// incident severity (including none) targeting the monitor, maintenance
// window active or not.
func TestAggregateOverallPrecedence(t *testing.T) {
	severities := []string{"", SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

	expected := func(up bool, severity string, maintenance bool) Status {
		if maintenance {
			// The single monitor is under maintenance, so no service can
			// be in outage and maintenance wins.
			return StatusMaintenance
		}
		if !up || severity == SeverityCritical {
			return StatusMajorOutage
		}
		if severity != "" {
			return StatusDegraded
		}
		return StatusOperational
	}

	for _, up := range []bool{true, false} {
		for _, severity := range severities {
			for _, maintenance := range []bool{false, true} {
				in := Inputs{
					Uptime:                  map[uint]uptime.Windows{},
					DegradedUptimeThreshold: 95,
				}

				if up {
					in.Monitors = []MonitorState{monitorUp(1, "api")}
				} else {
					in.Monitors = []MonitorState{monitorDown(1, "api")}
				}

				if severity != "" {
					in.OpenIncidents = []IncidentState{{ID: 10, Severity: severity, MonitorIDs: []uint{1}}}
				}

				if maintenance {
					in.ActiveMaintenance = []MaintenanceState{{ID: 20, MonitorIDs: []uint{1}}}
				}

				snap := Aggregate(in)
				want := expected(up, severity, maintenance)

				if snap.OverallStatus != want {
					t.Errorf("up=%v severity=%q maintenance=%v: overall = %s, want %s",
						up, severity, maintenance, snap.OverallStatus, want)
				}
			}
		}
	}
}

func TestAggregateMaintenanceOverridesEverything(t *testing.T) {
	// Down and targeted by a critical incident, but under maintenance.
	in := Inputs{
		Monitors: []MonitorState{monitorDown(3, "payments")},
		OpenIncidents: []IncidentState{
			{ID: 1, Severity: SeverityCritical, MonitorIDs: []uint{3}},
		},
		ActiveMaintenance: []MaintenanceState{{ID: 2, MonitorIDs: []uint{3}}},
	}

	snap := Aggregate(in)

	if got := serviceStatuses(snap)[3]; got != StatusMaintenance {
		t.Errorf("service status = %s, want %s", got, StatusMaintenance)
	}
}

func TestAggregateMixedFleet(t *testing.T) {
	// Monitor A up, monitor B down, no incidents, no maintenance.
	in := Inputs{
		Monitors: []MonitorState{
			monitorUp(1, "a"),
			monitorDown(2, "b"),
		},
	}

	snap := Aggregate(in)

	if snap.OverallStatus != StatusMajorOutage {
		t.Fatalf("overall = %s, want %s", snap.OverallStatus, StatusMajorOutage)
	}

	statuses := serviceStatuses(snap)
	if statuses[1] != StatusOperational {
		t.Errorf("A = %s, want %s", statuses[1], StatusOperational)
	}
	if statuses[2] != StatusMajorOutage {
		t.Errorf("B = %s, want %s", statuses[2], StatusMajorOutage)
	}
}

func TestAggregateIncidentWithoutTargetsDegradesOverall(t *testing.T) {
	// All monitors up, one medium incident open with no affected monitors.
	in := Inputs{
		Monitors:      []MonitorState{monitorUp(1, "a"), monitorUp(2, "b")},
		OpenIncidents: []IncidentState{{ID: 5, Severity: SeverityMedium}},
	}

	snap := Aggregate(in)

	if snap.OverallStatus != StatusDegraded {
		t.Fatalf("overall = %s, want %s", snap.OverallStatus, StatusDegraded)
	}

	for id, st := range serviceStatuses(snap) {
		if st != StatusOperational {
			t.Errorf("service %d = %s, want %s", id, st, StatusOperational)
		}
	}
}

func TestAggregateMaintenanceWithHealthySiblings(t *testing.T) {
	// Maintenance covers C, C is down; the other monitor stays up.
	in := Inputs{
		Monitors: []MonitorState{
			monitorUp(1, "a"),
			monitorDown(3, "c"),
		},
		ActiveMaintenance: []MaintenanceState{{ID: 7, MonitorIDs: []uint{3}}},
	}

	snap := Aggregate(in)

	if snap.OverallStatus != StatusMaintenance {
		t.Fatalf("overall = %s, want %s", snap.OverallStatus, StatusMaintenance)
	}
	if got := serviceStatuses(snap)[3]; got != StatusMaintenance {
		t.Errorf("C = %s, want %s", got, StatusMaintenance)
	}
}

func TestAggregateMaintenanceDoesNotMaskOtherOutage(t *testing.T) {
	// Maintenance covers C, but B is down outside the window: the outage
	// must win overall.
	in := Inputs{
		Monitors: []MonitorState{
			monitorDown(2, "b"),
			monitorDown(3, "c"),
		},
		ActiveMaintenance: []MaintenanceState{{ID: 7, MonitorIDs: []uint{3}}},
	}

	snap := Aggregate(in)

	if snap.OverallStatus != StatusMajorOutage {
		t.Fatalf("overall = %s, want %s", snap.OverallStatus, StatusMajorOutage)
	}
}

func TestAggregateEmptyMonitorSet(t *testing.T) {
	snap := Aggregate(Inputs{})

	if snap.OverallStatus != StatusOperational {
		t.Errorf("overall = %s, want %s", snap.OverallStatus, StatusOperational)
	}
	if len(snap.Services) != 0 {
		t.Errorf("services = %d, want 0", len(snap.Services))
	}
}

func TestAggregateUnknownMonitor(t *testing.T) {
	in := Inputs{
		Monitors: []MonitorState{
			{ID: 1, Name: "fresh"}, // no check observed yet
			monitorUp(2, "api"),
		},
	}

	snap := Aggregate(in)

	statuses := serviceStatuses(snap)
	if statuses[1] != StatusUnknown {
		t.Errorf("fresh monitor = %s, want %s", statuses[1], StatusUnknown)
	}
	if snap.OverallStatus != StatusOperational {
		t.Errorf("overall = %s, want %s", snap.OverallStatus, StatusOperational)
	}
}

func TestAggregateUnknownMonitorUnderMaintenance(t *testing.T) {
	in := Inputs{
		Monitors:          []MonitorState{{ID: 1, Name: "fresh"}},
		ActiveMaintenance: []MaintenanceState{{ID: 9, MonitorIDs: []uint{1}}},
	}

	snap := Aggregate(in)

	if got := serviceStatuses(snap)[1]; got != StatusMaintenance {
		t.Errorf("service = %s, want %s", got, StatusMaintenance)
	}
}

func TestAggregateLowUptimeDegrades(t *testing.T) {
	in := Inputs{
		Monitors: []MonitorState{monitorUp(1, "flaky")},
		Uptime: map[uint]uptime.Windows{
			1: {H24: pct(92.5)},
		},
		DegradedUptimeThreshold: 95,
	}

	snap := Aggregate(in)

	if got := serviceStatuses(snap)[1]; got != StatusDegraded {
		t.Errorf("service = %s, want %s", got, StatusDegraded)
	}
	if snap.OverallStatus != StatusDegraded {
		t.Errorf("overall = %s, want %s", snap.OverallStatus, StatusDegraded)
	}
}

func TestAggregateMissingUptimeIsNotDegraded(t *testing.T) {
	// nil uptime means no observations, never "below threshold".
	in := Inputs{
		Monitors:                []MonitorState{monitorUp(1, "new")},
		DegradedUptimeThreshold: 95,
	}

	snap := Aggregate(in)

	if got := serviceStatuses(snap)[1]; got != StatusOperational {
		t.Errorf("service = %s, want %s", got, StatusOperational)
	}
}

func TestAggregateOverlappingMaintenanceWindows(t *testing.T) {
	// A monitor covered by two active windows takes the union effect, not
	// an error.
	in := Inputs{
		Monitors: []MonitorState{monitorDown(1, "db")},
		ActiveMaintenance: []MaintenanceState{
			{ID: 1, MonitorIDs: []uint{1}},
			{ID: 2, MonitorIDs: []uint{1}},
		},
	}

	snap := Aggregate(in)

	if got := serviceStatuses(snap)[1]; got != StatusMaintenance {
		t.Errorf("service = %s, want %s", got, StatusMaintenance)
	}
}

func TestAggregateDeterministic(t *testing.T) {
	in := Inputs{
		Monitors: []MonitorState{
			monitorUp(3, "c"),
			monitorDown(1, "a"),
			monitorUp(2, "b"),
		},
		OpenIncidents: []IncidentState{
			{ID: 1, Severity: SeverityHigh, MonitorIDs: []uint{2}},
		},
		Uptime: map[uint]uptime.Windows{
			1: {H24: pct(88.0)},
			2: {H24: pct(99.9)},
		},
		DegradedUptimeThreshold: 95,
	}

	first := Aggregate(in)
	second := Aggregate(in)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different snapshots:\n%+v\n%+v", first, second)
	}

	for i := 1; i < len(first.Services); i++ {
		if first.Services[i-1].MonitorID >= first.Services[i].MonitorID {
			t.Errorf("services not ordered by monitor id: %+v", first.Services)
		}
	}
}

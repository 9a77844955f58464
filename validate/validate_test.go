package validate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nextmv-community/shift-scheduler/payload"
	"github.com/nextmv-community/shift-scheduler/timeindex"
)

func trivialPayload() payload.Payload {
	p := payload.Payload{
		Static: payload.StaticConfig{
			NumHours:         24,
			NumVehicles:      1,
			MinDurationHours: 4,
			MaxDurationHours: 4,
			MaxStartsPerSlot: 1,
			MaxEndsPerSlot:   1,
		},
	}
	p.Normalize()
	p.Dynamic.Demand = map[int]int{}
	for _, t := range timeindex.Slots(24) {
		p.Dynamic.Demand[t] = 1
	}
	return p
}

func TestValidateAcceptsWellFormedPayload(t *testing.T) {
	p := trivialPayload()
	issues := Validate(p)
	require.Empty(t, issues)
}

func TestValidateRejectsMissingDemandSlot(t *testing.T) {
	p := trivialPayload()
	delete(p.Dynamic.Demand, 0)
	issues := Validate(p)
	require.NotEmpty(t, issues)
	require.Equal(t, ReasonMissingSlot, issues[0].Reason)
}

// Scenario 2 of spec.md §8: a fixed shift whose duration is out of
// bounds must be rejected before reaching the solver.
func TestValidateRejectsFixedShiftDurationOutOfBounds(t *testing.T) {
	p := trivialPayload()
	p.Static.MinDurationHours = 10
	p.Static.MaxDurationHours = 10
	p.Static.MinTimeBetweenShifts = 0
	p.Normalize()

	p.Dynamic.FixedShifts = []payload.FixedShift{
		{ShiftID: "s1", VehicleID: 0, StartDay: 0, StartHour: 0, StartMinute: 0, EndDay: 0, EndHour: 0, EndMinute: 15},
	}
	p.Normalize()

	issues := Validate(p)
	require.NotEmpty(t, issues)

	found := false
	for _, iss := range issues {
		if iss.Reason == ReasonDurationOutOfBounds {
			found = true
		}
	}
	require.True(t, found, "expected a duration_out_of_bounds issue, got %+v", issues)
}

func TestValidateRejectsDuplicateFixedShiftIDs(t *testing.T) {
	p := trivialPayload()
	p.Static.NumVehicles = 2
	p.Dynamic.FixedShifts = []payload.FixedShift{
		{ShiftID: "dup", VehicleID: 0, StartHour: 0, EndHour: 4},
		{ShiftID: "dup", VehicleID: 1, StartHour: 0, EndHour: 4},
	}
	p.Normalize()

	issues := Validate(p)
	found := false
	for _, iss := range issues {
		if iss.Reason == ReasonDuplicateID {
			found = true
		}
	}
	require.True(t, found)
}

func TestValidateRejectsOverlappingFixedShiftsSameVehicle(t *testing.T) {
	p := trivialPayload()
	p.Dynamic.FixedShifts = []payload.FixedShift{
		{ShiftID: "a", VehicleID: 0, StartHour: 0, EndHour: 3, EndMinute: 45},
		{ShiftID: "b", VehicleID: 0, StartHour: 2, EndHour: 5, EndMinute: 45},
	}
	p.Normalize()

	issues := Validate(p)
	found := false
	for _, iss := range issues {
		if iss.Reason == ReasonOverlap {
			found = true
		}
	}
	require.True(t, found)
}

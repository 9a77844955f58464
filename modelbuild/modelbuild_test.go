package modelbuild

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nextmv-community/shift-scheduler/payload"
	"github.com/nextmv-community/shift-scheduler/timeindex"
)

func trivialPayload() payload.Payload {
	p := payload.Payload{
		Static: payload.StaticConfig{
			NumHours:            24,
			NumVehicles:         2,
			MinDurationHours:    4,
			MaxDurationHours:    8,
			MaxStartsPerSlot:    2,
			MaxEndsPerSlot:      2,
			CostPerStep:         1,
			RevenuePerPassenger: 5,
		},
	}
	p.Normalize()
	p.Dynamic.Demand = map[int]int{}
	for _, t := range timeindex.Slots(24) {
		p.Dynamic.Demand[t] = 2
	}
	return p
}

func TestBuildVariablesAllocatesDenseRowMajorSlices(t *testing.T) {
	p := trivialPayload()
	sess := NewSession(p)
	sess.BuildVariables()

	n := sess.NumSlots * sess.NumVehicles
	require.Len(t, sess.State, n)
	require.Len(t, sess.Start, n)
	require.Len(t, sess.End, n)
	require.Len(t, sess.CumStart, n)
	require.Len(t, sess.CumEnd, n)
	require.Len(t, sess.CumEq, n)
	require.Len(t, sess.Completion, sess.NumSlots)
	require.Len(t, sess.Deficit, sess.NumSlots)

	for _, v := range sess.State {
		require.NotNil(t, v)
	}
}

func TestIndexIsBijectiveOverSlotVehicleGrid(t *testing.T) {
	p := trivialPayload()
	sess := NewSession(p)

	seen := make(map[int]bool)
	for tIdx := 0; tIdx < sess.NumSlots; tIdx++ {
		for v := 0; v < sess.NumVehicles; v++ {
			i := sess.Index(tIdx, v)
			require.False(t, seen[i], "index %d reused for (tIdx=%d,v=%d)", i, tIdx, v)
			seen[i] = true
		}
	}
	require.Len(t, seen, sess.NumSlots*sess.NumVehicles)
}

func TestDurationsSpansMinToMaxSteppedByStep(t *testing.T) {
	p := trivialPayload()
	sess := NewSession(p)

	durations := sess.durations()
	require.Equal(t, p.Static.MinDuration, durations[0])
	require.Equal(t, p.Static.MaxDuration, durations[len(durations)-1])
	for _, d := range durations {
		require.Zero(t, d%timeindex.Step)
	}
}

// Smoke-builds the full Variables -> Constraints -> Objective pipeline on
// a small payload; a panic here means a builder referenced a variable
// family before it was allocated, which structural review alone can miss.
func TestBuildPipelineDoesNotPanicOnTrivialPayload(t *testing.T) {
	p := trivialPayload()
	sess := NewSession(p)

	require.NotPanics(t, func() {
		sess.BuildVariables()
		sess.BuildConstraints()
		sess.BuildObjective()
	})
	require.True(t, sess.objectiveSet)
	require.NotEmpty(t, sess.objectiveTerms)
}

func TestObjectiveCutoffDoesNotGrowTermLedger(t *testing.T) {
	p := trivialPayload()
	sess := NewSession(p)
	sess.BuildVariables()
	sess.BuildConstraints()
	sess.BuildObjective()

	before := len(sess.objectiveTerms)
	c := sess.ObjectiveCutoff(10)
	require.NotNil(t, c)
	// Recording a cutoff must not itself grow the replay ledger -- it
	// only reads from it.
	require.Len(t, sess.objectiveTerms, before)
}

// buildKPIVariables must not panic when a slot's min_shifts value exceeds
// the vehicle count -- Session.Deficit's per-slot upper bound is widened
// to cover exactly that case.
func TestBuildVariablesHandlesMinShiftsExceedingVehicleCount(t *testing.T) {
	p := trivialPayload()
	p.Static.EnforceMinShift = true
	p.Dynamic.MinShifts = map[int]int{}
	for _, t := range timeindex.Slots(24) {
		p.Dynamic.MinShifts[t] = 0
	}
	busiest := timeindex.Slots(24)[5]
	p.Dynamic.MinShifts[busiest] = p.Static.NumVehicles + 3

	sess := NewSession(p)
	require.NotPanics(t, func() {
		sess.BuildVariables()
	})
}

package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nextmv-community/shift-scheduler/modelbuild"
	"github.com/nextmv-community/shift-scheduler/payload"
	"github.com/nextmv-community/shift-scheduler/timeindex"
)

// smallSolvablePayload is deliberately tiny: a single 4-hour horizon, one
// vehicle, one admissible shift length equal to the whole horizon, and
// demand the vehicle can fully satisfy. Small enough that HiGHS proves
// optimality within the first time slice.
func smallSolvablePayload() payload.Payload {
	p := payload.Payload{
		RunID: "test-run",
		Static: payload.StaticConfig{
			NumHours:            4,
			NumVehicles:         1,
			MinDurationHours:    4,
			MaxDurationHours:    4,
			MaxStartsPerSlot:    1,
			MaxEndsPerSlot:      1,
			CostPerStep:         1,
			RevenuePerPassenger: 100,
		},
	}
	p.Normalize()
	p.Dynamic.Demand = map[int]int{}
	for _, t := range timeindex.Slots(4) {
		p.Dynamic.Demand[t] = 1
	}
	return p
}

func buildSession(p payload.Payload) *modelbuild.Session {
	sess := modelbuild.NewSession(p)
	sess.BuildVariables()
	sess.BuildConstraints()
	sess.BuildObjective()
	return sess
}

// Scenario 6 of spec.md §8: cancellation observed before any round is run
// must return CANCELLED without ever invoking the solver.
func TestSolveReturnsCancelledOnAlreadyCancelledContext(t *testing.T) {
	p := smallSolvablePayload()
	sess := buildSession(p)
	obs := NewObserver(sess, p.RunID, "")
	driver := NewDriver(sess, obs, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := driver.Solve(ctx)
	require.NoError(t, err)
	require.Equal(t, payload.StatusCancelled, result.Status)
}

func TestSolveFindsOptimalScheduleOnTrivialInstance(t *testing.T) {
	p := smallSolvablePayload()
	sess := buildSession(p)
	obs := NewObserver(sess, p.RunID, "")

	sink := make(chan payload.ProgressEvent, 32)
	driver := NewDriver(sess, obs, sink)

	result, err := driver.Solve(context.Background())
	close(sink)

	require.NoError(t, err)
	require.Equal(t, payload.StatusOptimal, result.Status)
	require.Equal(t, result.RealScore-result.ConstraintPenalty, result.TotalScore)

	var events []payload.ProgressEvent
	for ev := range sink {
		events = append(events, ev)
	}
	require.NotEmpty(t, events)

	// Ordering guarantees of spec.md §5: step is monotonic, total_score
	// strictly increasing across emitted (non-final-duplicate) events.
	for i := 1; i < len(events); i++ {
		require.GreaterOrEqual(t, events[i].Step, events[i-1].Step)
		if events[i].StageID != payload.StageFinished {
			require.Greater(t, events[i].TotalScore, events[i-1].TotalScore)
		}
	}
}

func TestScheduleTableReportsOneIntervalPerRealizedShift(t *testing.T) {
	p := smallSolvablePayload()
	sess := buildSession(p)
	obs := NewObserver(sess, p.RunID, "")
	driver := NewDriver(sess, obs, nil)

	result, err := driver.Solve(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, result.Schedule)
	for _, shift := range result.Schedule {
		require.Less(t, shift.StartT, shift.EndT)
	}
}

package search

import (
	"github.com/nextmv-io/sdk/mip"

	"github.com/nextmv-community/shift-scheduler/modelbuild"
	"github.com/nextmv-community/shift-scheduler/payload"
	"github.com/nextmv-community/shift-scheduler/timeindex"
)

// Observer turns one mip.Solution into the payload shapes a host consumes:
// a ProgressEvent per spec.md §6 on every improving solution, and the
// terminal per-vehicle/per-slot aggregates of Result. It recomputes the
// real-score/soft-penalty split directly from the solution values rather
// than trusting solution.ObjectiveValue() alone, so the split stays exact
// even though the solver only ever reports the combined total.
type Observer struct {
	Session   *modelbuild.Session
	RunID     string
	StartTime string
}

// NewObserver builds an Observer bound to sess.
func NewObserver(sess *modelbuild.Session, runID, startTime string) *Observer {
	return &Observer{Session: sess, RunID: runID, StartTime: startTime}
}

// Emit builds the ProgressEvent for one improving solution at step. When
// final is true the event is stamped as the run's closing stage instead of
// an in-progress one.
func (o *Observer) Emit(solution mip.Solution, step int, final bool) payload.ProgressEvent {
	real, penalty := o.split(solution)

	ev := payload.ProgressEvent{
		RunID:             o.RunID,
		Step:              step,
		StageID:           payload.StageSearching,
		StageName:         "searching",
		TotalScore:        real - penalty,
		RealScore:         real,
		ConstraintPenalty: penalty,
		StartTime:         o.StartTime,
		Solution:          o.solutionTable(solution),
		Schedule:          o.scheduleTable(solution),
	}
	if final {
		ev.StageID = payload.StageFinished
		ev.StageName = "finished"
	}
	return ev
}

// split recomputes the real-score/penalty halves of spec.md §4.5 by
// re-evaluating the two parts of the objective separately, per §4.6's
// Observer contract: real_score is the hard operating result (revenue
// earned minus vehicle-hours cost), constraint_penalty is the cost of
// soft-overlay violations (rush-hour ends, minimum-shift deficits) --
// not a read of the model's own coefficients, since the solver only
// reports their combined total.
func (o *Observer) split(solution mip.Solution) (real, penalty int64) {
	sess := o.Session
	st := sess.Payload.Static
	dyn := sess.Payload.Dynamic

	for tIdx := range sess.Slots {
		real += round(float64(st.RevenuePerPassenger) * solution.Value(sess.Completion[tIdx]))

		for v := 0; v < sess.NumVehicles; v++ {
			real -= round(float64(st.CostPerStep) * solution.Value(sess.State[sess.Index(tIdx, v)]))
		}

		if minPenalty := st.MinShiftPenalty; minPenalty > 0 {
			penalty += round(float64(minPenalty) * solution.Value(sess.Deficit[tIdx]))
		}
	}

	if st.RushPenalty > 0 {
		for tIdx, t := range sess.Slots {
			if rush, ok := dyn.Rush[t]; !ok || !rush {
				continue
			}
			for v := 0; v < sess.NumVehicles; v++ {
				penalty += round(float64(st.RushPenalty) * solution.Value(sess.End[sess.Index(tIdx, v)]))
			}
		}
	}

	return real, penalty
}

// solutionTable reports, per slot, the realized vehicle/start/end counts
// plus the calendar breakdown and input demand/min_shifts -- the exact
// column set of spec.md §6's
// Table<time,vehicles,starts,ends,day,hour,minute,demand,min_shifts?>. The
// min_shifts column is present only when the run carries a minimum_shifts
// table, mirroring that input table's own optionality.
func (o *Observer) solutionTable(solution mip.Solution) payload.Table {
	sess := o.Session
	dyn := sess.Payload.Dynamic
	hasMinShifts := len(dyn.MinShifts) > 0

	columns := []string{"time", "vehicles", "starts", "ends", "day", "hour", "minute", "demand"}
	if hasMinShifts {
		columns = append(columns, "min_shifts")
	}
	t := payload.Table{Columns: columns}

	for tIdx, slot := range sess.Slots {
		vehicles, starts, ends := int64(0), int64(0), int64(0)
		for v := 0; v < sess.NumVehicles; v++ {
			i := sess.Index(tIdx, v)
			if solution.Value(sess.State[i]) > 0.5 {
				vehicles++
			}
			if solution.Value(sess.Start[i]) > 0.5 {
				starts++
			}
			if solution.Value(sess.End[i]) > 0.5 {
				ends++
			}
		}

		day, hour, minute := timeindex.FromT(slot)
		row := []int64{
			int64(slot), vehicles, starts, ends,
			int64(day), int64(hour), int64(minute),
			int64(dyn.Demand[slot]),
		}
		if hasMinShifts {
			row = append(row, int64(dyn.MinShifts[slot]))
		}
		t.Data = append(t.Data, row)
	}
	return t
}

// scheduleTable reports, per vehicle, the realized [start_time, end_time]
// intervals (end_time is the last active slot) -- spec.md §6's
// Table<vehicle,start_time,end_time>.
func (o *Observer) scheduleTable(solution mip.Solution) payload.Table {
	sess := o.Session
	t := payload.Table{Columns: []string{"vehicle", "start_time", "end_time"}}
	for v := 0; v < sess.NumVehicles; v++ {
		for _, shift := range o.vehicleShifts(solution, v) {
			t.Data = append(t.Data, []int64{int64(v), int64(shift.StartT), int64(shift.EndT)})
		}
	}
	return t
}

// vehicleShifts lists every realized [start, end] interval of vehicle v in
// solution (end is the last active slot), in chronological order.
func (o *Observer) vehicleShifts(solution mip.Solution, v int) []payload.VehicleShift {
	sess := o.Session
	var shifts []payload.VehicleShift
	openStart := -1
	for tIdx, slot := range sess.Slots {
		i := sess.Index(tIdx, v)
		if solution.Value(sess.Start[i]) > 0.5 {
			openStart = slot
		}
		if solution.Value(sess.End[i]) > 0.5 && openStart >= 0 {
			shifts = append(shifts, payload.VehicleShift{VehicleID: v, StartT: openStart, EndT: slot})
			openStart = -1
		}
	}
	return shifts
}

// allVehicleShifts flattens vehicleShifts across every vehicle, the shape
// Result.Schedule expects.
func (o *Observer) allVehicleShifts(solution mip.Solution) []payload.VehicleShift {
	var all []payload.VehicleShift
	for v := 0; v < o.Session.NumVehicles; v++ {
		all = append(all, o.vehicleShifts(solution, v)...)
	}
	return all
}

// activeVehicleCounts maps each slot to the number of vehicles active in
// it, the shape Result.ActiveVehicles expects.
func (o *Observer) activeVehicleCounts(solution mip.Solution) map[int]int {
	sess := o.Session
	counts := make(map[int]int, sess.NumSlots)
	for tIdx, slot := range sess.Slots {
		active := 0
		for v := 0; v < sess.NumVehicles; v++ {
			if solution.Value(sess.State[sess.Index(tIdx, v)]) > 0.5 {
				active++
			}
		}
		counts[slot] = active
	}
	return counts
}

// round converts a near-integral LP value to its nearest int64, guarding
// against the small floating-point slack HiGHS leaves on variables that
// are mathematically integral by construction (every binary and cumulative
// bookkeeping variable here, per spec.md §3).
func round(v float64) int64 {
	if v >= 0 {
		return int64(v + 0.5)
	}
	return int64(v - 0.5)
}

// Package search runs the improving-solution search of spec.md §4.6 on
// top of a mip.Solver that only ever returns a final answer for whatever
// time budget it is given. It recovers the incremental
// "emit every strictly-better solution as it's found" behavior of the
// original ortools.sat solution callback by slicing the search into
// bounded rounds and cutting the objective off below each new best before
// resolving -- see modelbuild.Session.ObjectiveCutoff.
package search

import (
	"context"
	"time"

	"github.com/nextmv-io/sdk/mip"

	"github.com/nextmv-community/shift-scheduler/modelbuild"
	"github.com/nextmv-community/shift-scheduler/payload"
)

// TimeSlice bounds a single solver round of the loop. Smaller slices
// surface progress sooner at the cost of re-solving from scratch more
// often; it is not exposed as a tunable because spec.md does not call
// for one, only for ctx-driven cancellation (§4.6, "Concurrency model").
const TimeSlice = 2 * time.Second

// Driver owns one run's solve-and-cut loop.
type Driver struct {
	Session  *modelbuild.Session
	Observer *Observer
	Sink     chan<- payload.ProgressEvent
}

// NewDriver builds a Driver over sess, reporting through obs and streaming
// ProgressEvents to sink. sink may be nil for a caller that only wants the
// terminal Result.
func NewDriver(sess *modelbuild.Session, obs *Observer, sink chan<- payload.ProgressEvent) *Driver {
	return &Driver{Session: sess, Observer: obs, Sink: sink}
}

// Solve runs the loop until one of: the solver proves optimality, the
// first round proves infeasibility, ctx is cancelled, or a round fails to
// improve on the best solution found so far (no solution within the
// cutoff, whether proven infeasible or out of time). The status is
// OPTIMAL only when the round that produced the best solution proved it
// optimal; otherwise a run with a solution ends FEASIBLE. It returns the
// terminal Result; ctx cancellation yields payload.StatusCancelled rather
// than an error, per spec.md §7 ("cancellation is not a failure").
func (d *Driver) Solve(ctx context.Context) (payload.Result, error) {
	solver, err := mip.NewSolver("highs", d.Session.Model)
	if err != nil {
		return payload.Result{}, err
	}

	var (
		best     mip.Solution
		bestVal  int64
		haveBest bool
		step     int
	)

	for {
		if ctx.Err() != nil {
			return d.finalize(best, haveBest, payload.StatusCancelled, step), nil
		}

		solution, err := d.solveOneSlice(solver)
		if err != nil {
			return payload.Result{}, err
		}

		if solution == nil || !solution.HasValues() {
			if !haveBest {
				return d.finalize(nil, false, payload.StatusInfeasible, step), nil
			}
			break
		}

		val := round(solution.ObjectiveValue())
		improved := !haveBest || val > bestVal
		if !improved {
			break
		}

		best, bestVal, haveBest = solution, val, true
		step++
		if d.Sink != nil {
			d.Sink <- d.Observer.Emit(solution, step, false)
		}

		if solution.IsOptimal() {
			break
		}

		d.Session.ObjectiveCutoff(bestVal)
	}

	status := payload.StatusFeasible
	if haveBest && best.IsOptimal() {
		status = payload.StatusOptimal
	}
	return d.finalize(best, haveBest, status, step), nil
}

// solveOneSlice runs one bounded round of the solve-and-cut loop.
//
// payload.Payload.NumWorkers (spec.md §6's num_workers) is deliberately
// not passed to mip.SolveOptions here: every SolveOptions call observed
// across the pack (mip.NewSolveOptions's SetMaximumDuration,
// SetMIPGapRelative, SetVerbosity -- see Order Fulfillment with MIP's
// solveOptions construction) exposes no worker-count or thread-count
// setter, unlike the original ortools.sat scheduler's
// solver.parameters.num_search_workers. There is no grounded call to make
// here; see DESIGN.md for the corpus-wide search that established this.
func (d *Driver) solveOneSlice(solver mip.Solver) (mip.Solution, error) {
	opts := mip.NewSolveOptions()
	if err := opts.SetMaximumDuration(TimeSlice); err != nil {
		return nil, err
	}
	if err := opts.SetMIPGapRelative(0); err != nil {
		return nil, err
	}
	opts.SetVerbosity(mip.Off)

	return solver.Solve(opts)
}

// finalize converts the best solution found (if any) into a terminal
// Result, and -- if a sink was provided -- emits one last ProgressEvent
// stamped with the finished stage.
func (d *Driver) finalize(best mip.Solution, haveBest bool, status payload.Status, step int) payload.Result {
	if !haveBest {
		return payload.Result{Status: status}
	}

	real, penalty := d.Observer.split(best)
	result := payload.Result{
		Status:            status,
		TotalScore:        real - penalty,
		RealScore:         real,
		ConstraintPenalty: penalty,
		ActiveVehicles:    d.Observer.activeVehicleCounts(best),
		Schedule:          d.Observer.allVehicleShifts(best),
	}

	if d.Sink != nil {
		d.Sink <- d.Observer.Emit(best, step, true)
	}

	return result
}

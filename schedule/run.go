// Package schedule is the entry point of the optimization core (spec.md
// §2): it wires timeindex, validate, modelbuild and search behind a
// single Run call, and owns the stage-transition bookkeeping of the
// progress event stream.
package schedule

import (
	"context"
	"fmt"
	"math"

	"github.com/nextmv-community/shift-scheduler/modelbuild"
	"github.com/nextmv-community/shift-scheduler/payload"
	"github.com/nextmv-community/shift-scheduler/search"
	"github.com/nextmv-community/shift-scheduler/validate"
)

// overflowGuard is the |objective| ceiling of spec.md §9: arithmetic
// beyond this is checked and raised as KindInternal rather than silently
// wrapping.
const overflowGuard = int64(1) << 62

// Run validates p, builds the optimization session, and drives the
// solve-and-cut search of package search to completion, streaming a
// payload.ProgressEvent to sink on every stage transition and every
// strictly-improving solution (spec.md §6). sink may be nil.
//
// Run's own control flow mirrors spec.md §2's pipeline exactly: Validator
// -> Variable Builder -> Constraint Builder -> Objective Builder -> Search
// Driver. Any failure at the Validator stage returns a *Error of
// KindInvalidInput before a single variable is created.
//
// p.NumWorkers is not read here or anywhere downstream of Normalize; see
// payload.Payload and search.Driver.solveOneSlice for why.
func Run(ctx context.Context, p payload.Payload, sink chan<- payload.ProgressEvent) (payload.Result, error) {
	p.Normalize()

	if issues := validate.Validate(p); len(issues) > 0 {
		emitStage(sink, p.RunID, payload.StageError, "error", "invalid input")
		return payload.Result{}, invalidInputError(issues)
	}

	emitStage(sink, p.RunID, payload.StageDefiningVariables, "defining_variables", "")
	sess := modelbuild.NewSession(p)
	sess.BuildVariables()

	emitStage(sink, p.RunID, payload.StageDefiningConstraints, "defining_constraints", "")
	sess.BuildConstraints()

	emitStage(sink, p.RunID, payload.StageConstructingObjective, "constructing_objective", "")
	sess.BuildObjective()

	emitStage(sink, p.RunID, payload.StageSearching, "searching", "")
	obs := search.NewObserver(sess, p.RunID, "")
	driver := search.NewDriver(sess, obs, sink)

	result, err := driver.Solve(ctx)
	if err != nil {
		emitStage(sink, p.RunID, payload.StageError, "error", err.Error())
		return payload.Result{}, internalError(fmt.Errorf("search: %w", err))
	}

	if result.Status == payload.StatusInfeasible {
		return payload.Result{}, &Error{Kind: KindInfeasible}
	}

	if err := checkOverflow(result); err != nil {
		emitStage(sink, p.RunID, payload.StageError, "error", err.Error())
		return payload.Result{}, internalError(err)
	}

	return result, nil
}

// checkOverflow enforces spec.md §7's overflow-checked arithmetic
// requirement on the three score fields a Result reports.
func checkOverflow(r payload.Result) error {
	for _, v := range []int64{r.TotalScore, r.RealScore, r.ConstraintPenalty} {
		if v > overflowGuard || v < -overflowGuard {
			return fmt.Errorf("objective value %d exceeds the %d-bit overflow guard", v, int(math.Log2(float64(overflowGuard)))+1)
		}
	}
	return nil
}

// emitStage sends a bare stage-transition event; sink may be nil, and a
// cancelled or full sink must never block Run (spec.md §5's backpressure
// clause), so the send is best-effort.
func emitStage(sink chan<- payload.ProgressEvent, runID string, stageID int, stageName, errMsg string) {
	if sink == nil {
		return
	}
	ev := payload.ProgressEvent{
		RunID:        runID,
		StageID:      stageID,
		StageName:    stageName,
		ErrorMessage: errMsg,
	}
	select {
	case sink <- ev:
	default:
	}
}

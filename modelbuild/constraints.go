package modelbuild

import (
	"github.com/nextmv-io/sdk/mip"

	"github.com/nextmv-community/shift-scheduler/timeindex"
)

// BuildConstraints encodes CB1-CB7 of spec.md §4.4 onto the model. Order
// of encoding does not matter to the solver; it is kept in spec order
// here for readability, one function per constraint, mirroring
// original_source/scheduler/constraints/*.py (one file per constraint)
// and the inline "/* constraint name */" blocks of the teacher's
// Order Fulfillment with MIP/main.go.
//
// CB3 and CB4 are reifications in the original ortools.sat encoding
// (Violated(...)=>..., AddMinEquality, ==) that have no primitive in a
// linear MIP model; they are translated here via the standard big-M /
// indicator linearizations used throughout the operations-research
// literature for turning a boolean implication into linear inequalities
// (M=1 where every variable involved is binary; the cum_eq link of CB4
// uses M=|T|, the range of the cumulative counts).
func (s *Session) BuildConstraints() {
	s.addAtLeastOneStart()       // CB1
	s.addStartEndBalance()       // CB2
	s.addShiftWellFormedness()   // CB3
	s.addCumulativeBookkeeping() // CB4
	s.addSlotBounds()            // CB5
	s.addMinimumGap()            // CB6
	s.addOperationalOverlays()   // CB7
	s.addCompletionAndDeficit()  // completion/deficit linkage, §3/§4.5
}

// CB1 — at least one start overall, preventing the degenerate
// empty-schedule optimum from swamping the solver when revenue cannot
// pay for any vehicle.
func (s *Session) addAtLeastOneStart() {
	c := s.Model.NewConstraint(mip.GreaterThanOrEqual, 1)
	for _, v := range s.Start {
		c.NewTerm(1, v)
	}
}

// CB2 — per vehicle, starts and ends balance.
func (s *Session) addStartEndBalance() {
	for v := 0; v < s.NumVehicles; v++ {
		c := s.Model.NewConstraint(mip.Equal, 0)
		for tIdx := 0; tIdx < s.NumSlots; tIdx++ {
			i := s.Index(tIdx, v)
			c.NewTerm(1, s.Start[i])
			c.NewTerm(-1, s.End[i])
		}
	}
}

// CB3 — the central linking constraint: a start must be matched by some
// admissible end, no other start/end may fall strictly between them,
// and every slot between them (inclusive) must be active.
func (s *Session) addShiftWellFormedness() {
	durations := s.durations()

	for v := 0; v < s.NumVehicles; v++ {
		for tIdx, t := range s.Slots {
			startVar := s.Start[s.Index(tIdx, v)]

			// start[t,v] = 1 => some admissible end exists.
			matchingEnds := s.Model.NewConstraint(mip.GreaterThanOrEqual, 0)
			matchingEnds.NewTerm(-1, startVar)

			horizon := timeindex.Horizon(s.Payload.Static.NumHours)
			for _, d := range durations {
				if t+d > horizon {
					continue
				}
				e := t + d - timeindex.Step // last active slot, spec.md §9(a): end inclusive
				eIdx := indexOfSlot(s.Slots, e)
				if eIdx < 0 {
					continue
				}

				endVar := s.End[s.Index(eIdx, v)]
				matchingEnds.NewTerm(1, endVar)

				// No internal starts/ends, and active throughout [t,e].
				for innerIdx := tIdx + 1; innerIdx < eIdx; innerIdx++ {
					innerStart := s.Start[s.Index(innerIdx, v)]
					innerEnd := s.End[s.Index(innerIdx, v)]

					noInnerStart := s.Model.NewConstraint(mip.LessThanOrEqual, 2)
					noInnerStart.NewTerm(1, startVar)
					noInnerStart.NewTerm(1, endVar)
					noInnerStart.NewTerm(1, innerStart)

					noInnerEnd := s.Model.NewConstraint(mip.LessThanOrEqual, 2)
					noInnerEnd.NewTerm(1, startVar)
					noInnerEnd.NewTerm(1, endVar)
					noInnerEnd.NewTerm(1, innerEnd)
				}

				for innerIdx := tIdx; innerIdx <= eIdx; innerIdx++ {
					activeVar := s.State[s.Index(innerIdx, v)]
					active := s.Model.NewConstraint(mip.GreaterThanOrEqual, -1)
					active.NewTerm(1, activeVar)
					active.NewTerm(-1, startVar)
					active.NewTerm(-1, endVar)
				}
			}
		}
	}
}

// CB4 — cumulative bookkeeping and the zero-outside-intervals rule.
func (s *Session) addCumulativeBookkeeping() {
	bigM := float64(s.NumSlots)

	for v := 0; v < s.NumVehicles; v++ {
		for tIdx := 0; tIdx < s.NumSlots; tIdx++ {
			i := s.Index(tIdx, v)

			// cum_start[t0,v] = start[t0,v]; cum_start[t,v] =
			// cum_start[t-step,v] + start[t,v] for t > t0. Same for
			// cum_end.
			cumStartDef := s.Model.NewConstraint(mip.Equal, 0)
			cumStartDef.NewTerm(1, s.CumStart[i])
			cumStartDef.NewTerm(-1, s.Start[i])
			if tIdx > 0 {
				cumStartDef.NewTerm(-1, s.CumStart[s.Index(tIdx-1, v)])
			}

			cumEndDef := s.Model.NewConstraint(mip.Equal, 0)
			cumEndDef.NewTerm(1, s.CumEnd[i])
			cumEndDef.NewTerm(-1, s.End[i])
			if tIdx > 0 {
				cumEndDef.NewTerm(-1, s.CumEnd[s.Index(tIdx-1, v)])
			}

			// cum_eq[t,v] = 1 => cum_start[t,v] == cum_end[t,v] via
			// the big-M pair below. The converse is
			// cum_start - cum_end + cum_eq >= 1: it also rules out more
			// ends than starts so far, so equal counts force cum_eq=1.
			eqConverse := s.Model.NewConstraint(mip.GreaterThanOrEqual, 1)
			eqConverse.NewTerm(1, s.CumStart[i])
			eqConverse.NewTerm(-1, s.CumEnd[i])
			eqConverse.NewTerm(1, s.CumEq[i])

			eqUpper := s.Model.NewConstraint(mip.LessThanOrEqual, bigM)
			eqUpper.NewTerm(1, s.CumStart[i])
			eqUpper.NewTerm(-1, s.CumEnd[i])
			eqUpper.NewTerm(bigM, s.CumEq[i])

			eqLower := s.Model.NewConstraint(mip.LessThanOrEqual, bigM)
			eqLower.NewTerm(-1, s.CumStart[i])
			eqLower.NewTerm(1, s.CumEnd[i])
			eqLower.NewTerm(bigM, s.CumEq[i])

			// cum_eq=1 AND end=0 => state=0, i.e.
			// state <= (1-cum_eq) + end.
			zeroOutside := s.Model.NewConstraint(mip.LessThanOrEqual, 1)
			zeroOutside.NewTerm(1, s.State[i])
			zeroOutside.NewTerm(1, s.CumEq[i])
			zeroOutside.NewTerm(-1, s.End[i])
		}
	}
}

// CB5 — bounded starts/ends per slot.
func (s *Session) addSlotBounds() {
	maxStarts := float64(s.Payload.Static.MaxStartsPerSlot)
	maxEnds := float64(s.Payload.Static.MaxEndsPerSlot)

	for tIdx := 0; tIdx < s.NumSlots; tIdx++ {
		startsAtSlot := s.Model.NewConstraint(mip.LessThanOrEqual, maxStarts)
		endsAtSlot := s.Model.NewConstraint(mip.LessThanOrEqual, maxEnds)
		for v := 0; v < s.NumVehicles; v++ {
			i := s.Index(tIdx, v)
			startsAtSlot.NewTerm(1, s.Start[i])
			endsAtSlot.NewTerm(1, s.End[i])
		}
	}
}

// CB6 — minimum gap between shifts: after an end at t, no start of the
// same vehicle may occur in [t, t+min_time_between_shifts] -- the end
// slot itself is busy (spec.md §4.4's parenthetical), so the next legal
// start is t+step when min_time_between_shifts=0, or
// t+step+min_time_between_shifts otherwise (spec.md §9, open question b).
func (s *Session) addMinimumGap() {
	gap := s.Payload.Static.MinTimeBetweenShifts
	step := timeindex.Step

	for v := 0; v < s.NumVehicles; v++ {
		for tIdx, t := range s.Slots {
			endVar := s.End[s.Index(tIdx, v)]
			for delta := 0; delta <= gap; delta += step {
				otherT := t + delta
				otherIdx := indexOfSlot(s.Slots, otherT)
				if otherIdx < 0 {
					break
				}
				c := s.Model.NewConstraint(mip.LessThanOrEqual, 1)
				c.NewTerm(1, endVar)
				c.NewTerm(1, s.Start[s.Index(otherIdx, v)])
			}
		}
	}
}

// CB7 — market hours, rush-hour hard mode, minimum-shifts hard mode, and
// fixed shifts. The overlay tables are known input data, not decision
// variables, so each rule is a direct equality or bound rather than a
// reified implication.
func (s *Session) addOperationalOverlays() {
	st := s.Payload.Static
	dyn := s.Payload.Dynamic

	if st.EnforceMarketHour {
		for tIdx, t := range s.Slots {
			if open, ok := dyn.MarketOpen[t]; ok && !open {
				for v := 0; v < s.NumVehicles; v++ {
					c := s.Model.NewConstraint(mip.Equal, 0)
					c.NewTerm(1, s.State[s.Index(tIdx, v)])
				}
			}
		}
	}

	if st.EnforceRushHour {
		for tIdx, t := range s.Slots {
			if rush, ok := dyn.Rush[t]; ok && rush {
				for v := 0; v < s.NumVehicles; v++ {
					c := s.Model.NewConstraint(mip.Equal, 0)
					c.NewTerm(1, s.End[s.Index(tIdx, v)])
				}
			}
		}
	}

	if st.EnforceMinShift {
		for tIdx, t := range s.Slots {
			min, ok := dyn.MinShifts[t]
			if !ok || min <= 0 {
				continue
			}
			c := s.Model.NewConstraint(mip.GreaterThanOrEqual, float64(min))
			for v := 0; v < s.NumVehicles; v++ {
				c.NewTerm(1, s.State[s.Index(tIdx, v)])
			}
		}
	}

	for _, fs := range dyn.FixedShifts {
		startIdx := indexOfSlot(s.Slots, fs.StartT)
		endIdx := indexOfSlot(s.Slots, fs.EndT)
		if startIdx < 0 || endIdx < 0 {
			continue
		}
		pinStart := s.Model.NewConstraint(mip.Equal, 1)
		pinStart.NewTerm(1, s.Start[s.Index(startIdx, fs.VehicleID)])

		pinEnd := s.Model.NewConstraint(mip.Equal, 1)
		pinEnd.NewTerm(1, s.End[s.Index(endIdx, fs.VehicleID)])
	}
}

// addCompletionAndDeficit wires the soft-constraint linkage variables of
// spec.md §3/§4.5: completion[t] = min(demand[t], sum_v state[t,v]) and
// deficit[t] = max(0, min_shifts[t] - sum_v state[t,v]). Both are the
// classical MIP linearization of min/max: bound the auxiliary variable
// on the correct side, and let the objective's own pressure (reward
// completion, penalize deficit) pull it to the tight value.
func (s *Session) addCompletionAndDeficit() {
	for tIdx, t := range s.Slots {
		demand := float64(s.Payload.Dynamic.Demand[t])

		completionLEDemand := s.Model.NewConstraint(mip.LessThanOrEqual, demand)
		completionLEDemand.NewTerm(1, s.Completion[tIdx])

		completionLESupply := s.Model.NewConstraint(mip.LessThanOrEqual, 0)
		completionLESupply.NewTerm(1, s.Completion[tIdx])
		for v := 0; v < s.NumVehicles; v++ {
			completionLESupply.NewTerm(-1, s.State[s.Index(tIdx, v)])
		}

		minShift := float64(s.Payload.Dynamic.MinShifts[t])
		deficitGEGap := s.Model.NewConstraint(mip.GreaterThanOrEqual, minShift)
		deficitGEGap.NewTerm(1, s.Deficit[tIdx])
		for v := 0; v < s.NumVehicles; v++ {
			deficitGEGap.NewTerm(1, s.State[s.Index(tIdx, v)])
		}
	}
}

// indexOfSlot returns the position of slot t within slots, or -1. Slots
// is always dense and ascending (timeindex.Slots), so this is an O(1)
// arithmetic lookup rather than a search.
func indexOfSlot(slots []int, t int) int {
	if len(slots) == 0 {
		return -1
	}
	if t < slots[0] || t > slots[len(slots)-1] {
		return -1
	}
	if (t-slots[0])%timeindex.Step != 0 {
		return -1
	}
	return (t - slots[0]) / timeindex.Step
}

package modelbuild

import "github.com/nextmv-io/sdk/mip"

// BuildVariables allocates the variable families of spec.md §3 (C3):
// state, start, end, the cumulative bookkeeping pair, the cum_eq
// indicator, and the per-slot completion/deficit KPI variables.
// Iteration is slot-major then vehicle-minor, deterministic and
// idempotent for a fresh Session, so branching stays reproducible
// across runs of the same input (spec.md §4.3).
func (s *Session) BuildVariables() {
	s.buildDecisionVariables()
	s.buildCumulativeVariables()
	s.buildKPIVariables()
}

// the three families below are built by separate functions to keep them
// visually distinct, matching the source's auxiliary.py convention of
// one define_* function per variable family.

func (s *Session) buildDecisionVariables() {
	n := s.NumSlots * s.NumVehicles
	s.State = make([]mip.Bool, n)
	s.Start = make([]mip.Bool, n)
	s.End = make([]mip.Bool, n)

	for tIdx := 0; tIdx < s.NumSlots; tIdx++ {
		for v := 0; v < s.NumVehicles; v++ {
			i := s.Index(tIdx, v)
			s.State[i] = s.Model.NewBool()
			s.Start[i] = s.Model.NewBool()
			s.End[i] = s.Model.NewBool()
		}
	}
}

func (s *Session) buildCumulativeVariables() {
	n := s.NumSlots * s.NumVehicles
	s.CumStart = make([]mip.Float, n)
	s.CumEnd = make([]mip.Float, n)
	s.CumEq = make([]mip.Bool, n)

	upper := float64(s.NumSlots)
	for tIdx := 0; tIdx < s.NumSlots; tIdx++ {
		for v := 0; v < s.NumVehicles; v++ {
			i := s.Index(tIdx, v)
			s.CumStart[i] = s.Model.NewFloat(0, upper)
			s.CumEnd[i] = s.Model.NewFloat(0, upper)
			s.CumEq[i] = s.Model.NewBool()
		}
	}
}

func (s *Session) buildKPIVariables() {
	s.Completion = make([]mip.Float, s.NumSlots)
	s.Deficit = make([]mip.Float, s.NumSlots)

	for tIdx, t := range s.Slots {
		s.Completion[tIdx] = s.Model.NewFloat(0, float64(s.NumVehicles))

		minShiftUpper := float64(s.NumVehicles)
		if ms, ok := s.Payload.Dynamic.MinShifts[t]; ok && float64(ms) > minShiftUpper {
			minShiftUpper = float64(ms)
		}
		s.Deficit[tIdx] = s.Model.NewFloat(0, minShiftUpper)
	}
}

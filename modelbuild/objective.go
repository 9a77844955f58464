package modelbuild

// BuildObjective encodes the linear objective of spec.md §4.5:
//
//	maximize sum_t [ completion[t]*revenue_per_passenger
//	                 - (sum_v state[t,v])*cost_per_step
//	                 - (sum_v end[t,v])*rush[t]*rush_penalty
//	                 - deficit[t]*min_shift_penalty ]
//
// rush[t] is known input data, not a decision variable, so the product
// rush[t]*rush_penalty collapses to a single coefficient applied to each
// end[t,v] term whenever rush[t]=1, and the term is omitted entirely
// when rush[t]=0 -- the whole expression stays linear in the decision
// variables, as spec.md §4.5 requires.
//
// Every term is additionally recorded via Session.addObjectiveTerm so
// package search can later splice an identical expression into a cutoff
// constraint (see Session.ObjectiveCutoff) to emulate an
// improving-solution callback on top of a solve-to-completion backend.
func (s *Session) BuildObjective() {
	s.Model.Objective().SetMaximize()

	st := s.Payload.Static
	dyn := s.Payload.Dynamic

	revenue := float64(st.RevenuePerPassenger)
	cost := float64(st.CostPerStep)
	rushPenalty := float64(st.RushPenalty)
	minShiftPenalty := float64(st.MinShiftPenalty)

	for tIdx, t := range s.Slots {
		s.addObjectiveTermFloat(revenue, s.Completion[tIdx])

		for v := 0; v < s.NumVehicles; v++ {
			s.addObjectiveTerm(-cost, s.State[s.Index(tIdx, v)])
		}

		// When EnforceRushHour is set, CB7 already fixes end[t,v]=0 in
		// rush slots, so this soft term is a dead zero there; harmless
		// to still add since rush_penalty then multiplies by zero.
		if rush, ok := dyn.Rush[t]; ok && rush && rushPenalty > 0 {
			for v := 0; v < s.NumVehicles; v++ {
				s.addObjectiveTerm(-rushPenalty, s.End[s.Index(tIdx, v)])
			}
		}

		if minShiftPenalty > 0 {
			s.addObjectiveTermFloat(-minShiftPenalty, s.Deficit[tIdx])
		}
	}

	s.objectiveSet = true
}

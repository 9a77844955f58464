// Package modelbuild owns the lifetime of one optimization session: the
// mip.Model plus every decision/bookkeeping variable family of spec.md
// §3, and the CB1-CB7 constraints and objective that tie them together.
// A Session is created fresh for each solve and handed by reference to
// the constraint and objective builders; it is never reused across runs
// (spec.md §3, "Ownership and lifecycle").
package modelbuild

import (
	"github.com/nextmv-io/sdk/mip"

	"github.com/nextmv-community/shift-scheduler/payload"
	"github.com/nextmv-community/shift-scheduler/timeindex"
)

// linearTerm replays one (coefficient, variable) pair onto any
// mip.Constraint. It lets the objective builder record its own terms
// once and later splice the identical linear expression into a cutoff
// constraint (see package search), without needing a shared "variable"
// interface type beyond what mip.Constraint.NewTerm already accepts.
type linearTerm func(c mip.Constraint)

// Session is the live state of one optimization run: the model, every
// variable family of spec.md §3 in dense row-major slices, and the
// parsed input it was built from.
type Session struct {
	Model mip.Model

	Payload     payload.Payload
	Slots       []int // T, ascending
	NumSlots    int
	NumVehicles int

	// Decision variables, indexed by Index(tIdx, v).
	State []mip.Bool
	Start []mip.Bool
	End   []mip.Bool

	// Cumulative bookkeeping, same indexing.
	CumStart []mip.Float
	CumEnd   []mip.Float
	CumEq    []mip.Bool

	// Per-slot KPI variables.
	Completion []mip.Float
	Deficit    []mip.Float

	objectiveTerms []linearTerm
	objectiveSet   bool
}

// Index maps a (slot index within Slots, vehicle) pair to the flat
// row-major offset used by every variable slice, per spec.md §9's
// design note: dense arrays instead of tuple-keyed maps.
func (s *Session) Index(tIdx, v int) int {
	return tIdx*s.NumVehicles + v
}

// NewSession allocates an empty session for p. Callers must call
// BuildVariables, then the constraint builders, then BuildObjective, in
// that order, mirroring the Validator -> Variable Builder -> Constraint
// Builder -> Objective Builder control flow of spec.md §2.
func NewSession(p payload.Payload) *Session {
	slots := timeindex.Slots(p.Static.NumHours)
	return &Session{
		Model:       mip.NewModel(),
		Payload:     p,
		Slots:       slots,
		NumSlots:    len(slots),
		NumVehicles: p.Static.NumVehicles,
	}
}

// addObjectiveTerm both adds a term to the model's objective and records
// it for later cutoff-constraint replay (see package search).
func (s *Session) addObjectiveTerm(coef float64, v mip.Bool) {
	s.Model.Objective().NewTerm(coef, v)
	s.objectiveTerms = append(s.objectiveTerms, func(c mip.Constraint) { c.NewTerm(coef, v) })
}

func (s *Session) addObjectiveTermFloat(coef float64, v mip.Float) {
	s.Model.Objective().NewTerm(coef, v)
	s.objectiveTerms = append(s.objectiveTerms, func(c mip.Constraint) { c.NewTerm(coef, v) })
}

// ObjectiveCutoff adds a new constraint requiring the session's linear
// objective expression to strictly exceed best, by replaying every term
// recorded during BuildObjective. This is how package search emulates an
// improving-solution callback on top of a solver that only returns a
// final answer: solve, read the objective, cut it off, resolve.
func (s *Session) ObjectiveCutoff(best int64) mip.Constraint {
	c := s.Model.NewConstraint(mip.GreaterThanOrEqual, float64(best)+1)
	for _, term := range s.objectiveTerms {
		term(c)
	}
	return c
}

// durations returns every admissible shift duration, in minutes, per
// spec.md §3: multiples of Step in [min_duration, max_duration].
func (s *Session) durations() []int {
	s_ := s.Payload.Static
	var out []int
	for d := s_.MinDuration; d <= s_.MaxDuration; d += timeindex.Step {
		out = append(out, d)
	}
	return out
}

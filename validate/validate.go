// Package validate rejects malformed scheduling payloads before any
// decision variable is created, per spec.md §4.2. It collects every
// issue it finds instead of stopping at the first one, the same
// accumulate-then-report idiom the source scheduler used for fixed-shift
// validation (original_source/scheduler/utils.py
// validate_fixed_shifts_input), generalized here to the whole payload.
package validate

import (
	"fmt"

	"github.com/nextmv-community/shift-scheduler/payload"
	"github.com/nextmv-community/shift-scheduler/timeindex"
)

// Reason classifies why an Issue was raised, richer than a bare message
// so a caller can branch on it (SPEC_FULL §8 supplemented feature).
type Reason string

const (
	ReasonMissingSlot         Reason = "missing_slot"
	ReasonOutOfRange          Reason = "out_of_range"
	ReasonMisalignedBoundary  Reason = "misaligned_boundary"
	ReasonDurationOutOfBounds Reason = "duration_out_of_bounds"
	ReasonVehicleOutOfRange   Reason = "vehicle_out_of_range"
	ReasonOverlap             Reason = "overlap"
	ReasonDuplicateID         Reason = "duplicate_id"
	ReasonNonPositive         Reason = "non_positive"
)

// Issue is one validation failure.
type Issue struct {
	Reason Reason
	Field  string
	Detail string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Field, i.Detail, i.Reason)
}

func issue(reason Reason, field, detail string, args ...any) Issue {
	return Issue{Reason: reason, Field: field, Detail: fmt.Sprintf(detail, args...)}
}

// Validate checks payload against every rule in spec.md §4.2 and returns
// every issue found. A nil/empty result means the payload is safe to
// hand to the variable builder.
func Validate(p payload.Payload) []Issue {
	var issues []Issue

	s := p.Static
	slots := timeindex.Slots(s.NumHours)

	if s.NumVehicles < 1 {
		issues = append(issues, issue(ReasonNonPositive, "static.num_vehicles", "must be >= 1, got %d", s.NumVehicles))
	}
	if s.MinDuration <= 0 || s.MaxDuration <= 0 {
		issues = append(issues, issue(ReasonNonPositive, "static.duration", "min/max duration must be > 0"))
	}
	if s.MinDuration > s.MaxDuration {
		issues = append(issues, issue(ReasonDurationOutOfBounds, "static.duration", "min_duration (%d) must be <= max_duration (%d)", s.MinDuration, s.MaxDuration))
	}
	if s.MinDuration%timeindex.Step != 0 || s.MaxDuration%timeindex.Step != 0 {
		issues = append(issues, issue(ReasonMisalignedBoundary, "static.duration", "min/max duration must be multiples of %d minutes", timeindex.Step))
	}
	horizon := timeindex.Horizon(s.NumHours)
	if s.MaxDuration > horizon {
		issues = append(issues, issue(ReasonOutOfRange, "static.max_duration", "max_duration (%d) exceeds horizon (%d)", s.MaxDuration, horizon))
	}
	if s.MaxStartsPerSlot < 0 || s.MaxEndsPerSlot < 0 {
		issues = append(issues, issue(ReasonNonPositive, "static.max_starts_ends", "must be >= 0"))
	}
	if s.MinTimeBetweenShifts < 0 || s.MinTimeBetweenShifts%timeindex.Step != 0 {
		issues = append(issues, issue(ReasonMisalignedBoundary, "static.min_time_between_shifts", "must be a nonnegative multiple of %d", timeindex.Step))
	}
	if s.RushPenalty < 0 || s.MinShiftPenalty < 0 {
		issues = append(issues, issue(ReasonNonPositive, "static.soft_penalties", "penalties must be >= 0"))
	}

	issues = append(issues, validateTotalCoverage(p.Dynamic.Demand, slots, "dynamic.demand_forecast")...)
	if len(p.Dynamic.MinShifts) > 0 {
		issues = append(issues, validateTotalCoverage(p.Dynamic.MinShifts, slots, "dynamic.minimum_shifts")...)
	}
	if len(p.Dynamic.Rush) > 0 {
		issues = append(issues, validateBoolCoverage(p.Dynamic.Rush, slots, "dynamic.rush_hours")...)
	}
	if len(p.Dynamic.MarketOpen) > 0 {
		issues = append(issues, validateBoolCoverage(p.Dynamic.MarketOpen, slots, "dynamic.market_hours")...)
	}

	for slot, demand := range p.Dynamic.Demand {
		if demand < 0 {
			issues = append(issues, issue(ReasonNonPositive, "dynamic.demand_forecast", "demand at slot %d must be >= 0, got %d", slot, demand))
		}
	}

	issues = append(issues, validateFixedShifts(p)...)

	return issues
}

func validateTotalCoverage(table map[int]int, slots []int, field string) []Issue {
	var issues []Issue
	for _, t := range slots {
		if _, ok := table[t]; !ok {
			issues = append(issues, issue(ReasonMissingSlot, field, "missing value for slot %d", t))
		}
	}
	return issues
}

func validateBoolCoverage(table map[int]bool, slots []int, field string) []Issue {
	var issues []Issue
	for _, t := range slots {
		if _, ok := table[t]; !ok {
			issues = append(issues, issue(ReasonMissingSlot, field, "missing value for slot %d", t))
		}
	}
	return issues
}

// validateFixedShifts ports original_source/scheduler/utils.py's
// validate_fixed_shifts_input rule-for-rule: unique ids, vehicle id in
// range, end > start, duration in [min,max], step-aligned boundaries, no
// two fixed shifts of the same vehicle overlap, and the distinct-vehicle
// count does not exceed num_vehicles.
func validateFixedShifts(p payload.Payload) []Issue {
	var issues []Issue
	s := p.Static
	seenIDs := make(map[string]bool)
	byVehicle := make(map[int][][2]int)

	for _, fs := range p.Dynamic.FixedShifts {
		if seenIDs[fs.ShiftID] {
			issues = append(issues, issue(ReasonDuplicateID, "dynamic.fixed_shifts", "duplicate shift id %q", fs.ShiftID))
		}
		seenIDs[fs.ShiftID] = true

		if fs.VehicleID < 0 || fs.VehicleID >= s.NumVehicles {
			issues = append(issues, issue(ReasonVehicleOutOfRange, "dynamic.fixed_shifts", "shift %q references vehicle %d outside [0,%d)", fs.ShiftID, fs.VehicleID, s.NumVehicles))
			continue
		}

		if fs.EndT <= fs.StartT {
			issues = append(issues, issue(ReasonDurationOutOfBounds, "dynamic.fixed_shifts", "shift %q end_t must be after start_t", fs.ShiftID))
			continue
		}
		if !timeindex.Aligned(fs.StartT) || !timeindex.Aligned(fs.EndT) {
			issues = append(issues, issue(ReasonMisalignedBoundary, "dynamic.fixed_shifts", "shift %q boundaries must align to %d minutes", fs.ShiftID, timeindex.Step))
			continue
		}

		duration := fs.EndT - fs.StartT + timeindex.Step
		if duration < s.MinDuration || duration > s.MaxDuration {
			issues = append(issues, issue(ReasonDurationOutOfBounds, "dynamic.fixed_shifts", "shift %q duration %d outside [%d,%d]", fs.ShiftID, duration, s.MinDuration, s.MaxDuration))
			continue
		}

		byVehicle[fs.VehicleID] = append(byVehicle[fs.VehicleID], [2]int{fs.StartT, fs.EndT})
	}

	for vehicle, intervals := range byVehicle {
		for i := 0; i < len(intervals); i++ {
			for j := i + 1; j < len(intervals); j++ {
				a, b := intervals[i], intervals[j]
				if a[0] <= b[1] && b[0] <= a[1] {
					issues = append(issues, issue(ReasonOverlap, "dynamic.fixed_shifts", "vehicle %d has overlapping fixed shifts", vehicle))
				}
			}
		}
	}

	return issues
}

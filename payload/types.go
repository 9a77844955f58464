// Package payload owns the wire-level input/output shapes shared across
// the optimization core (spec.md §6): the canonical Payload a run is
// built from, the ProgressEvent stream it emits, and the Result it
// terminates with. Kept separate from package schedule so that
// validate and modelbuild can depend on these types without creating
// an import cycle back through the orchestrator.
package payload

// StaticConfig holds the immutable-per-run parameters of spec.md §3.
// Field names mirror the canonical payload shape of spec.md §6; Duration
// fields arrive in hours from the wire and are normalized to minutes by
// Payload.Normalize.
type StaticConfig struct {
	NumHours    int `json:"num_hours"`
	NumVehicles int `json:"num_vehicles"`

	MinDurationHours int `json:"min_duration"`
	MaxDurationHours int `json:"max_duration"`

	CostPerStep         int `json:"cost_vehicle_per_15min"`
	RevenuePerPassenger int `json:"revenue_passenger"`

	MaxStartsPerSlot int `json:"max_starts_per_slot"`
	MaxEndsPerSlot   int `json:"max_ends_per_slot"`

	EnforceRushHour   bool `json:"enable_rush_hour_constraint"`
	EnforceMarketHour bool `json:"enable_market_hour_constraint"`
	EnforceMinShift   bool `json:"enable_min_shift_constraint"`

	RushPenalty     int `json:"rush_hour_soft_constraint_cost"`
	MinShiftPenalty int `json:"minimum_shifts_soft_constraint_cost"`

	MinTimeBetweenShifts int `json:"min_time_between_shifts"`

	// MinDuration and MaxDuration are populated by Normalize, in minutes.
	MinDuration int `json:"-"`
	MaxDuration int `json:"-"`
}

// FixedShift pins one vehicle to a known shift boundary (spec.md §3,
// DynamicInputs.fixed_shifts).
type FixedShift struct {
	ShiftID   string `json:"shift_id"`
	VehicleID int    `json:"vehicle"`
	StartT    int    `json:"-"`
	EndT      int    `json:"-"`

	StartDay    int `json:"sday"`
	StartHour   int `json:"shour"`
	StartMinute int `json:"sminute"`
	EndDay      int `json:"eday"`
	EndHour     int `json:"ehour"`
	EndMinute   int `json:"eminute"`
}

// DynamicInputs holds the per-run sparse tables of spec.md §3. The maps
// are keyed by the flat slot index t, matching the normalized
// representation every other package consumes.
type DynamicInputs struct {
	Demand      map[int]int  `json:"-"`
	MarketOpen  map[int]bool `json:"-"`
	Rush        map[int]bool `json:"-"`
	MinShifts   map[int]int  `json:"-"`
	FixedShifts []FixedShift `json:"fixed_shifts,omitempty"`

	// Wire-format tables, row-oriented as described in spec.md §6.
	DemandForecast Table `json:"demand_forecast"`
	MinimumShifts  Table `json:"minimum_shifts,omitempty"`
	RushHours      Table `json:"rush_hours,omitempty"`
	MarketHours    Table `json:"market_hours,omitempty"`
}

// Table is a row-oriented data table as described by spec.md §6: named
// columns, and integer data rows in the same column order.
type Table struct {
	Columns []string  `json:"columns"`
	Index   []int     `json:"index,omitempty"`
	Data    [][]int64 `json:"data"`
}

// Payload is the canonical input shape of spec.md §6.
//
// NumWorkers is accepted on the wire but not currently wired to the
// solver: mip.SolveOptions exposes no worker/thread-count setter
// anywhere it is used in the pack (see search.Driver.solveOneSlice and
// DESIGN.md).
type Payload struct {
	RunID      string        `json:"run_id"`
	NumWorkers int           `json:"num_workers"`
	Static     StaticConfig  `json:"static"`
	Dynamic    DynamicInputs `json:"dynamic"`
}

// ProgressEvent is emitted on each strictly-improving solution (spec.md
// §6). SolutionTable and ScheduleTable follow the same row-oriented Table
// shape as the input tables.
type ProgressEvent struct {
	RunID     string `json:"run_id"`
	Step      int    `json:"step"`
	StageID   int    `json:"stage_id"`
	StageName string `json:"stage_name"`

	TotalScore        int64 `json:"total_score"`
	RealScore         int64 `json:"real_score"`
	ConstraintPenalty int64 `json:"constraint_penalty"`

	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	Solution Table `json:"solution"`
	Schedule Table `json:"schedule"`
}

// Stage ids, spec.md §6.
const (
	StageIdle                  = 0
	StageDefiningVariables     = 1
	StageDefiningConstraints   = 2
	StageConstructingObjective = 3
	StageSearching             = 4
	StageFinished              = 5
	StageError                 = -1
)

// VehicleShift is one entry of a per-vehicle start/end timetable.
type VehicleShift struct {
	VehicleID int
	StartT    int
	EndT      int
}

// Result is the outcome of a completed Run: the terminal status plus the
// best solution found, if any.
type Result struct {
	Status            Status
	TotalScore        int64
	RealScore         int64
	ConstraintPenalty int64
	ActiveVehicles    map[int]int // slot -> count of active vehicles
	Schedule          []VehicleShift
}

// Status is the terminal outcome of a run (spec.md §4.6, §7).
type Status string

const (
	StatusOptimal    Status = "OPTIMAL"
	StatusFeasible   Status = "FEASIBLE"
	StatusInfeasible Status = "INFEASIBLE"
	StatusCancelled  Status = "CANCELLED"
)

package payload

import "github.com/nextmv-community/shift-scheduler/timeindex"

// Normalize parses the wire-format Tables and hour-granularity fields of
// a Payload into the flat slot-indexed representation every other
// package consumes (spec.md §9 design note: parse once into the
// normalized Time-Model representation at the start of a run, instead of
// re-parsing the same serialized tables on every access like the source
// scheduler did).
func (p *Payload) Normalize() {
	s := &p.Static
	s.MinDuration = s.MinDurationHours * timeindex.MinutesPerHour
	s.MaxDuration = s.MaxDurationHours * timeindex.MinutesPerHour

	d := &p.Dynamic
	d.Demand = tableToIntMap(d.DemandForecast)
	d.MinShifts = tableToIntMap(d.MinimumShifts)
	d.Rush = tableToBoolMap(d.RushHours)
	d.MarketOpen = tableToBoolMap(d.MarketHours)

	for i := range d.FixedShifts {
		fs := &d.FixedShifts[i]
		fs.StartT = timeindex.ToT(fs.StartDay, fs.StartHour, fs.StartMinute)
		fs.EndT = timeindex.ToT(fs.EndDay, fs.EndHour, fs.EndMinute)
	}
}

// tableToIntMap reads a Table whose columns are (day, hour, minute,
// value), or (value) keyed by a pre-supplied Index, and returns a
// slot-indexed map. The value is always taken from the last column. Either shape is accepted: when the table carries
// day/hour/minute columns they are converted via timeindex.ToT; when it
// carries a plain Index of already-flat slot numbers, that is used
// directly. This mirrors the two representations seen across the
// source's CSV tables (day/hour/minute columns) and its JSON-serialized
// dataframes (a row Index).
func tableToIntMap(t Table) map[int]int {
	if len(t.Data) == 0 {
		return map[int]int{}
	}
	out := make(map[int]int, len(t.Data))
	dayCol, hourCol, minuteCol, valueCol := columnPositions(t.Columns)
	for i, row := range t.Data {
		var slot int
		if dayCol >= 0 {
			slot = timeindex.ToT(int(row[dayCol]), int(row[hourCol]), int(row[minuteCol]))
		} else if len(t.Index) == len(t.Data) {
			slot = t.Index[i]
		}
		out[slot] = int(row[valueCol])
	}
	return out
}

func tableToBoolMap(t Table) map[int]bool {
	ints := tableToIntMap(t)
	out := make(map[int]bool, len(ints))
	for slot, v := range ints {
		out[slot] = v != 0
	}
	return out
}

// columnPositions locates the day/hour/minute/value columns within a
// Table's column header, returning -1 for day/hour/minute when the table
// has no such columns (flat-indexed tables instead).
func columnPositions(columns []string) (day, hour, minute, value int) {
	day, hour, minute, value = -1, -1, -1, len(columns)-1
	for i, c := range columns {
		switch c {
		case "day":
			day = i
		case "hour":
			hour = i
		case "minute":
			minute = i
		}
	}
	return day, hour, minute, value
}

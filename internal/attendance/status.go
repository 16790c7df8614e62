package attendance

import "time"

// Status is the attendance label derived for a single day's record.
type Status string

const (
	StatusLeave   Status = "Leave"
	StatusAbsent  Status = "Absent"
	StatusPresent Status = "Present"
	StatusHalfDay Status = "Half-day"
	StatusNoShow  Status = "No show"
)

// Punctuality labels a check-in relative to the shift start.
type Punctuality string

const (
	PunctualityNone Punctuality = "-"
	OnTime          Punctuality = "On-time"
	Late            Punctuality = "Late"
	Early           Punctuality = "Early"
)

// Policy is the shift configuration the classifiers run against.
type Policy struct {
	ShiftHours float64
	ShiftStart string
	// OnTimeTolerance widens On-time to start±tolerance. Zero means the
	// check-in must match the shift start to the second.
	OnTimeTolerance time.Duration
}

// DefaultPolicy is a nine hour shift starting at 09:00:00 with no tolerance.
func DefaultPolicy() Policy {
	return Policy{ShiftHours: 9, ShiftStart: "09:00:00"}
}

// Classify maps a record to its attendance status. Rules are evaluated in
// order and the first match wins.
func (p Policy) Classify(r Record) Status {
	if r.Leave {
		return StatusLeave
	}
	if r.CheckInTime == "" && r.CheckOutTime == "" {
		return StatusAbsent
	}

	worked := WorkingHours(r.CheckInTime, r.CheckOutTime)
	full := p.ShiftHours
	switch {
	case worked >= full:
		return StatusPresent
	case worked >= full/2:
		return StatusHalfDay
	case worked > 0:
		return StatusNoShow
	}
	return StatusAbsent
}

// Punctuality compares a check-in time with the shift start.
func (p Policy) Punctuality(checkIn string) Punctuality {
	in, ok := ParseClock(checkIn)
	if !ok {
		return PunctualityNone
	}
	start := TimeToSeconds(p.ShiftStart)
	tol := int(p.OnTimeTolerance / time.Second)

	switch {
	case in > start+tol:
		return Late
	case in < start-tol:
		return Early
	}
	return OnTime
}

// ShiftLabel renders the shift window, e.g. "09:00:00 - 18:00:00".
func (p Policy) ShiftLabel() string {
	start := TimeToSeconds(p.ShiftStart)
	end := start + int(p.ShiftHours*3600)
	return formatClock(start) + " - " + formatClock(end)
}

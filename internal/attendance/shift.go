package attendance

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FlexibleShift is the all-day shift label.
const FlexibleShift = "Flexible"

// PredefinedShifts are the shifts an admin can assign from the schedule screen.
var PredefinedShifts = []string{
	"9:00 AM - 6:00 PM",
	"8:00 AM - 5:00 PM",
	"8:00 AM - 1:00 PM",
	"1:00 PM - 5:00 PM",
	"10:00 AM - 7:00 PM",
	"12:00 PM - 8:00 PM",
	"6:00 AM - 2:00 PM",
	FlexibleShift,
}

// Shift is a parsed shift label with 24h "HH:MM" bounds.
type Shift struct {
	Label    string
	Start    string
	End      string
	Flexible bool
}

// ConvertTo24Hour turns "9:30 PM" into "21:30". "9 PM" is read as "9:00 PM"
// and 12 AM maps to 00.
func ConvertTo24Hour(s string) (string, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return "", fmt.Errorf("attendance: time %q needs an AM/PM suffix", s)
	}
	clock, modifier := fields[0], strings.ToUpper(fields[1])
	if modifier != "AM" && modifier != "PM" {
		return "", fmt.Errorf("attendance: time %q needs an AM/PM suffix", s)
	}

	hh, mm, found := strings.Cut(clock, ":")
	if !found {
		mm = "00"
	}
	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 1 || hours > 12 {
		return "", fmt.Errorf("attendance: bad hour in %q", s)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 59 {
		return "", fmt.Errorf("attendance: bad minutes in %q", s)
	}

	switch {
	case hours == 12 && modifier == "AM":
		hours = 0
	case hours != 12 && modifier == "PM":
		hours += 12
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes), nil
}

// ParseShift parses "9:00 AM - 6:00 PM" or "Flexible".
func ParseShift(label string) (Shift, error) {
	label = strings.TrimSpace(label)
	if label == FlexibleShift {
		return Shift{Label: label, Flexible: true}, nil
	}
	startStr, endStr, ok := strings.Cut(label, " - ")
	if !ok {
		return Shift{}, fmt.Errorf("attendance: shift %q is not \"start - end\"", label)
	}
	start, err := ConvertTo24Hour(startStr)
	if err != nil {
		return Shift{}, err
	}
	end, err := ConvertTo24Hour(endStr)
	if err != nil {
		return Shift{}, err
	}
	return Shift{Label: label, Start: start, End: end}, nil
}

// Assignment assigns a shift to an employee on a date.
type Assignment struct {
	EmployeeID int64  `json:"employeeId"`
	Date       string `json:"date"`
	Shift      string `json:"shift"`
}

// Validate checks the date format and that the shift is predefined.
func (a Assignment) Validate() error {
	if a.EmployeeID <= 0 {
		return fmt.Errorf("attendance: employeeId must be positive")
	}
	if !ValidDate(a.Date) {
		return ErrInvalidDate
	}
	for _, s := range PredefinedShifts {
		if s == a.Shift {
			return nil
		}
	}
	return ErrInvalidShift
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// CalendarEvent is one entry on the shift calendar.
type CalendarEvent struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Start  string `json:"start"`
	End    string `json:"end,omitempty"`
	AllDay bool   `json:"allDay"`
}

// ShiftEvents expands date -> shift labels into calendar events ordered by
// date. Flexible and non-text shifts are all-day. Labels that do not parse
// are dropped.
func ShiftEvents(assignments map[string][]string) []CalendarEvent {
	dates := make([]string, 0, len(assignments))
	for d := range assignments {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	events := []CalendarEvent{}
	for _, date := range dates {
		for i, label := range assignments[date] {
			id := fmt.Sprintf("%s-%d", date, i)
			sh, err := ParseShift(label)
			switch {
			case label == "" || (err == nil && sh.Flexible):
				events = append(events, CalendarEvent{ID: id, Title: FlexibleShift, Start: date, AllDay: true})
			case err != nil:
				continue
			default:
				events = append(events, CalendarEvent{
					ID:    id,
					Title: label,
					Start: date + "T" + sh.Start + ":00",
					End:   date + "T" + sh.End + ":00",
				})
			}
		}
	}
	return events
}

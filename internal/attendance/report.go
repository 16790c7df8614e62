package attendance

// PresentEntry is a day's record joined with the employee name.
type PresentEntry struct {
	Record
	EmployeeName string `json:"employeeName"`
}

// DailyReport summarises one day against the full roster.
//
// PresentCount counts attendance records, so anyone with a record is present
// here even when Classify would label them Half-day, No show or Absent.
// StatusBreakdown carries the per-record classification for comparison.
type DailyReport struct {
	Date            string         `json:"date"`
	TotalCount      int            `json:"totalCount"`
	PresentCount    int            `json:"presentCount"`
	AbsentCount     int            `json:"absentCount"`
	PresentPercent  float64        `json:"presentPercent"`
	AbsentList      []Employee     `json:"absentList"`
	Present         []PresentEntry `json:"present"`
	StatusBreakdown map[Status]int `json:"statusBreakdown"`
}

// Aggregate derives present and absent counts for a day's records.
func Aggregate(roster []Employee, records []Record) DailyReport {
	return PolicySet{Default: DefaultPolicy()}.Aggregate(roster, records)
}

// Aggregate is like the package level Aggregate but classifies each record
// with the policy of the employee's role.
func (ps PolicySet) Aggregate(roster []Employee, records []Record) DailyReport {
	byID := make(map[int64]Employee, len(roster))
	for _, e := range roster {
		byID[e.ID] = e
	}

	rep := DailyReport{
		TotalCount:      len(roster),
		PresentCount:    len(records),
		AbsentList:      []Employee{},
		Present:         make([]PresentEntry, 0, len(records)),
		StatusBreakdown: make(map[Status]int),
	}

	seen := make(map[int64]struct{}, len(records))
	for _, r := range records {
		seen[r.EmployeeID] = struct{}{}

		name := "Unknown"
		emp, ok := byID[r.EmployeeID]
		if ok && emp.Name != "" {
			name = emp.Name
		}
		rep.Present = append(rep.Present, PresentEntry{Record: r, EmployeeName: name})
		rep.StatusBreakdown[ps.For(emp.Role).Classify(r)]++
		if rep.Date == "" {
			rep.Date = r.Date
		}
	}

	for _, e := range roster {
		if _, ok := seen[e.ID]; !ok {
			rep.AbsentList = append(rep.AbsentList, e.Public())
		}
	}
	rep.AbsentCount = len(rep.AbsentList)

	if rep.TotalCount > 0 {
		rep.PresentPercent = float64(rep.PresentCount) * 100 / float64(rep.TotalCount)
	}
	return rep
}

package attendance

// Row is one line of the attendance tracker table.
type Row struct {
	ID               int64       `json:"id"`
	EmployeeID       string      `json:"employeeId"`
	EmployeeName     string      `json:"employeeName"`
	Date             string      `json:"date"`
	ShiftTime        string      `json:"shiftTime"`
	CheckInTime      string      `json:"checkInTime"`
	CheckOutTime     string      `json:"checkOutTime"`
	WorkingHours     float64     `json:"workingHours"`
	AttendanceStatus Status      `json:"attendanceStatus"`
	OnTimeStatus     Punctuality `json:"onTimeStatus"`
}

// BuildRows derives the tracker rows for a day. Employees missing from the
// roster are classified with the default policy.
func BuildRows(records []Record, roster []Employee, ps PolicySet) []Row {
	byID := make(map[int64]Employee, len(roster))
	for _, e := range roster {
		byID[e.ID] = e
	}

	rows := make([]Row, 0, len(records))
	for _, r := range records {
		emp := byID[r.EmployeeID]
		p := ps.For(emp.Role)
		rows = append(rows, Row{
			ID:               r.ID,
			EmployeeID:       FormatEmployeeID(r.EmployeeID),
			EmployeeName:     emp.Name,
			Date:             r.Date,
			ShiftTime:        p.ShiftLabel(),
			CheckInTime:      orDash(r.CheckInTime),
			CheckOutTime:     orDash(r.CheckOutTime),
			WorkingHours:     WorkingHours(r.CheckInTime, r.CheckOutTime),
			AttendanceStatus: p.Classify(r),
			OnTimeStatus:     p.Punctuality(r.CheckInTime),
		})
	}
	return rows
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package attendance

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Record is one employee's attendance for a single day as served by the backend.
// Absent timestamps are empty strings.
type Record struct {
	ID           int64  `json:"id"`
	EmployeeID   int64  `json:"employeeId"`
	Date         string `json:"date"`
	CheckInTime  string `json:"checkInTime"`
	CheckOutTime string `json:"checkOutTime"`
	Leave        bool   `json:"leave"`
}

// ShiftDescriptor is either free text such as "9 AM - 6 PM" or a structured
// {shiftName, startTime, endTime} object.
type ShiftDescriptor struct {
	Text      string
	ShiftName string
	StartTime string
	EndTime   string
}

// IsZero reports whether no shift is assigned.
func (s ShiftDescriptor) IsZero() bool {
	return s == ShiftDescriptor{}
}

// String returns the free text form, building one for structured shifts.
func (s ShiftDescriptor) String() string {
	if s.Text != "" || (s.StartTime == "" && s.EndTime == "") {
		return s.Text
	}
	label := s.StartTime + " - " + s.EndTime
	if s.ShiftName != "" {
		label = s.ShiftName + " (" + label + ")"
	}
	return label
}

type structuredShift struct {
	ShiftName string `json:"shiftName"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// MarshalJSON writes the text form as a string and a structured shift as an object.
func (s ShiftDescriptor) MarshalJSON() ([]byte, error) {
	if s.Text != "" || (s.ShiftName == "" && s.StartTime == "" && s.EndTime == "") {
		return json.Marshal(s.Text)
	}
	return json.Marshal(structuredShift{ShiftName: s.ShiftName, StartTime: s.StartTime, EndTime: s.EndTime})
}

// UnmarshalJSON accepts a string, an object or null.
func (s *ShiftDescriptor) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*s = ShiftDescriptor{}
		return nil
	case b[0] == '"':
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		*s = ShiftDescriptor{Text: text}
		return nil
	case b[0] == '{':
		var st structuredShift
		if err := json.Unmarshal(b, &st); err != nil {
			return err
		}
		*s = ShiftDescriptor{ShiftName: st.ShiftName, StartTime: st.StartTime, EndTime: st.EndTime}
		return nil
	}
	return fmt.Errorf("attendance: unsupported shiftDetails value %s", b)
}

// Employee is a roster entry.
type Employee struct {
	ID                     int64           `json:"id"`
	EmployeeCode           string          `json:"employeeCode,omitempty"`
	Name                   string          `json:"name"`
	Username               string          `json:"username"`
	Email                  string          `json:"email"`
	MobileNumber           string          `json:"mobileNumber"`
	DOB                    string          `json:"dob"`
	JoiningDate            string          `json:"joiningDate"`
	Shift                  ShiftDescriptor `json:"shiftDetails"`
	Salary                 float64         `json:"salary"`
	Status                 string          `json:"status"`
	Role                   string          `json:"role"`
	EmergencyContactNumber string          `json:"emergencyContactNumber"`
	EmergencyRelation      string          `json:"emergencyRelation"`
	Password               string          `json:"password,omitempty"`
}

// Employee statuses.
const (
	EmployeeActive   = "Active"
	EmployeeInactive = "Inactive"
)

// Roles is the fixed set of roles an employee may hold.
var Roles = []string{
	"Software Engineer",
	"Project Manager",
	"UI/UX Designer",
	"QA Tester",
	"Business Analyst",
	"HR Specialist",
	"DevOps Engineer",
	"Product Manager",
	"Data Scientist",
	"Support Executive",
	"Employee",
	"Admin",
}

var (
	ErrInvalidName   = errors.New("attendance: name is required")
	ErrInvalidEmail  = errors.New("attendance: invalid email")
	ErrInvalidRole   = errors.New("attendance: unknown role")
	ErrInvalidStatus = errors.New("attendance: status must be Active or Inactive")
	ErrInvalidDate   = errors.New("attendance: date must be YYYY-MM-DD")
	ErrInvalidShift  = errors.New("attendance: unknown shift")
)

// ValidRole reports whether role is one of Roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Validate checks the fields a registration or update must carry.
// Empty role and status are allowed and left for the backend to default.
func (e Employee) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrInvalidName
	}
	if at := strings.IndexByte(e.Email, '@'); at <= 0 || at == len(e.Email)-1 {
		return ErrInvalidEmail
	}
	if e.Role != "" && !ValidRole(e.Role) {
		return ErrInvalidRole
	}
	if e.Status != "" && e.Status != EmployeeActive && e.Status != EmployeeInactive {
		return ErrInvalidStatus
	}
	return nil
}

// UpdatePayload returns the employee as an update body. A blank password is
// omitted so the stored one is kept.
func (e Employee) UpdatePayload() Employee {
	if strings.TrimSpace(e.Password) == "" {
		e.Password = ""
	}
	return e
}

// FormatEmployeeID renders a numeric id as EMP001. Zero renders as "".
func FormatEmployeeID(id int64) string {
	if id == 0 {
		return ""
	}
	return fmt.Sprintf("EMP%03d", id)
}

// FilterEmployees keeps employees where any displayed field contains term,
// ignoring case. An empty term returns the list unchanged.
func FilterEmployees(list []Employee, term string) []Employee {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return list
	}
	var out []Employee
	for _, e := range list {
		fields := []string{
			fmt.Sprint(e.ID), FormatEmployeeID(e.ID), e.EmployeeCode, e.Name, e.Username, e.Email,
			e.MobileNumber, e.DOB, e.JoiningDate, e.Shift.String(), fmt.Sprint(e.Salary),
			e.Status, e.Role, e.EmergencyContactNumber, e.EmergencyRelation,
		}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), term) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Public returns a copy without the write-only password.
func (e Employee) Public() Employee {
	e.Password = ""
	return e
}

package attendance

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Queryer is the subset of pgxpool.Pool the repository needs.
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository reads the roster and attendance straight from the backend's
// Postgres database. It never writes.
type Repository struct {
	db Queryer
}

// NewRepository creates a repo.
func NewRepository(db Queryer) *Repository {
	return &Repository{db: db}
}

const employeeColumns = `id, COALESCE(name, ''), COALESCE(username, ''), COALESCE(email, ''),
	COALESCE(mobile_number, ''), COALESCE(dob::text, ''), COALESCE(joining_date::text, ''),
	COALESCE(shift_details, ''), COALESCE(salary, 0)::float8, COALESCE(status, ''), COALESCE(role, ''),
	COALESCE(emergency_contact_number, ''), COALESCE(emergency_relation, '')`

// Employees returns the full roster ordered by id.
func (r *Repository) Employees(ctx context.Context) ([]Employee, error) {
	rows, err := r.db.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	res := []Employee{}
	for rows.Next() {
		var e Employee
		var shift string
		if err := rows.Scan(&e.ID, &e.Name, &e.Username, &e.Email, &e.MobileNumber,
			&e.DOB, &e.JoiningDate, &shift, &e.Salary, &e.Status, &e.Role,
			&e.EmergencyContactNumber, &e.EmergencyRelation); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		e.Shift = ShiftDescriptor{Text: shift}
		res = append(res, e)
	}
	return res, rows.Err()
}

// AttendanceByDate returns the records for a YYYY-MM-DD date.
func (r *Repository) AttendanceByDate(ctx context.Context, date string) ([]Record, error) {
	if !ValidDate(date) {
		return nil, ErrInvalidDate
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, employee_id, date::text,
		       COALESCE(check_in_time::text, ''), COALESCE(check_out_time::text, ''),
		       COALESCE(leave, FALSE)
		FROM attendance
		WHERE date = $1::date
		ORDER BY id
	`, date)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	res := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.Date, &rec.CheckInTime, &rec.CheckOutTime, &rec.Leave); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

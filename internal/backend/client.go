// Package backend is a client for the attendance backend REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"attendview/internal/attendance"
	"attendview/internal/metrics"
)

var (
	ErrNotFound     = errors.New("backend: not found")
	ErrUnauthorized = errors.New("backend: unauthorized")
	ErrConflict     = errors.New("backend: conflict")
	// ErrFaceMismatch is returned by FaceCheckIn when the backend does not
	// recognise the face.
	ErrFaceMismatch = errors.New("backend: face not matched")
)

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.Code, e.Body)
}

// Unwrap maps well known status codes onto sentinels.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusConflict:
		return ErrConflict
	}
	return nil
}

// Client calls the attendance backend.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a client. Face check-in can take a while on cold backends.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 2 * time.Minute},
	}
}

// Login is the identity returned for valid credentials.
type Login struct {
	ID    int64  `json:"id"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Employees lists the roster.
func (c *Client) Employees(ctx context.Context) ([]attendance.Employee, error) {
	var out []attendance.Employee
	if err := c.do(ctx, "employees", http.MethodGet, "/api/employees", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []attendance.Employee{}
	}
	return out, nil
}

// Employee fetches one employee.
func (c *Client) Employee(ctx context.Context, id int64) (attendance.Employee, error) {
	var out attendance.Employee
	err := c.do(ctx, "employee", http.MethodGet, "/api/employees/"+strconv.FormatInt(id, 10), nil, &out)
	return out, err
}

// Register creates an employee.
func (c *Client) Register(ctx context.Context, e attendance.Employee) (attendance.Employee, error) {
	if err := e.Validate(); err != nil {
		return attendance.Employee{}, err
	}
	var out attendance.Employee
	err := c.do(ctx, "register", http.MethodPost, "/api/employees/register", e, &out)
	return out, err
}

// UpdateEmployee replaces an employee. A blank password is not sent.
func (c *Client) UpdateEmployee(ctx context.Context, id int64, e attendance.Employee) (attendance.Employee, error) {
	if err := e.Validate(); err != nil {
		return attendance.Employee{}, err
	}
	var out attendance.Employee
	err := c.do(ctx, "update_employee", http.MethodPut, "/api/employees/"+strconv.FormatInt(id, 10), e.UpdatePayload(), &out)
	return out, err
}

// DeleteEmployee removes an employee.
func (c *Client) DeleteEmployee(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_employee", http.MethodDelete, "/api/employees/"+strconv.FormatInt(id, 10), nil, nil)
}

// Login checks credentials against the backend.
func (c *Client) Login(ctx context.Context, email, password string) (Login, error) {
	var out Login
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "login", http.MethodPost, "/api/employees/login", body, &out); err != nil {
		return Login{}, err
	}
	if out.Email == "" {
		out.Email = email
	}
	return out, nil
}

// AttendanceByDate lists the records for a YYYY-MM-DD date.
func (c *Client) AttendanceByDate(ctx context.Context, date string) ([]attendance.Record, error) {
	if !attendance.ValidDate(date) {
		return nil, attendance.ErrInvalidDate
	}
	var out []attendance.Record
	if err := c.do(ctx, "attendance_by_date", http.MethodGet, "/api/attendance/date?date="+url.QueryEscape(date), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []attendance.Record{}
	}
	return out, nil
}

// AttendanceToday lists today's records as the backend sees today.
func (c *Client) AttendanceToday(ctx context.Context) ([]attendance.Record, error) {
	var out []attendance.Record
	if err := c.do(ctx, "attendance_today", http.MethodGet, "/api/attendance/today", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []attendance.Record{}
	}
	return out, nil
}

// Shifts returns an employee's assigned shifts keyed by date. The backend
// sends each day as a label or a list of labels.
func (c *Client) Shifts(ctx context.Context, employeeID int64) (map[string][]string, error) {
	var out struct {
		Shifts map[string]json.RawMessage `json:"shifts"`
	}
	if err := c.do(ctx, "shifts", http.MethodGet, "/api/employees/shift/"+strconv.FormatInt(employeeID, 10), nil, &out); err != nil {
		return nil, err
	}

	res := make(map[string][]string, len(out.Shifts))
	for date, raw := range out.Shifts {
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			res[date] = list
			continue
		}
		var one string
		if err := json.Unmarshal(raw, &one); err == nil {
			res[date] = []string{one}
			continue
		}
		// structured entries render as all-day
		res[date] = []string{""}
	}
	return res, nil
}

// SaveShifts stores shift assignments in bulk.
func (c *Client) SaveShifts(ctx context.Context, items []attendance.Assignment) error {
	for _, a := range items {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return c.do(ctx, "save_shifts", http.MethodPost, "/api/employees/shifts/bulk", items, nil)
}

// CheckIn records a check-in for an employee. snapshot may be empty.
func (c *Client) CheckIn(ctx context.Context, employeeID int64, snapshot string) (attendance.Record, error) {
	var out attendance.Record
	body := map[string]string{"snapshot": snapshot}
	err := c.do(ctx, "checkin", http.MethodPost, "/api/attendance/checkin/"+strconv.FormatInt(employeeID, 10), body, &out)
	return out, err
}

// CheckOut closes an attendance record.
func (c *Client) CheckOut(ctx context.Context, attendanceID int64) error {
	return c.do(ctx, "checkout", http.MethodPost, "/api/attendance/checkout/"+strconv.FormatInt(attendanceID, 10), nil, nil)
}

// FaceCheckIn posts a face image for recognition and returns the backend's
// verdict text. A "Not Matched" verdict yields ErrFaceMismatch.
func (c *Client) FaceCheckIn(ctx context.Context, image []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", "face.jpg")
	if err != nil {
		return "", fmt.Errorf("backend: create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("backend: write image: %w", err)
	}
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/face/checkin", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	body, err := c.send(req, "face_checkin")
	if err != nil {
		return "", err
	}
	verdict := strings.TrimSpace(string(body))
	if strings.Contains(verdict, "Not Matched") {
		return verdict, ErrFaceMismatch
	}
	return verdict, nil
}

// Healthy reports whether the backend answers the roster endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/employees", nil)
	if err != nil {
		return false
	}
	_, err = c.send(req, "health")
	return err == nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var rd io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: encode %s: %w", op, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	body, err := c.send(req, op)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("backend: decode %s: %w", op, err)
	}
	return nil
}

func (c *Client) send(req *http.Request, op string) ([]byte, error) {
	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		metrics.BackendDuration.WithLabelValues(op, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()
	metrics.BackendDuration.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend: read %s response: %w", op, err)
	}
	if resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

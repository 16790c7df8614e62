package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"attendview/internal/attendance"
	"attendview/internal/auth"
	"attendview/internal/backend"
	"attendview/internal/board"
	"attendview/internal/checkin"
	"attendview/internal/qrtoken"
	"attendview/internal/reportcache"
	"attendview/internal/wifi"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testKey    = "api-test-key"
	testIssuer = "api-test"
)

type fakeDirectory struct {
	mu     sync.Mutex
	emps   map[int64]attendance.Employee
	shifts map[int64]map[string][]string
	saved  []attendance.Assignment
}

func (f *fakeDirectory) Employees(context.Context) ([]attendance.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]attendance.Employee, 0, len(f.emps))
	for id := int64(1); id <= int64(len(f.emps)); id++ {
		out = append(out, f.emps[id])
	}
	return out, nil
}

func (f *fakeDirectory) AttendanceByDate(_ context.Context, date string) ([]attendance.Record, error) {
	if date != "2024-03-01" {
		return nil, nil
	}
	return []attendance.Record{
		{ID: 11, EmployeeID: 1, Date: date, CheckInTime: "09:00:00", CheckOutTime: "18:00:00"},
	}, nil
}

func (f *fakeDirectory) Employee(_ context.Context, id int64) (attendance.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.emps[id]
	if !ok {
		return attendance.Employee{}, &backend.StatusError{Code: http.StatusNotFound, Body: `{"message":"Employee not found"}`}
	}
	return e, nil
}

func (f *fakeDirectory) Register(_ context.Context, e attendance.Employee) (attendance.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = int64(len(f.emps) + 1)
	f.emps[e.ID] = e
	return e, nil
}

func (f *fakeDirectory) UpdateEmployee(_ context.Context, id int64, e attendance.Employee) (attendance.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emps[id] = e
	return e, nil
}

func (f *fakeDirectory) DeleteEmployee(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.emps, id)
	return nil
}

func (f *fakeDirectory) Login(_ context.Context, email, password string) (backend.Login, error) {
	if email == "admin@example.com" && password == "secret" {
		return backend.Login{ID: 1, Role: "Admin", Name: "Asha", Email: email}, nil
	}
	return backend.Login{}, &backend.StatusError{Code: http.StatusUnauthorized, Body: "Invalid credentials"}
}

func (f *fakeDirectory) Shifts(_ context.Context, id int64) (map[string][]string, error) {
	return f.shifts[id], nil
}

func (f *fakeDirectory) SaveShifts(_ context.Context, items []attendance.Assignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, items...)
	return nil
}

type fakeSessions struct{ err error }

func (f fakeSessions) StartSession(_ context.Context, hostID string) (wifi.Result, error) {
	if f.err != nil {
		return wifi.Result{}, f.err
	}
	return wifi.Result{OK: true, IP: "10.0.0.1"}, nil
}

type fakeCheckIns struct {
	mu   sync.Mutex
	last checkin.Request
}

func (f *fakeCheckIns) Run(_ context.Context, req checkin.Request) (checkin.Result, error) {
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if req.Location == nil {
		return checkin.Result{Step: checkin.StepLocation, Message: "Location access denied."}, nil
	}
	return checkin.Result{Step: checkin.StepCheckIn, OK: true, AttendanceID: 99, Message: "Checked in successfully."}, nil
}

func (f *fakeCheckIns) CheckOut(_ context.Context, employeeID, id int64) (checkin.Result, error) {
	if id <= 0 {
		return checkin.Result{Step: checkin.StepCheckOut, Message: "You need to check in first."}, checkin.ErrNotCheckedIn
	}
	if id == 11 && employeeID != 1 {
		return checkin.Result{Step: checkin.StepCheckOut, Message: "This attendance record is not yours."}, checkin.ErrNotOwner
	}
	return checkin.Result{Step: checkin.StepCheckOut, OK: true, AttendanceID: id, Message: "Checked out successfully."}, nil
}

type testServer struct {
	router   *gin.Engine
	dir      *fakeDirectory
	checkins *fakeCheckIns
}

func newTestServer(t *testing.T, deps Deps) *testServer {
	t.Helper()
	dir := &fakeDirectory{
		emps: map[int64]attendance.Employee{
			1: {ID: 1, Name: "Asha", Email: "asha@example.com", Role: "Admin"},
			2: {ID: 2, Name: "Ravi", Email: "ravi@example.com", Role: "QA Tester", Password: "hidden"},
		},
		shifts: map[int64]map[string][]string{
			2: {"2024-03-04": {"9:00 AM - 6:00 PM"}},
		},
	}
	svc := attendance.NewService(dir, attendance.PolicySet{Default: attendance.DefaultPolicy()}, reportcache.NewMemory(time.Minute))
	ci := &fakeCheckIns{}

	if deps.Directory == nil {
		deps.Directory = dir
	}
	deps.Reports = svc
	deps.Board = board.New(svc)
	deps.QR = qrtoken.NewIssuer(qrtoken.NewMemory(), time.Minute)
	deps.CheckIns = ci
	if deps.Sessions == nil {
		deps.Sessions = fakeSessions{}
	}

	r := NewRouter(Options{
		JWTSigningKey:   testKey,
		JWTIssuer:       testIssuer,
		AccessTTL:       time.Minute,
		RefreshTTL:      time.Hour,
		CORSOrigins:     []string{"http://localhost:5173"},
		RateLimitPerMin: 1000,
		HostID:          "1",
	}, deps)
	return &testServer{router: r, dir: dir, checkins: ci}
}

func token(t *testing.T, subject, role string) string {
	t.Helper()
	pair, err := auth.Issue(auth.Identity{Subject: subject, Role: role}, testIssuer, testKey, time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return pair.AccessToken
}

func (s *testServer) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	up := func(context.Context) bool { return true }
	down := func(context.Context) bool { return false }

	s := newTestServer(t, Deps{Health: map[string]func(context.Context) bool{"redis": up, "backend": up}})
	if rec := s.do(t, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthy status %d", rec.Code)
	}

	s = newTestServer(t, Deps{Health: map[string]func(context.Context) bool{"redis": up, "backend": down}})
	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	var body map[string]any
	decode(t, rec, &body)
	if rec.Code != http.StatusServiceUnavailable || body["backend"] != false || body["status"] != "degraded" {
		t.Fatalf("unexpected degraded response %d %v", rec.Code, body)
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Deps{})

	rec := s.do(t, http.MethodPost, "/v1/login", "", map[string]string{"email": "admin@example.com", "password": "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad credentials: status %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/v1/login", "", map[string]string{"email": "admin@example.com", "password": "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", rec.Code, rec.Body.String())
	}
	var tok tokenResponse
	decode(t, rec, &tok)
	if tok.User["role"] != auth.RoleAdmin || tok.User["id"] != "1" {
		t.Fatalf("unexpected user %v", tok.User)
	}

	if rec := s.do(t, http.MethodGet, "/v1/employees", tok.AccessToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("issued token should open admin routes, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/v1/token/refresh", "", map[string]string{"refresh_token": tok.RefreshToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status %d", rec.Code)
	}
	rec = s.do(t, http.MethodPost, "/v1/token/refresh", "", map[string]string{"refresh_token": tok.AccessToken})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("access token must not refresh, got %d", rec.Code)
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Deps{})

	rec := s.do(t, http.MethodPost, "/v1/register", "", map[string]string{
		"name": "Mallory", "email": "m@example.com", "role": "Admin", "password": "x",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("self registration as admin: status %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/v1/register", "", map[string]string{"name": "Nia", "email": "bad", "password": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid email: status %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/v1/register", "", map[string]string{
		"name": "Nia", "email": "nia@example.com", "role": "QA Tester", "password": "pw",
	})
	if rec.Code != http.StatusCreated || strings.Contains(rec.Body.String(), "pw") {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}
}

func TestEmployees(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Deps{})
	admin := token(t, "1", auth.RoleAdmin)
	staff := token(t, "2", auth.RoleEmployee)

	if rec := s.do(t, http.MethodGet, "/v1/employees", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/v1/employees", staff, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("employee: status %d", rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/v1/employees?search=qa", admin, nil)
	var list struct {
		Employees []attendance.Employee `json:"employees"`
		Count     int                   `json:"count"`
	}
	decode(t, rec, &list)
	if list.Count != 1 || list.Employees[0].Name != "Ravi" || list.Employees[0].Password != "" {
		t.Fatalf("unexpected filtered roster %+v", list)
	}

	rec = s.do(t, http.MethodGet, "/v1/employees/42", admin, nil)
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "Employee not found") {
		t.Fatalf("missing employee: %d %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(t, http.MethodGet, "/v1/employees/abc", admin, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status %d", rec.Code)
	}

	rec = s.do(t, http.MethodPut, "/v1/employees/2", admin, map[string]string{"name": "Ravi K", "email": "ravi@example.com", "role": "Nope"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown role: status %d", rec.Code)
	}
	rec = s.do(t, http.MethodPut, "/v1/employees/2", admin, map[string]string{"name": "Ravi K", "email": "ravi@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d", rec.Code)
	}

	if rec := s.do(t, http.MethodDelete, "/v1/employees/2", admin, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
}

func TestShifts(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Deps{})
	admin := token(t, "1", auth.RoleAdmin)
	staff := token(t, "2", auth.RoleEmployee)

	rec := s.do(t, http.MethodGet, "/v1/employees/2/shifts", staff, nil)
	var body struct {
		Events []attendance.CalendarEvent `json:"events"`
	}
	decode(t, rec, &body)
	if rec.Code != http.StatusOK || len(body.Events) != 1 || body.Events[0].Start != "2024-03-04T09:00:00" {
		t.Fatalf("own shifts: %d %+v", rec.Code, body)
	}
	if rec := s.do(t, http.MethodGet, "/v1/employees/1/shifts", staff, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("other employee's shifts: status %d", rec.Code)
	}

	bad := map[string]any{"assignments": []attendance.Assignment{{EmployeeID: 2, Date: "2024-03-05", Shift: "Whenever"}}}
	if rec := s.do(t, http.MethodPost, "/v1/shifts", admin, bad); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown shift: status %d", rec.Code)
	}
	good := map[string]any{"assignments": []attendance.Assignment{{EmployeeID: 2, Date: "2024-03-05", Shift: attendance.FlexibleShift}}}
	if rec := s.do(t, http.MethodPost, "/v1/shifts", admin, good); rec.Code != http.StatusOK || len(s.dir.saved) != 1 {
		t.Fatalf("save shifts: status %d saved %d", rec.Code, len(s.dir.saved))
	}
}

func TestAttendanceAndReports(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Deps{})
	admin := token(t, "1", auth.RoleAdmin)

	if rec := s.do(t, http.MethodGet, "/v1/attendance?date=03/01/2024", admin, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed date: status %d", rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/v1/attendance?date=2024-03-01", admin, nil)
	var rows struct {
		Date string           `json:"date"`
		Rows []attendance.Row `json:"rows"`
	}
	decode(t, rec, &rows)
	if len(rows.Rows) != 1 || rows.Rows[0].EmployeeName != "Asha" || rows.Rows[0].WorkingHours != 9 {
		t.Fatalf("unexpected rows %+v", rows)
	}

	rec = s.do(t, http.MethodGet, "/v1/reports/daily?date=2024-03-01", admin, nil)
	var rep attendance.DailyReport
	decode(t, rec, &rep)
	if rep.TotalCount != 2 || rep.PresentCount != 1 || rep.AbsentCount != 1 || rep.PresentPercent != 50 {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestRosterChangesReachReports(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Deps{})
	admin := token(t, "1", auth.RoleAdmin)

	report := func() attendance.DailyReport {
		t.Helper()
		var rep attendance.DailyReport
		decode(t, s.do(t, http.MethodGet, "/v1/reports/daily?date=2024-03-01", admin, nil), &rep)
		return rep
	}
	if rep := report(); rep.TotalCount != 2 {
		t.Fatalf("initial total %d", rep.TotalCount)
	}
	if rec := s.do(t, http.MethodPut, "/v1/board/date", admin, map[string]string{"date": "2024-03-01"}); rec.Code != http.StatusOK {
		t.Fatalf("select: status %d", rec.Code)
	}

	rec := s.do(t, http.MethodPost, "/v1/employees", admin, map[string]string{
		"name": "Nia", "email": "nia@example.com", "role": "QA Tester", "password": "pw",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	if rep := report(); rep.TotalCount != 3 || rep.AbsentCount != 2 {
		t.Fatalf("report after create %+v", rep)
	}
	var v board.View
	decode(t, s.do(t, http.MethodGet, "/v1/board", admin, nil), &v)
	if v.Report.TotalCount != 3 {
		t.Fatalf("board after create %+v", v.Report)
	}

	if rec := s.do(t, http.MethodDelete, "/v1/employees/3", admin, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	if rep := report(); rep.TotalCount != 2 {
		t.Fatalf("report after delete %+v", rep)
	}
}

func TestBoardRoutes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Deps{})
	admin := token(t, "1", auth.RoleAdmin)

	if rec := s.do(t, http.MethodPut, "/v1/board/date", admin, map[string]string{"date": "yesterday"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad board date: status %d", rec.Code)
	}

	rec := s.do(t, http.MethodPut, "/v1/board/date", admin, map[string]string{"date": "2024-03-01"})
	var v board.View
	decode(t, rec, &v)
	if rec.Code != http.StatusOK || v.Date != "2024-03-01" || v.Report.PresentCount != 1 {
		t.Fatalf("select: %d %+v", rec.Code, v)
	}

	rec = s.do(t, http.MethodGet, "/v1/board", admin, nil)
	decode(t, rec, &v)
	if v.Date != "2024-03-01" || v.Seq != 1 {
		t.Fatalf("current view %+v", v)
	}

	rec = s.do(t, http.MethodGet, "/v1/board/date", admin, nil)
	if !strings.Contains(rec.Body.String(), "2024-03-01") {
		t.Fatalf("board date %s", rec.Body.String())
	}
}

func TestQRRoutes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Deps{})
	admin := token(t, "1", auth.RoleAdmin)
	staff := token(t, "2", auth.RoleEmployee)

	if rec := s.do(t, http.MethodGet, "/v1/qr/token", staff, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("employee issuing token: status %d", rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/v1/qr/token", admin, nil)
	var tok qrtoken.Token
	decode(t, rec, &tok)
	if tok.Token == "" || tok.ExpiresIn != 60 {
		t.Fatalf("unexpected token %+v", tok)
	}

	rec = s.do(t, http.MethodPost, "/v1/qr/verify", staff, map[string]string{"token": tok.Token})
	var verdict qrtoken.Verdict
	decode(t, rec, &verdict)
	if rec.Code != http.StatusOK || !verdict.Success {
		t.Fatalf("verify issued token: %d %+v", rec.Code, verdict)
	}
	rec = s.do(t, http.MethodPost, "/v1/qr/verify", staff, map[string]string{"token": "forged"})
	decode(t, rec, &verdict)
	if rec.Code != http.StatusBadRequest || verdict.Message != "Invalid or expired QR code" {
		t.Fatalf("verify forged token: %d %+v", rec.Code, verdict)
	}

	rec = s.do(t, http.MethodGet, "/v1/qr/token.png?size=128", admin, nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("png: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatal("body is not a png")
	}
	shown := rec.Header().Get("X-QR-Token")
	rec = s.do(t, http.MethodPost, "/v1/qr/verify", staff, map[string]string{"token": shown})
	if rec.Code != http.StatusOK {
		t.Fatalf("token shown in png should verify, got %d", rec.Code)
	}

	if rec := s.do(t, http.MethodGet, "/v1/qr/token.png?size=5", admin, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("tiny png: status %d", rec.Code)
	}
}

func TestSessions(t *testing.T) {
	t.Parallel()
	admin := token(t, "1", auth.RoleAdmin)

	s := newTestServer(t, Deps{})
	rec := s.do(t, http.MethodPost, "/v1/sessions", admin, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"hostId":"1"`) {
		t.Fatalf("start session: %d %s", rec.Code, rec.Body.String())
	}

	s = newTestServer(t, Deps{Sessions: fakeSessions{err: wifi.ErrNoSession}})
	if rec := s.do(t, http.MethodPost, "/v1/sessions", admin, map[string]string{"hostId": "7"}); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown host: status %d", rec.Code)
	}

	s = newTestServer(t, Deps{Sessions: fakeSessions{err: errors.New("dial tcp: refused")}})
	if rec := s.do(t, http.MethodPost, "/v1/sessions", admin, nil); rec.Code != http.StatusBadGateway {
		t.Fatalf("pairing service down: status %d", rec.Code)
	}
}

func TestCheckInAndOut(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Deps{})
	staff := token(t, "2", auth.RoleEmployee)
	admin := token(t, "1", auth.RoleAdmin)

	if rec := s.do(t, http.MethodPost, "/v1/checkins", admin, map[string]any{}); rec.Code != http.StatusForbidden {
		t.Fatalf("admin check-in: status %d", rec.Code)
	}

	rec := s.do(t, http.MethodPost, "/v1/checkins", staff, map[string]any{"qrToken": "t"})
	var res checkin.Result
	decode(t, rec, &res)
	if rec.Code != http.StatusUnprocessableEntity || res.Step != checkin.StepLocation {
		t.Fatalf("missing location: %d %+v", rec.Code, res)
	}

	img := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("face"))
	rec = s.do(t, http.MethodPost, "/v1/checkins", staff, map[string]any{
		"latitude": 10.9541, "longitude": 76.9595, "image": img, "qrToken": "tok",
	})
	decode(t, rec, &res)
	if rec.Code != http.StatusOK || res.AttendanceID != 99 {
		t.Fatalf("check-in: %d %+v", rec.Code, res)
	}
	last := s.checkins.last
	if last.EmployeeID != 2 || string(last.Image) != "face" || last.QRToken != "tok" || last.Location.Lat != 10.9541 {
		t.Fatalf("flow got %+v", last)
	}

	if rec := s.do(t, http.MethodPost, "/v1/checkins", staff, map[string]any{"image": "%%%"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad base64: status %d", rec.Code)
	}

	if rec := s.do(t, http.MethodPost, "/v1/checkouts/0", staff, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("checkout without check-in: status %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/v1/checkouts/11", staff, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("checkout of another employee's record: status %d", rec.Code)
	}
	rec = s.do(t, http.MethodPost, "/v1/checkouts/99", staff, nil)
	decode(t, rec, &res)
	if rec.Code != http.StatusOK || res.Message != "Checked out successfully." {
		t.Fatalf("checkout: %d %+v", rec.Code, res)
	}
}

func TestDecodeDataURL(t *testing.T) {
	t.Parallel()

	raw := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	for _, in := range []string{raw, "data:image/png;base64," + raw} {
		got, err := decodeDataURL(in)
		if err != nil || !bytes.Equal(got, []byte{1, 2, 3}) {
			t.Fatalf("decodeDataURL(%q) = %v, %v", in, got, err)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Deps{})

	req := httptest.NewRequest(http.MethodOptions, "/v1/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("allow origin %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestCORSConfig(t *testing.T) {
	t.Parallel()

	if !corsConfig(nil).AllowAllOrigins || !corsConfig([]string{"*"}).AllowAllOrigins {
		t.Fatal("empty or wildcard origins should allow all")
	}
	cfg := corsConfig([]string{"https://hr.example"})
	if cfg.AllowAllOrigins || !cfg.AllowCredentials || len(cfg.AllowOrigins) != 1 {
		t.Fatalf("explicit origins: %+v", cfg)
	}
}

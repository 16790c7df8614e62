// Package checkin runs the on-site check-in pipeline: Wi-Fi pairing,
// geofence, face match and QR scan, then the backend check-in.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"attendview/internal/attendance"
	"attendview/internal/backend"
	"attendview/internal/cloudinary"
	"attendview/internal/faceclient"
	"attendview/internal/metrics"
	"attendview/internal/qrtoken"
	"attendview/internal/queue"
	"attendview/internal/wifi"
)

// Step names, in the order they run.
const (
	StepWifi     = "wifi"
	StepLocation = "location"
	StepFace     = "face"
	StepQR       = "qr"
	StepCheckIn  = "checkin"
	StepCheckOut = "checkout"
)

var (
	// ErrNotCheckedIn is returned by CheckOut without an attendance id.
	ErrNotCheckedIn = errors.New("checkin: no attendance id")
	// ErrNotOwner is returned by CheckOut for a record that is not one of
	// the employee's records today.
	ErrNotOwner = errors.New("checkin: attendance record belongs to someone else")
)

// publishTimeout bounds how long a check-in waits to enqueue its refresh job.
const publishTimeout = time.Second

// Presence verifies the employee is on the office network.
type Presence interface {
	Check(ctx context.Context, memberID, hostID string) (wifi.Result, error)
}

// FaceVerifier matches a captured face against the employee. ok is false for
// a clean mismatch, detail is a human readable verdict.
type FaceVerifier interface {
	VerifyFace(ctx context.Context, employeeID int64, image []byte) (ok bool, detail string, err error)
}

// QRVerifier checks a scanned office QR token.
type QRVerifier interface {
	Verify(ctx context.Context, token string) (qrtoken.Verdict, error)
}

// Recorder writes check-ins and check-outs to the backend.
type Recorder interface {
	CheckIn(ctx context.Context, employeeID int64, snapshot string) (attendance.Record, error)
	CheckOut(ctx context.Context, attendanceID int64) error
	AttendanceToday(ctx context.Context) ([]attendance.Record, error)
}

// SnapshotStore keeps the captured face image.
type SnapshotStore interface {
	UploadSnapshot(ctx context.Context, employeeID int64, image []byte) (*cloudinary.Snapshot, error)
}

// Publisher enqueues background jobs.
type Publisher interface {
	Publish(ctx context.Context, msg queue.Message) error
}

// Request is one check-in attempt.
type Request struct {
	EmployeeID int64
	// MemberID identifies the employee to the pairing service. Defaults to
	// the numeric employee id.
	MemberID string
	Location *Point
	Image    []byte
	QRToken  string
}

// Result reports where the flow stopped.
type Result struct {
	Step         string             `json:"step"`
	OK           bool               `json:"ok"`
	Message      string             `json:"message"`
	AttendanceID int64              `json:"attendanceId,omitempty"`
	Record       *attendance.Record `json:"record,omitempty"`
	SnapshotURL  string             `json:"snapshotUrl,omitempty"`
}

// Flow wires the check-in steps together. Snapshots and Jobs may be nil.
type Flow struct {
	Presence  Presence
	HostID    string
	Fence     Geofence
	Face      FaceVerifier
	QR        QRVerifier
	Recorder  Recorder
	Snapshots SnapshotStore
	Jobs      Publisher
	Now       func() time.Time
}

// Run executes the steps in order and stops at the first failure. err is
// only returned for a cancelled context; step failures are reported in Result.
func (f *Flow) Run(ctx context.Context, req Request) (Result, error) {
	steps := []struct {
		name string
		fn   func(context.Context, *Request, *Result) string
	}{
		{StepWifi, f.wifi},
		{StepLocation, f.location},
		{StepFace, f.face},
		{StepQR, f.qr},
		{StepCheckIn, f.record},
	}

	var res Result
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		res.Step = s.name
		if msg := s.fn(ctx, &req, &res); msg != "" {
			metrics.CheckinSteps.WithLabelValues(s.name, "fail").Inc()
			res.OK = false
			res.Message = msg
			return res, nil
		}
		metrics.CheckinSteps.WithLabelValues(s.name, "ok").Inc()
	}
	res.OK = true
	res.Message = "Checked in successfully."
	return res, nil
}

func (f *Flow) wifi(ctx context.Context, req *Request, _ *Result) string {
	if f.Presence == nil {
		return ""
	}
	member := req.MemberID
	if member == "" {
		member = strconv.FormatInt(req.EmployeeID, 10)
	}
	r, err := f.Presence.Check(ctx, member, f.HostID)
	switch {
	case errors.Is(err, wifi.ErrNoSession):
		return "No session found. Ask an admin to start a session."
	case err != nil:
		log.Printf("checkin %d: wifi check: %v", req.EmployeeID, err)
		return "Wi-Fi check failed."
	case !r.OK:
		reason := r.Reason
		if reason == "" {
			reason = "Different network"
		}
		return "Wi-Fi not connected: " + reason + "."
	}
	return ""
}

func (f *Flow) location(_ context.Context, req *Request, _ *Result) string {
	if req.Location == nil {
		return "Location access denied."
	}
	if !f.Fence.Contains(*req.Location) {
		return "You are not at the office location."
	}
	return ""
}

func (f *Flow) face(ctx context.Context, req *Request, _ *Result) string {
	if len(req.Image) == 0 {
		return "Could not capture image."
	}
	ok, detail, err := f.Face.VerifyFace(ctx, req.EmployeeID, req.Image)
	if err != nil {
		log.Printf("checkin %d: face verify: %v", req.EmployeeID, err)
		return "Face verification failed."
	}
	if !ok {
		if detail == "" {
			detail = "Face not matched. Access denied."
		}
		return detail
	}
	return ""
}

func (f *Flow) qr(ctx context.Context, req *Request, _ *Result) string {
	v, err := f.QR.Verify(ctx, req.QRToken)
	if err != nil {
		log.Printf("checkin %d: qr verify: %v", req.EmployeeID, err)
		return "Failed to verify QR"
	}
	if !v.Success {
		if v.Message == "" {
			return "Invalid QR"
		}
		return v.Message
	}
	return ""
}

func (f *Flow) record(ctx context.Context, req *Request, res *Result) string {
	if f.Snapshots != nil {
		snap, err := f.Snapshots.UploadSnapshot(ctx, req.EmployeeID, req.Image)
		if err != nil {
			// the check-in does not depend on the snapshot
			log.Printf("checkin %d: snapshot upload: %v", req.EmployeeID, err)
		} else {
			res.SnapshotURL = snap.SecureURL
		}
	}

	rec, err := f.Recorder.CheckIn(ctx, req.EmployeeID, res.SnapshotURL)
	if err != nil {
		var se *backend.StatusError
		if errors.As(err, &se) && se.Body != "" && se.Code < 500 {
			return se.Body
		}
		log.Printf("checkin %d: backend: %v", req.EmployeeID, err)
		return "Already checked in today."
	}
	res.AttendanceID = rec.ID
	res.Record = &rec
	f.refresh(ctx, rec.Date)
	return ""
}

// CheckOut closes the attendance record opened by a check-in. The record
// must be one of employeeID's records today.
func (f *Flow) CheckOut(ctx context.Context, employeeID, attendanceID int64) (Result, error) {
	res := Result{Step: StepCheckOut, AttendanceID: attendanceID}
	if attendanceID <= 0 {
		metrics.CheckinSteps.WithLabelValues(StepCheckOut, "fail").Inc()
		res.Message = "You need to check in first."
		return res, ErrNotCheckedIn
	}

	today, err := f.Recorder.AttendanceToday(ctx)
	if err != nil {
		metrics.CheckinSteps.WithLabelValues(StepCheckOut, "fail").Inc()
		res.Message = "Failed to check out."
		return res, fmt.Errorf("check out %d: list today: %w", attendanceID, err)
	}
	owned := false
	for _, r := range today {
		if r.ID == attendanceID {
			owned = r.EmployeeID == employeeID
			break
		}
	}
	if !owned {
		metrics.CheckinSteps.WithLabelValues(StepCheckOut, "fail").Inc()
		res.Message = "This attendance record is not yours."
		return res, ErrNotOwner
	}

	if err := f.Recorder.CheckOut(ctx, attendanceID); err != nil {
		metrics.CheckinSteps.WithLabelValues(StepCheckOut, "fail").Inc()
		res.Message = "Failed to check out."
		return res, fmt.Errorf("check out %d: %w", attendanceID, err)
	}
	metrics.CheckinSteps.WithLabelValues(StepCheckOut, "ok").Inc()
	res.OK = true
	res.Message = "Checked out successfully."
	f.refresh(ctx, "")
	return res, nil
}

func (f *Flow) refresh(ctx context.Context, date string) {
	if f.Jobs == nil {
		return
	}
	if date == "" {
		now := time.Now
		if f.Now != nil {
			now = f.Now
		}
		date = now().Format(time.DateOnly)
	}
	// detached from the request, bounded by publishTimeout
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := f.Jobs.Publish(pctx, queue.NewDayRefresh(date)); err != nil {
		log.Printf("queue publish failed: %v", err)
	}
}

// BackendFace verifies faces through the backend's face check-in endpoint.
type BackendFace struct {
	Client *backend.Client
}

// VerifyFace implements FaceVerifier.
func (b BackendFace) VerifyFace(ctx context.Context, _ int64, image []byte) (bool, string, error) {
	verdict, err := b.Client.FaceCheckIn(ctx, image)
	if errors.Is(err, backend.ErrFaceMismatch) {
		return false, "Face not matched. Access denied.", nil
	}
	if err != nil {
		return false, "", err
	}
	return true, verdict, nil
}

// ServiceFace verifies faces with the face recognition microservice.
type ServiceFace struct {
	Client *faceclient.Client
}

// VerifyFace implements FaceVerifier.
func (s ServiceFace) VerifyFace(ctx context.Context, employeeID int64, image []byte) (bool, string, error) {
	v, err := s.Client.Verify(ctx, strconv.FormatInt(employeeID, 10), image)
	if err != nil {
		return false, "", err
	}
	if !v.Verified {
		return false, fmt.Sprintf("Face not matched (similarity %.2f). Access denied.", v.Similarity), nil
	}
	return true, fmt.Sprintf("Face matched (similarity %.2f)", v.Similarity), nil
}

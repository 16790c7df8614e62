// Package api exposes attendview over HTTP with gin.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attendview/internal/attendance"
	"attendview/internal/auth"
	"attendview/internal/backend"
	"attendview/internal/board"
	"attendview/internal/checkin"
	"attendview/internal/httpmiddleware"
	"attendview/internal/qrtoken"
	"attendview/internal/wifi"
)

// Directory is the employee and shift side of the attendance backend.
type Directory interface {
	Employee(ctx context.Context, id int64) (attendance.Employee, error)
	Register(ctx context.Context, e attendance.Employee) (attendance.Employee, error)
	UpdateEmployee(ctx context.Context, id int64, e attendance.Employee) (attendance.Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error
	Login(ctx context.Context, email, password string) (backend.Login, error)
	Shifts(ctx context.Context, employeeID int64) (map[string][]string, error)
	SaveShifts(ctx context.Context, items []attendance.Assignment) error
}

// SessionStarter opens Wi-Fi pairing sessions.
type SessionStarter interface {
	StartSession(ctx context.Context, hostID string) (wifi.Result, error)
}

// CheckIns runs the check-in and check-out flows.
type CheckIns interface {
	Run(ctx context.Context, req checkin.Request) (checkin.Result, error)
	CheckOut(ctx context.Context, employeeID, attendanceID int64) (checkin.Result, error)
}

// Options configures the router.
type Options struct {
	JWTSigningKey   string
	JWTIssuer       string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	CORSOrigins     []string
	RateLimitPerMin int
	HostID          string
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Directory Directory
	Reports   *attendance.Service
	Board     *board.Board
	Sessions  SessionStarter
	QR        *qrtoken.Issuer
	CheckIns  CheckIns
	// Health checks reported by /healthz, keyed by component name.
	Health map[string]func(context.Context) bool
}

type handler struct {
	opts Options
	Deps
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(opts Options, deps Deps) *gin.Engine {
	h := &handler{opts: opts, Deps: deps}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.RequestID())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	r.Use(httpmiddleware.SecurityHeaders())

	limiter := httpmiddleware.NewTokenBucket(opts.RateLimitPerMin, opts.RateLimitPerMin)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.healthz)

	public := r.Group("/v1", limiter.Middleware(httpmiddleware.ClientIP))
	public.POST("/login", h.login)
	public.POST("/token/refresh", h.refreshToken)
	public.POST("/register", h.register)

	authed := r.Group("/v1",
		auth.RequireRole(opts.JWTSigningKey, opts.JWTIssuer),
		limiter.Middleware(httpmiddleware.SubjectOrIP))
	authed.GET("/employees/:id/shifts", h.employeeShifts)
	authed.POST("/qr/verify", h.verifyQR)

	staff := r.Group("/v1",
		auth.RequireRole(opts.JWTSigningKey, opts.JWTIssuer, auth.RoleEmployee),
		limiter.Middleware(httpmiddleware.SubjectOrIP))
	staff.POST("/checkins", h.checkIn)
	staff.POST("/checkouts/:attendanceId", h.checkOut)

	admin := r.Group("/v1",
		auth.RequireRole(opts.JWTSigningKey, opts.JWTIssuer, auth.RoleAdmin),
		limiter.Middleware(httpmiddleware.SubjectOrIP))
	admin.GET("/employees", h.listEmployees)
	admin.POST("/employees", h.createEmployee)
	admin.GET("/employees/:id", h.getEmployee)
	admin.PUT("/employees/:id", h.updateEmployee)
	admin.DELETE("/employees/:id", h.deleteEmployee)
	admin.POST("/shifts", h.saveShifts)
	admin.GET("/attendance", h.attendanceRows)
	admin.GET("/reports/daily", h.dailyReport)
	admin.GET("/board", h.getBoard)
	admin.GET("/board/date", h.getBoardDate)
	admin.PUT("/board/date", h.setBoardDate)
	admin.GET("/board/stream", gin.WrapF(deps.Board.ServeStream))
	admin.POST("/sessions", h.startSession)
	admin.GET("/qr/token", h.issueQR)
	admin.GET("/qr/token.png", h.issueQRImage)

	return r
}

// corsConfig allows the listed origins; an empty list or "*" allows any.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", httpmiddleware.RequestIDHeader},
		ExposeHeaders: []string{httpmiddleware.RequestIDHeader, "X-QR-Token", "X-QR-Expires-In", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func (h *handler) healthz(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.Health {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

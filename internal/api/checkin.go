package api

import (
	"encoding/base64"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"attendview/internal/auth"
	"attendview/internal/checkin"
	"attendview/internal/qrtoken"
	"attendview/internal/wifi"
)

const maxImageBytes = 8 << 20

func (h *handler) startSession(c *gin.Context) {
	var req struct {
		HostID string `json:"hostId"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.HostID == "" {
		req.HostID = h.opts.HostID
	}
	res, err := h.Sessions.StartSession(c.Request.Context(), req.HostID)
	if errors.Is(err, wifi.ErrNoSession) {
		c.JSON(http.StatusNotFound, gin.H{"error": "pairing service has no host " + req.HostID})
		return
	}
	if err != nil {
		log.Printf("start session %s: %v", req.HostID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "pairing service unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hostId": req.HostID, "result": res})
}

func (h *handler) issueQR(c *gin.Context) {
	tok, err := h.QR.Issue(c.Request.Context())
	if err != nil {
		log.Printf("issue qr: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "token store unavailable"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, tok)
}

func (h *handler) issueQRImage(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "256"))
	if size < 64 || size > 1024 {
		badRequest(c, "size must be between 64 and 1024")
		return
	}
	tok, err := h.QR.Issue(c.Request.Context())
	if err != nil {
		log.Printf("issue qr: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "token store unavailable"})
		return
	}
	png, err := qrtoken.PNG(tok.Token, size)
	if err != nil {
		log.Printf("render qr: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("X-QR-Token", tok.Token)
	c.Header("X-QR-Expires-In", strconv.Itoa(tok.ExpiresIn))
	c.Data(http.StatusOK, "image/png", png)
}

func (h *handler) verifyQR(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	_ = c.ShouldBindJSON(&req)
	v, err := h.QR.Verify(c.Request.Context(), req.Token)
	if err != nil {
		log.Printf("verify qr: %v", err)
		c.JSON(http.StatusServiceUnavailable, qrtoken.Verdict{Message: "Failed to verify QR"})
		return
	}
	status := http.StatusOK
	if !v.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, v)
}

type checkInBody struct {
	Latitude  *float64 `json:"latitude" form:"latitude"`
	Longitude *float64 `json:"longitude" form:"longitude"`
	// Image is a base64 data URL as captured by the browser camera.
	Image    string `json:"image" form:"-"`
	QRToken  string `json:"qrToken" form:"qrToken"`
	MemberID string `json:"memberId" form:"memberId"`
}

// checkIn accepts either JSON with a base64 image or a multipart form with
// an image file.
func (h *handler) checkIn(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	employeeID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "token has no employee id"})
		return
	}

	var body checkInBody
	var image []byte
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBind(&body); err != nil {
			badRequest(c, "invalid form")
			return
		}
		if fh, err := c.FormFile("image"); err == nil {
			f, err := fh.Open()
			if err != nil {
				badRequest(c, "unreadable image")
				return
			}
			image, err = io.ReadAll(io.LimitReader(f, maxImageBytes))
			f.Close()
			if err != nil {
				badRequest(c, "unreadable image")
				return
			}
		}
	} else {
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "invalid body")
			return
		}
		if body.Image != "" {
			if image, err = decodeDataURL(body.Image); err != nil {
				badRequest(c, "image must be base64")
				return
			}
		}
	}

	req := checkin.Request{
		EmployeeID: employeeID,
		MemberID:   body.MemberID,
		Image:      image,
		QRToken:    body.QRToken,
	}
	if body.Latitude != nil && body.Longitude != nil {
		req.Location = &checkin.Point{Lat: *body.Latitude, Lon: *body.Longitude}
	}

	res, err := h.CheckIns.Run(c.Request.Context(), req)
	if err != nil {
		fail(c, "checkin", err)
		return
	}
	status := http.StatusOK
	if !res.OK {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, res)
}

func (h *handler) checkOut(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	employeeID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "token has no employee id"})
		return
	}
	id, _ := strconv.ParseInt(c.Param("attendanceId"), 10, 64)
	res, err := h.CheckIns.CheckOut(c.Request.Context(), employeeID, id)
	switch {
	case errors.Is(err, checkin.ErrNotCheckedIn):
		c.JSON(http.StatusBadRequest, res)
	case errors.Is(err, checkin.ErrNotOwner):
		c.JSON(http.StatusForbidden, res)
	case err != nil:
		log.Printf("checkout %d: %v", id, err)
		c.JSON(http.StatusBadGateway, res)
	default:
		c.JSON(http.StatusOK, res)
	}
}

// decodeDataURL accepts "data:image/jpeg;base64,...." or bare base64.
func decodeDataURL(s string) ([]byte, error) {
	if i := strings.Index(s, ","); strings.HasPrefix(s, "data:") && i > 0 {
		s = s[i+1:]
	}
	return base64.StdEncoding.DecodeString(s)
}

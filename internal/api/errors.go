package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendview/internal/attendance"
	"attendview/internal/backend"
)

var validationErrors = []error{
	attendance.ErrInvalidDate,
	attendance.ErrInvalidName,
	attendance.ErrInvalidEmail,
	attendance.ErrInvalidRole,
	attendance.ErrInvalidStatus,
	attendance.ErrInvalidShift,
}

// fail renders err with a status derived from its sentinel. Backend 4xx
// answers are passed through with their body; anything else is a gateway
// error since the backend owns the data.
func fail(c *gin.Context, op string, err error) {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var se *backend.StatusError
	switch {
	case errors.As(err, &se) && se.Code >= 400 && se.Code < 500:
		c.JSON(se.Code, gin.H{"error": backendMessage(se)})
	case errors.Is(err, context.DeadlineExceeded):
		log.Printf("%s: %v", op, err)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "backend timed out"})
	default:
		log.Printf("%s: %v", op, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "backend unavailable"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// backendMessage extracts the message of a JSON error body, falling back to
// the raw body.
func backendMessage(se *backend.StatusError) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal([]byte(se.Body), &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if se.Body != "" {
		return se.Body
	}
	return http.StatusText(se.Code)
}

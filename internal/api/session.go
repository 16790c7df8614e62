package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"attendview/internal/attendance"
	"attendview/internal/auth"
	"attendview/internal/backend"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	User         gin.H  `json:"user"`
}

func (h *handler) issue(c *gin.Context, status int, id auth.Identity, pair auth.TokenPair) {
	c.JSON(status, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.AccessExp.Unix(),
		User:         gin.H{"id": id.Subject, "role": id.Role, "name": id.Name},
	})
}

func (h *handler) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	who, err := h.Directory.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, backend.ErrUnauthorized) || errors.Is(err, backend.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if err != nil {
		fail(c, "login", err)
		return
	}

	id := auth.Identity{
		Subject: strconv.FormatInt(who.ID, 10),
		Role:    auth.RoleFor(who.Role),
		Name:    who.Name,
	}
	pair, err := auth.Issue(id, h.opts.JWTIssuer, h.opts.JWTSigningKey, h.opts.AccessTTL, h.opts.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	h.issue(c, http.StatusOK, id, pair)
}

func (h *handler) refreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refresh_token is required")
		return
	}
	pair, err := auth.Refresh(req.RefreshToken, h.opts.JWTSigningKey, h.opts.JWTIssuer, h.opts.AccessTTL, h.opts.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	claims, _ := auth.Parse(pair.AccessToken, h.opts.JWTSigningKey, h.opts.JWTIssuer)
	h.issue(c, http.StatusOK, claims.Identity(), pair)
}

// register is self registration; admin accounts are only created by admins.
func (h *handler) register(c *gin.Context) {
	var e attendance.Employee
	if err := c.ShouldBindJSON(&e); err != nil {
		badRequest(c, "invalid employee body")
		return
	}
	if auth.RoleFor(e.Role) == auth.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin accounts are created by an admin"})
		return
	}
	h.create(c, e)
}

func (h *handler) create(c *gin.Context, e attendance.Employee) {
	if err := e.Validate(); err != nil {
		fail(c, "register", err)
		return
	}
	if e.Password == "" {
		badRequest(c, "password is required")
		return
	}
	created, err := h.Directory.Register(c.Request.Context(), e)
	if err != nil {
		fail(c, "register", err)
		return
	}
	h.rosterChanged(c)
	c.JSON(http.StatusCreated, created.Public())
}

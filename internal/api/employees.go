package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"attendview/internal/attendance"
	"attendview/internal/auth"
)

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *handler) listEmployees(c *gin.Context) {
	list, err := h.Reports.Roster(c.Request.Context(), c.Query("search"))
	if err != nil {
		fail(c, "list employees", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employees": list, "count": len(list)})
}

func (h *handler) createEmployee(c *gin.Context) {
	var e attendance.Employee
	if err := c.ShouldBindJSON(&e); err != nil {
		badRequest(c, "invalid employee body")
		return
	}
	h.create(c, e)
}

func (h *handler) getEmployee(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	e, err := h.Directory.Employee(c.Request.Context(), id)
	if err != nil {
		fail(c, "get employee", err)
		return
	}
	c.JSON(http.StatusOK, e.Public())
}

func (h *handler) updateEmployee(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var e attendance.Employee
	if err := c.ShouldBindJSON(&e); err != nil {
		badRequest(c, "invalid employee body")
		return
	}
	if err := e.Validate(); err != nil {
		fail(c, "update employee", err)
		return
	}
	e.ID = id
	updated, err := h.Directory.UpdateEmployee(c.Request.Context(), id, e)
	if err != nil {
		fail(c, "update employee", err)
		return
	}
	h.rosterChanged(c)
	c.JSON(http.StatusOK, updated.Public())
}

func (h *handler) deleteEmployee(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Directory.DeleteEmployee(c.Request.Context(), id); err != nil {
		fail(c, "delete employee", err)
		return
	}
	h.rosterChanged(c)
	c.Status(http.StatusNoContent)
}

// employeeShifts is open to employees for their own calendar only.
func (h *handler) employeeShifts(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	claims, _ := auth.ClaimsFrom(c)
	if claims.Role != auth.RoleAdmin && claims.Subject != strconv.FormatInt(id, 10) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	shifts, err := h.Directory.Shifts(c.Request.Context(), id)
	if err != nil {
		fail(c, "shifts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shifts": shifts, "events": attendance.ShiftEvents(shifts)})
}

func (h *handler) saveShifts(c *gin.Context) {
	var req struct {
		Assignments []attendance.Assignment `json:"assignments" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Assignments) == 0 {
		badRequest(c, "assignments are required")
		return
	}
	for i, a := range req.Assignments {
		if err := a.Validate(); err != nil {
			badRequest(c, "assignment "+strconv.Itoa(i)+": "+err.Error())
			return
		}
	}
	if err := h.Directory.SaveShifts(c.Request.Context(), req.Assignments); err != nil {
		fail(c, "save shifts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": len(req.Assignments)})
}

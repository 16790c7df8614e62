package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendview/internal/board"
)

func (h *handler) attendanceRows(c *gin.Context) {
	date, err := h.Reports.ResolveDate(c.Query("date"))
	if err != nil {
		fail(c, "attendance", err)
		return
	}
	rows, err := h.Reports.Rows(c.Request.Context(), date)
	if err != nil {
		fail(c, "attendance", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "rows": rows})
}

func (h *handler) dailyReport(c *gin.Context) {
	rep, err := h.Reports.DailyReport(c.Request.Context(), c.Query("date"))
	if err != nil {
		fail(c, "daily report", err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// getBoard returns the current view, loading today on first use.
func (h *handler) getBoard(c *gin.Context) {
	if v, ok := h.Board.Current(); ok {
		c.JSON(http.StatusOK, v)
		return
	}
	h.selectDate(c, "")
}

func (h *handler) getBoardDate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"date": h.Board.Date()})
}

func (h *handler) setBoardDate(c *gin.Context) {
	var req struct {
		Date string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	h.selectDate(c, req.Date)
}

func (h *handler) selectDate(c *gin.Context, date string) {
	date, err := h.Reports.ResolveDate(date)
	if err != nil {
		fail(c, "board", err)
		return
	}
	v, err := h.Board.Select(c.Request.Context(), date)
	if errors.Is(err, board.ErrSuperseded) {
		c.JSON(http.StatusConflict, gin.H{"error": "superseded by a newer selection", "date": h.Board.Date()})
		return
	}
	if err != nil {
		fail(c, "board", err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// rosterChanged drops cached reports and redraws a selected board.
func (h *handler) rosterChanged(c *gin.Context) {
	ctx := c.Request.Context()
	h.Reports.RosterChanged(ctx)
	if _, ok := h.Board.Current(); !ok {
		return
	}
	if _, err := h.Board.Refresh(ctx); err != nil && !errors.Is(err, board.ErrSuperseded) {
		log.Printf("board refresh after roster change: %v", err)
	}
}

// Package refresh recomputes daily reports in the background after
// check-ins and keeps the live board current.
package refresh

import (
	"context"
	"errors"
	"log"
	"time"

	"attendview/internal/attendance"
	"attendview/internal/board"
	"attendview/internal/metrics"
	"attendview/internal/queue"
)

// Reports recomputes and caches a day's report.
type Reports interface {
	Refresh(ctx context.Context, date string) (attendance.DailyReport, error)
}

// Worker consumes refresh jobs. Board is optional and is refreshed when a
// job is for the date it shows.
type Worker struct {
	Jobs    queue.Queue
	Reports Reports
	Board   *board.Board
}

// Run processes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	messages, err := w.Jobs.Consume(ctx)
	if err != nil {
		return err
	}
	for msg := range messages {
		w.Handle(ctx, msg)
	}
	return nil
}

// Handle processes one job. Failures are logged and counted, not retried.
func (w *Worker) Handle(ctx context.Context, msg queue.Message) {
	if msg.Type != queue.TypeDayRefresh {
		log.Printf("refresh: ignoring %q job", msg.Type)
		metrics.RefreshJobs.WithLabelValues(msg.Type, "ignored").Inc()
		return
	}

	var job queue.DayRefresh
	if err := msg.Decode(&job); err != nil || !attendance.ValidDate(job.Date) {
		log.Printf("refresh: bad job body %s: %v", msg.Body, err)
		metrics.RefreshJobs.WithLabelValues(msg.Type, "invalid").Inc()
		return
	}

	rep, err := w.Reports.Refresh(ctx, job.Date)
	if err != nil {
		log.Printf("refresh %s failed: %v", job.Date, err)
		metrics.RefreshJobs.WithLabelValues(msg.Type, "error").Inc()
		return
	}
	metrics.RefreshJobs.WithLabelValues(msg.Type, "ok").Inc()
	log.Printf("refresh %s: %d/%d present", job.Date, rep.PresentCount, rep.TotalCount)

	if w.Board != nil && w.Board.Date() == job.Date {
		if _, err := w.Board.Refresh(ctx); err != nil && !errors.Is(err, board.ErrSuperseded) {
			log.Printf("board refresh %s: %v", job.Date, err)
		}
	}
}

// Poll refreshes the board every interval once a date has been selected,
// picking up check-ins processed by another instance.
func Poll(ctx context.Context, b *board.Board, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, ok := b.Current(); !ok {
				continue
			}
			if _, err := b.Refresh(ctx); err != nil && ctx.Err() == nil && !errors.Is(err, board.ErrSuperseded) {
				log.Printf("board poll: %v", err)
			}
		}
	}
}

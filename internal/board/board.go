package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"attendview/internal/attendance"
	"attendview/internal/metrics"
)

var (
	// ErrSuperseded is returned when a newer selection replaced the fetch.
	ErrSuperseded = errors.New("board: superseded by a newer selection")
	// ErrNoSelection is returned by Refresh before any date was selected.
	ErrNoSelection = errors.New("board: no date selected")
)

// ReportSource produces the daily report for a date.
type ReportSource interface {
	DailyReport(ctx context.Context, date string) (attendance.DailyReport, error)
}

// View is what the board currently shows.
type View struct {
	Date      string                 `json:"date"`
	Report    attendance.DailyReport `json:"report"`
	Seq       uint64                 `json:"seq"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// Board applies report fetches in selection order and fans them out.
type Board struct {
	src ReportSource
	seq Sequencer
	now func() time.Time

	mu      sync.RWMutex
	date    string
	current View
	applied bool
	subs    map[chan View]struct{}
}

// New creates a board showing nothing until the first Select.
func New(src ReportSource) *Board {
	return &Board{src: src, now: time.Now, subs: make(map[chan View]struct{})}
}

// Select switches the board to date and fetches its report. When another
// Select starts before this one finishes, this fetch is cancelled and
// ErrSuperseded returned; its result is never shown.
func (b *Board) Select(ctx context.Context, date string) (View, error) {
	b.mu.Lock()
	seq, fctx, done := b.seq.Begin(ctx)
	b.date = date
	b.mu.Unlock()
	defer done()

	rep, err := b.src.DailyReport(fctx, date)
	return b.apply(seq, date, rep, err)
}

// Refresh refetches the selected date under the current selection's sequence
// number. It never cancels a pending Select; its result is dropped if a new
// Select began while it was fetching.
func (b *Board) Refresh(ctx context.Context) (View, error) {
	b.mu.RLock()
	seq, date := b.seq.Latest(), b.date
	b.mu.RUnlock()
	if seq == 0 {
		return View{}, ErrNoSelection
	}

	rep, err := b.src.DailyReport(ctx, date)
	return b.apply(seq, date, rep, err)
}

func (b *Board) apply(seq uint64, date string, rep attendance.DailyReport, err error) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.seq.IsLatest(seq) {
		metrics.BoardApplied.WithLabelValues("stale").Inc()
		return View{}, ErrSuperseded
	}
	if err != nil {
		metrics.BoardApplied.WithLabelValues("error").Inc()
		return View{}, err
	}

	if rep.Date == "" {
		rep.Date = date
	}
	b.current = View{Date: date, Report: rep, Seq: seq, UpdatedAt: b.now()}
	b.applied = true
	metrics.BoardApplied.WithLabelValues("applied").Inc()
	b.broadcast(b.current)
	return b.current, nil
}

// Date returns the selected date, empty meaning today.
func (b *Board) Date() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.date
}

// Current returns the last applied view.
func (b *Board) Current() (View, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current, b.applied
}

// Subscribe registers for applied views. The current view, if any, is sent
// first. A subscriber that falls behind by more than buffer views misses
// the oldest ones. cancel must be called to release the channel.
func (b *Board) Subscribe(buffer int) (<-chan View, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan View, buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	if b.applied {
		ch <- b.current
	}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			close(ch)
			b.mu.Unlock()
		})
	}
}

// broadcast must be called with b.mu held.
func (b *Board) broadcast(v View) {
	for ch := range b.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		// full: drop the oldest and retry once
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

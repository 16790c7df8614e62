package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"attendview/internal/metrics"
)

// ErrCacheMiss is returned by a ReportCache that has no entry for a date.
var ErrCacheMiss = errors.New("attendance: report not cached")

// Source provides the roster and daily attendance records.
type Source interface {
	Employees(ctx context.Context) ([]Employee, error)
	AttendanceByDate(ctx context.Context, date string) ([]Record, error)
}

// ReportCache stores computed daily reports. Every report embeds the roster,
// so Purge drops all of them.
type ReportCache interface {
	Get(ctx context.Context, date string) (DailyReport, error)
	Put(ctx context.Context, rep DailyReport) error
	Purge(ctx context.Context) error
}

// Service derives tracker rows and reports from a Source.
type Service struct {
	src      Source
	policies PolicySet
	cache    ReportCache
	now      func() time.Time
}

// NewService creates a service. cache may be nil.
func NewService(src Source, policies PolicySet, cache ReportCache) *Service {
	return &Service{src: src, policies: policies, cache: cache, now: time.Now}
}

// Policies returns the configured shift policies.
func (s *Service) Policies() PolicySet { return s.policies }

// ResolveDate returns date, or today when date is empty.
func (s *Service) ResolveDate(date string) (string, error) {
	if date == "" {
		return s.now().Format(time.DateOnly), nil
	}
	if !ValidDate(date) {
		return "", ErrInvalidDate
	}
	return date, nil
}

// Roster returns the employees matching search, without passwords.
func (s *Service) Roster(ctx context.Context, search string) ([]Employee, error) {
	emps, err := s.src.Employees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	out := make([]Employee, 0, len(emps))
	for _, e := range FilterEmployees(emps, search) {
		out = append(out, e.Public())
	}
	return out, nil
}

// Rows returns the tracker rows for date.
func (s *Service) Rows(ctx context.Context, date string) ([]Row, error) {
	date, err := s.ResolveDate(date)
	if err != nil {
		return nil, err
	}
	roster, records, err := s.load(ctx, date)
	if err != nil {
		return nil, err
	}
	rows := BuildRows(records, roster, s.policies)
	for _, r := range rows {
		metrics.Classifications.WithLabelValues(string(r.AttendanceStatus)).Inc()
		metrics.Punctuality.WithLabelValues(string(r.OnTimeStatus)).Inc()
	}
	return rows, nil
}

// DailyReport returns the report for date, served from the cache when present.
func (s *Service) DailyReport(ctx context.Context, date string) (DailyReport, error) {
	date, err := s.ResolveDate(date)
	if err != nil {
		return DailyReport{}, err
	}

	if s.cache != nil {
		rep, err := s.cache.Get(ctx, date)
		switch {
		case err == nil:
			metrics.ReportCache.WithLabelValues("hit").Inc()
			return rep, nil
		case errors.Is(err, ErrCacheMiss):
			metrics.ReportCache.WithLabelValues("miss").Inc()
		default:
			metrics.ReportCache.WithLabelValues("error").Inc()
			log.Printf("report cache get %s: %v", date, err)
		}
	}
	return s.Refresh(ctx, date)
}

// Refresh recomputes the report for date and stores it in the cache.
func (s *Service) Refresh(ctx context.Context, date string) (DailyReport, error) {
	date, err := s.ResolveDate(date)
	if err != nil {
		return DailyReport{}, err
	}
	roster, records, err := s.load(ctx, date)
	if err != nil {
		return DailyReport{}, err
	}

	rep := s.policies.Aggregate(roster, records)
	rep.Date = date
	if s.cache != nil {
		if err := s.cache.Put(ctx, rep); err != nil {
			log.Printf("report cache put %s: %v", date, err)
		}
	}
	return rep, nil
}

// RosterChanged drops cached reports after an employee was added, edited or
// removed.
func (s *Service) RosterChanged(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Purge(ctx); err != nil {
		metrics.ReportCache.WithLabelValues("error").Inc()
		log.Printf("report cache purge: %v", err)
	}
}

func (s *Service) load(ctx context.Context, date string) ([]Employee, []Record, error) {
	roster, err := s.src.Employees(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list employees: %w", err)
	}
	records, err := s.src.AttendanceByDate(ctx, date)
	if err != nil {
		return nil, nil, fmt.Errorf("list attendance %s: %w", date, err)
	}
	return roster, records, nil
}

package operations

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrReportNotFound is returned when no report has the requested ID.
var ErrReportNotFound = errors.New("report not found")

// Reporter stores execution reports.
type Reporter interface {
	GetReport(id string) (Report[any, any], error)
	GetReports() ([]Report[any, any], error)
	AddReport(report Report[any, any]) error
	GetExecutionReports(reportID string) ([]Report[any, any], error)
}

// MemoryReporter keeps reports in memory. It is safe for concurrent use.
type MemoryReporter struct {
	reports []Report[any, any]
	mu      sync.RWMutex
}

// MemoryReporterOption configures a MemoryReporter.
type MemoryReporterOption func(*MemoryReporter)

// WithReports seeds the reporter, typically with reports of an interrupted run.
func WithReports(reports []Report[any, any]) MemoryReporterOption {
	return func(mr *MemoryReporter) {
		mr.reports = slices.Clone(reports)
	}
}

// NewMemoryReporter creates a new MemoryReporter.
func NewMemoryReporter(options ...MemoryReporterOption) *MemoryReporter {
	reporter := &MemoryReporter{}
	for _, opt := range options {
		opt(reporter)
	}

	return reporter
}

// AddReport adds a report to the memory reporter.
func (e *MemoryReporter) AddReport(report Report[any, any]) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reports = append(e.reports, report)

	return nil
}

// GetReports returns all reports.
func (e *MemoryReporter) GetReports() ([]Report[any, any], error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return slices.Clone(e.reports), nil
}

// GetReport returns the report with the given ID, or ErrReportNotFound.
func (e *MemoryReporter) GetReport(id string) (Report[any, any], error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, report := range e.reports {
		if report.ID == id {
			return report, nil
		}
	}

	return Report[any, any]{}, fmt.Errorf("report_id %s: %w", id, ErrReportNotFound)
}

// GetExecutionReports returns the report seqID and, recursively, the reports of its children.
// Children come before their parent.
func (e *MemoryReporter) GetExecutionReports(seqID string) ([]Report[any, any], error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var allReports []Report[any, any]

	var getReportsRecursively func(id string) error
	getReportsRecursively = func(id string) error {
		var report Report[any, any]
		found := false

		for _, r := range e.reports {
			if r.ID == id {
				report = r
				found = true

				break
			}
		}

		if !found {
			return fmt.Errorf("report_id %s: %w", id, ErrReportNotFound)
		}

		for _, childID := range report.ChildOperationReports {
			if err := getReportsRecursively(childID); err != nil {
				return err
			}
		}
		allReports = append(allReports, report)

		return nil
	}

	if err := getReportsRecursively(seqID); err != nil {
		return nil, err
	}

	return allReports, nil
}

// RecentReporter wraps a Reporter and remembers the reports added through it. Sequences use it
// to collect the reports of their children.
type RecentReporter struct {
	Reporter
	recentReports []Report[any, any]
	mu            sync.RWMutex
}

// AddReport adds a report to the recent reporter.
func (e *RecentReporter) AddReport(report Report[any, any]) error {
	if err := e.Reporter.AddReport(report); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.recentReports = append(e.recentReports, report)

	return nil
}

// GetRecentReports returns the reports added through this reporter.
func (e *RecentReporter) GetRecentReports() []Report[any, any] {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return slices.Clone(e.recentReports)
}

// NewRecentMemoryReporter creates a new RecentReporter.
func NewRecentMemoryReporter(reporter Reporter) *RecentReporter {
	r := &RecentReporter{
		Reporter:      reporter,
		recentReports: []Report[any, any]{},
	}

	return r
}


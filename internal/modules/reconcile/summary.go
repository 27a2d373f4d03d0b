package reconcile

import "fmt"

type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
)

// RecordError is one non-fatal, per-record failure inside a pass.
type RecordError struct {
	Source string `json:"source"`
	Key    string `json:"key"`
	Error  string `json:"error"`
}

// Summary accumulates what one ingestion pass did: entity/edge
// counters keyed by bucket, non-fatal record errors, and warnings for
// unmatched cross-references. A pass returns its Summary instead of
// throwing; only infrastructure failures surface as errors.
type Summary struct {
	Status   Status         `json:"status"`
	Counts   map[string]int `json:"counts"`
	Errors   []RecordError  `json:"errors"`
	Warnings []string       `json:"warnings"`
}

func NewSummary() *Summary {
	return &Summary{
		Status:   StatusSuccess,
		Counts:   map[string]int{},
		Errors:   []RecordError{},
		Warnings: []string{},
	}
}

func (s *Summary) Add(bucket string, n int) {
	if n != 0 {
		s.Counts[bucket] += n
	}
}

func (s *Summary) RecordErrorf(source, key, format string, args ...interface{}) {
	s.Errors = append(s.Errors, RecordError{
		Source: source,
		Key:    key,
		Error:  fmt.Sprintf(format, args...),
	})
}

func (s *Summary) Warnf(format string, args ...interface{}) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// Finalize settles the pass status: partial when any record-level
// error was recorded, success otherwise. StatusError is only set by
// the orchestrator on infrastructure failure.
func (s *Summary) Finalize() *Summary {
	if s.Status == StatusError {
		return s
	}
	if len(s.Errors) > 0 {
		s.Status = StatusPartial
	} else {
		s.Status = StatusSuccess
	}
	return s
}

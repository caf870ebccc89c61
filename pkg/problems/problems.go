// Package problems defines the abstract problem records emitted during
// library construction and the sink they flow through. The core never
// formats messages for display; rendering is left to the caller.
package problems

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// Related points at a secondary location that gives a problem context,
// typically the conflicting prior declaration.
type Related struct {
	Message string
	URI     string
	Offset  int
	Length  int
}

// Problem is a single finding tied to a source range.
type Problem struct {
	Code     Code
	Severity Severity
	Message  string
	URI      string
	Offset   int
	Length   int
	Context  []Related
}

// String renders a compact single-line form, used in logs and tests.
func (p Problem) String() string {
	return fmt.Sprintf("%s: %s:%d: %s [%s]", p.Severity, p.URI, p.Offset, p.Message, p.Code)
}

// Reporter is the single sink all user-visible problems flow through.
type Reporter interface {
	Report(p Problem)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(p Problem)

// Report calls f(p).
func (f ReporterFunc) Report(p Problem) { f(p) }

// Collector accumulates problems, preserving report order.
// The loader is single-threaded, so no locking is needed.
type Collector struct {
	Problems []Problem
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Report appends the problem.
func (c *Collector) Report(p Problem) {
	c.Problems = append(c.Problems, p)
}

// Count returns the number of collected problems.
func (c *Collector) Count() int {
	return len(c.Problems)
}

// ByCode returns the problems carrying the given code, in report order.
func (c *Collector) ByCode(code Code) []Problem {
	var out []Problem
	for _, p := range c.Problems {
		if p.Code == code {
			out = append(out, p)
		}
	}
	return out
}

// Errors returns only the problems with error severity.
func (c *Collector) Errors() []Problem {
	var out []Problem
	for _, p := range c.Problems {
		if p.Severity == SeverityError {
			out = append(out, p)
		}
	}
	return out
}

// Codes returns the distinct codes seen, sorted.
func (c *Collector) Codes() []Code {
	seen := make(map[Code]struct{})
	for _, p := range c.Problems {
		seen[p.Code] = struct{}{}
	}
	codes := make([]Code, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// LogReporter forwards every problem to a structured logger.
type LogReporter struct {
	Logger *slog.Logger
}

// Report logs the problem at a level matching its severity.
func (r LogReporter) Report(p Problem) {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	level := slog.LevelInfo
	switch p.Severity {
	case SeverityError:
		level = slog.LevelError
	case SeverityWarning:
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, p.Message,
		"code", string(p.Code),
		"uri", p.URI,
		"offset", p.Offset,
		"length", p.Length,
	)
}

// Tee fans a problem out to several reporters.
type Tee []Reporter

// Report forwards to every reporter in order.
func (t Tee) Report(p Problem) {
	for _, r := range t {
		r.Report(p)
	}
}

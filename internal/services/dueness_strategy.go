// Package services hosts the engine: it owns the live state, persists it after
// every transition, and runs the periodic allowance and interest jobs.
//
// This file implements the Strategy Pattern for schedule dueness checking.
// Each cadence (weekly, monthly) has its own strategy that encapsulates the
// logic for determining if a job is due.

package services

import (
	"fmt"
	"time"
)

// Cadence names how often a scheduled job repeats.
type Cadence string

const (
	Weekly  Cadence = "weekly"
	Monthly Cadence = "monthly"
)

// DuenessChecker is the strategy interface for checking if a scheduled job is due.
type DuenessChecker interface {
	// IsDue returns true if the job should run based on the last execution
	// time and the current time. anchor fixes the target day for cadences
	// that have one.
	IsDue(lastExecution, now, anchor time.Time) bool
}

// WeeklyChecker implements DuenessChecker for weekly jobs.
type WeeklyChecker struct{}

// IsDue returns true if 7 or more days have passed since last execution.
func (WeeklyChecker) IsDue(lastExecution, now, _ time.Time) bool {
	if lastExecution.IsZero() {
		return true
	}
	daysSince := now.Sub(lastExecution).Hours() / 24
	return daysSince >= 7
}

// MonthlyChecker implements DuenessChecker for monthly jobs.
type MonthlyChecker struct{}

// IsDue returns true if we're in a new month and have reached the anchor's day.
func (MonthlyChecker) IsDue(lastExecution, now, anchor time.Time) bool {
	if lastExecution.IsZero() {
		return true
	}

	if lastExecution.Year() == now.Year() && lastExecution.Month() == now.Month() {
		return false
	}

	targetDay := 1
	if !anchor.IsZero() {
		targetDay = anchor.Day()
	}
	lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDayOfMonth {
		targetDay = lastDayOfMonth
	}

	return now.Day() >= targetDay
}

var duenessStrategies = map[Cadence]DuenessChecker{
	Weekly:  WeeklyChecker{},
	Monthly: MonthlyChecker{},
}

// GetDuenessChecker returns the checker for a cadence.
func GetDuenessChecker(c Cadence) (DuenessChecker, error) {
	checker, ok := duenessStrategies[c]
	if !ok {
		return nil, fmt.Errorf("unknown cadence: %s", c)
	}
	return checker, nil
}

package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxSteps is the default step budget of one match attempt.
const DefaultMaxSteps = 10000

// QuotaEnforcer counts matcher steps for one match attempt and enforces a
// maximum. Patterns with several wildcards backtrack combinatorially on
// long words; the quota turns that into a bounded no-match.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check increments the step counter and validates against the limit.
//
// Returns StepsExceededError if the quota is exceeded.
func (q *QuotaEnforcer) Check(word, rule string) error {
	q.current++
	if q.current > q.maxSteps {
		return &StepsExceededError{
			Word:  word,
			Rule:  rule,
			Steps: q.current,
			Limit: q.maxSteps,
		}
	}
	return nil
}

// Reset resets the step counter to 0.
func (q *QuotaEnforcer) Reset() {
	q.current = 0
}

// Current returns the current step count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the maximum steps limit.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError is returned when a match attempt exceeds its step
// quota. The engine treats the rule as not matching.
type StepsExceededError struct {
	Word  string
	Rule  string
	Steps int
	Limit int
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("matching %q against %s exceeded step quota: %d steps > %d limit",
		e.Word, e.Rule, e.Steps, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}

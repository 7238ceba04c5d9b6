package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents a problem detected while analyzing a word.
//
// Runtime errors never abort an analysis. The engine logs them and skips
// the offending step:
//   - Unknown rule set: a "(:name)" action names no rule set
//   - Unknown rule: a "TRY(!name)" action names no rule
//   - Operation failed: a catalogue operation returned an error
//   - Depth exceeded: nested dispatch went deeper than the configured limit
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Word is the string being matched when the error occurred.
	Word string

	// Rule identifies the rule whose action failed.
	Rule string

	// Details contains additional context.
	Details map[string]string

	err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownRuleSet indicates a rule-set action names no rule set.
	ErrCodeUnknownRuleSet RuntimeErrorCode = "UNKNOWN_RULESET"

	// ErrCodeUnknownRule indicates a TRY action names no rule.
	ErrCodeUnknownRule RuntimeErrorCode = "UNKNOWN_RULE"

	// ErrCodeOperationFailed indicates a catalogue operation returned an error.
	ErrCodeOperationFailed RuntimeErrorCode = "OPERATION_FAILED"

	// ErrCodeDepthExceeded indicates nested dispatch hit the depth limit.
	ErrCodeDepthExceeded RuntimeErrorCode = "DEPTH_EXCEEDED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Word != "" && e.Rule != "" {
		return fmt.Sprintf("%s: %s (word=%s, rule=%s)", e.Code, e.Message, e.Word, e.Rule)
	}
	if e.Word != "" {
		return fmt.Sprintf("%s: %s (word=%s)", e.Code, e.Message, e.Word)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the operation error behind an OPERATION_FAILED error.
func (e *RuntimeError) Unwrap() error {
	return e.err
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsDepthError returns true if the error is a depth exceeded error.
// Uses errors.As to handle wrapped errors.
func IsDepthError(err error) bool {
	return hasCode(err, ErrCodeDepthExceeded)
}

// IsLookupError returns true if the error reports an unknown rule set or
// rule. Uses errors.As to handle wrapped errors.
func IsLookupError(err error) bool {
	return hasCode(err, ErrCodeUnknownRuleSet) || hasCode(err, ErrCodeUnknownRule)
}

// IsOperationError returns true if a catalogue operation failed.
func IsOperationError(err error) bool {
	return hasCode(err, ErrCodeOperationFailed)
}

// NewUnknownRuleSetError creates a RuntimeError for a missing rule set.
func NewUnknownRuleSetError(word, rule, ruleSet string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeUnknownRuleSet,
		Message: fmt.Sprintf("unknown rule set %q", ruleSet),
		Word:    word,
		Rule:    rule,
		Details: map[string]string{"ruleset": ruleSet},
	}
}

// NewUnknownRuleError creates a RuntimeError for a missing named rule.
func NewUnknownRuleError(word, rule, target string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeUnknownRule,
		Message: fmt.Sprintf("unknown rule %q", target),
		Word:    word,
		Rule:    rule,
		Details: map[string]string{"target": target},
	}
}

// NewOperationError wraps the error returned by catalogue operation op.
func NewOperationError(word, rule, op string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeOperationFailed,
		Message: fmt.Sprintf("operation @%s: %v", op, err),
		Word:    word,
		Rule:    rule,
		Details: map[string]string{"op": op},
		err:     err,
	}
}

// NewDepthError creates a RuntimeError for nested dispatch past maxDepth.
func NewDepthError(word string, depth, maxDepth int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeDepthExceeded,
		Message: fmt.Sprintf("nested dispatch exceeded max depth (%d > %d)", depth, maxDepth),
		Word:    word,
		Details: map[string]string{
			"depth":     fmt.Sprintf("%d", depth),
			"max_depth": fmt.Sprintf("%d", maxDepth),
		},
	}
}

package harness

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/morph/internal/ir"
	"github.com/roach88/morph/internal/lexicon"
	"github.com/roach88/morph/internal/store"
)

// validIdentifier matches valid SQL identifiers (table/column names).
// Only allows alphanumeric and underscore, must start with letter or underscore.
// This prevents SQL injection via identifier interpolation.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s\n", i+1, event.Op, event.Word, event.Status)
		}
	}

	return buf.String()
}

// wordFor returns the word an assertion names: the analyzed word if the
// flow analyzed it, the stored word otherwise.
func wordFor(result *Result, actx *AssertionContext, name string) (*lexicon.Word, bool) {
	name = lexicon.Normalize(name)
	if w, ok := result.Words[name]; ok {
		return w, true
	}
	if actx != nil && actx.Store != nil {
		if w, ok, err := actx.Store.LookupWord(actx.Ctx, name); err == nil && ok {
			return w, true
		}
	}
	return nil, false
}

// assertCategory checks the word holds a category subsumed by the named
// one at the assertion's level or a more likely one. With negate set it
// checks the word holds no such category at any level.
func assertCategory(result *Result, actx *AssertionContext, assertion Assertion, negate bool) error {
	typ := AssertCategory
	if negate {
		typ = AssertNotCategory
	}
	cat, ok := actx.Tables.Hierarchy().Lookup(assertion.Category)
	if !ok {
		return fmt.Errorf("%s assertion: unknown category %q", typ, assertion.Category)
	}
	w, ok := wordFor(result, actx, assertion.Word)
	if !ok {
		return &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("word %s", assertion.Word),
			Actual:   "word not found",
			Trace:    result.Trace,
		}
	}

	level := lexicon.Unlikely
	if assertion.Level != nil && !negate {
		level = *assertion.Level
	}
	has := w.IsA(cat, level)
	if has == !negate {
		return nil
	}

	expected := fmt.Sprintf("%s is a %s at level <= %d", w.Name(), cat.Name(), level)
	if negate {
		expected = fmt.Sprintf("%s is not a %s", w.Name(), cat.Name())
	}
	return &AssertionError{
		Type:     typ,
		Expected: expected,
		Actual:   fmt.Sprintf("categories %v", w.Crush().Categories),
		Trace:    result.Trace,
	}
}

// assertRoots checks the word's recorded roots, in order.
func assertRoots(result *Result, actx *AssertionContext, assertion Assertion) error {
	w, ok := wordFor(result, actx, assertion.Word)
	if !ok {
		return &AssertionError{
			Type:     AssertRoots,
			Expected: fmt.Sprintf("word %s", assertion.Word),
			Actual:   "word not found",
			Trace:    result.Trace,
		}
	}
	got := w.Roots()
	if len(got) == 0 && len(assertion.Roots) == 0 {
		return nil
	}
	if !slices.Equal(got, assertion.Roots) {
		return &AssertionError{
			Type:     AssertRoots,
			Expected: fmt.Sprintf("roots %v", assertion.Roots),
			Actual:   fmt.Sprintf("roots %v", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertCompoundOf checks the word records the given halves.
func assertCompoundOf(result *Result, actx *AssertionContext, assertion Assertion) error {
	w, ok := wordFor(result, actx, assertion.Word)
	if ok {
		for _, parts := range w.CompoundOf() {
			if slices.Equal(parts, assertion.Parts) {
				return nil
			}
		}
	}
	actual := "word not found"
	if ok {
		actual = fmt.Sprintf("compound_of %v", w.CompoundOf())
	}
	return &AssertionError{
		Type:     AssertCompoundOf,
		Expected: fmt.Sprintf("%s compound of %v", assertion.Word, assertion.Parts),
		Actual:   actual,
		Trace:    result.Trace,
	}
}

// assertStatusCount checks how many analyses ended with the status.
func assertStatusCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op == OpAnalyze && event.Status == assertion.Status {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertStatusCount,
			Expected: fmt.Sprintf("%d analyses with status %s", assertion.Count, assertion.Status),
			Actual:   fmt.Sprintf("%d analyses", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalState checks if a store table contains expected values.
// Queries the table with parameterized SQL and validates expected values
// using subset semantics.
//
// Security: Table and column names are validated against a whitelist pattern
// to prevent SQL injection via identifier interpolation.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	if assertion.Table == "" {
		return fmt.Errorf("final_state assertion requires table name")
	}

	// Validate table name to prevent SQL injection (identifiers can't be parameterized)
	if !validIdentifier.MatchString(assertion.Table) {
		return fmt.Errorf("invalid table name %q: must match pattern %s", assertion.Table, validIdentifier.String())
	}

	// Build WHERE clause with parameterized SQL (never interpolate values)
	whereSQL, whereArgs, err := buildWhereClause(assertion.Where)
	if err != nil {
		return err // Identifier validation failed
	}

	// Build SELECT query (table name validated above)
	query := fmt.Sprintf("SELECT * FROM %s", assertion.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	// Execute query
	rows, err := st.DB().QueryContext(ctx, query, whereArgs...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	// Get column names
	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	// Scan the first row
	if !rows.Next() {
		// Row not found
		whereDesc := formatWhereClause(assertion.Where)
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, whereDesc),
			Actual:   "row not found",
		}
	}

	// Prepare scan destinations
	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := rows.Scan(valuePtrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	// Check for multiple matching rows (would indicate ambiguous assertion)
	if rows.Next() {
		whereDesc := formatWhereClause(assertion.Where)
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, whereDesc),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	// Build map of column -> value
	actualRow := make(map[string]interface{})
	for i, col := range columns {
		actualRow[col] = values[i]
	}

	// Check each expected field (subset semantics - only check fields in Expect)
	for key, expectedValue := range assertion.Expect {
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in result columns: %v", key, columns),
			}
		}

		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}

	return nil
}

// buildWhereClause constructs parameterized WHERE clause from assertion.Where.
// Returns SQL fragment, arguments slice, and error. Keys are sorted for determinism.
//
// Security: Column names are validated against a whitelist pattern to prevent
// SQL injection via identifier interpolation.
func buildWhereClause(where map[string]interface{}) (string, []interface{}, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	// Sort keys for deterministic query generation
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys))

	for _, key := range keys {
		// Validate column name to prevent SQL injection
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, toSQLValue(where[key]))
	}

	return strings.Join(clauses, " AND "), args, nil
}

// toSQLValue converts an interface{} value to a SQL-compatible value.
func toSQLValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string, int, int64, bool:
		return val
	default:
		// For other types, convert to string
		return fmt.Sprintf("%v", val)
	}
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]interface{}) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	// Sort keys for deterministic output
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// stateValuesEqual compares expected and actual values from store tables.
// Handles type coercion for SQLite values which may be returned as different types.
func stateValuesEqual(expected, actual interface{}) bool {
	// Handle nil cases
	if expected == nil && actual == nil {
		return true
	}
	if expected == nil || actual == nil {
		return false
	}

	// SQLite TEXT columns may come back as []byte
	if b, ok := actual.([]byte); ok {
		actual = string(b)
	}

	switch exp := expected.(type) {
	case string:
		if actualStr, ok := actual.(string); ok {
			return exp == actualStr
		}
		return false
	case int:
		if actualInt, ok := actual.(int64); ok {
			return int64(exp) == actualInt
		}
		if actualInt, ok := actual.(int); ok {
			return exp == actualInt
		}
		return false
	case int64:
		if actualInt, ok := actual.(int64); ok {
			return exp == actualInt
		}
		return false
	case bool:
		if actualBool, ok := actual.(bool); ok {
			return exp == actualBool
		}
		// SQLite stores booleans as integers
		if actualInt, ok := actual.(int64); ok {
			return exp == (actualInt != 0)
		}
		return false
	}

	// Fallback to DeepEqual for complex types
	return reflect.DeepEqual(expected, actual)
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store  *store.Store
	Tables *ir.Tables
	Ctx    context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides the tables and database for word and
// final_state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertCategory, AssertNotCategory:
			if actx == nil || actx.Tables == nil {
				err = fmt.Errorf("assertion[%d]: %s requires tables", i, assertion.Type)
			} else {
				err = assertCategory(result, actx, assertion, assertion.Type == AssertNotCategory)
			}
		case AssertRoots:
			err = assertRoots(result, actx, assertion)
		case AssertCompoundOf:
			err = assertCompoundOf(result, actx, assertion)
		case AssertStatusCount:
			err = assertStatusCount(result.Trace, assertion)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

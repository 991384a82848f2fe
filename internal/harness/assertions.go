package harness

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/mensur/internal/engine"
	"github.com/roach88/mensur/internal/store"
)

// validIdentifier matches valid SQL identifiers (table/column names).
// Only allows alphanumeric and underscore, must start with letter or underscore.
// This prevents SQL injection via identifier interpolation.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is returned when an assertion fails.
// It includes the rendered text to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Text     string // Rendered text for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Text != "" {
		fmt.Fprintf(&buf, "\nRendered:\n  %s\n", e.Text)
	}
	return buf.String()
}

func assertContains(result *Result, assertion Assertion, want bool) error {
	if strings.Contains(result.Text, assertion.Text) == want {
		return nil
	}
	expected := fmt.Sprintf("text containing %q", assertion.Text)
	if !want {
		expected = fmt.Sprintf("text without %q", assertion.Text)
	}
	return &AssertionError{
		Type:     assertion.Type,
		Expected: expected,
		Actual:   result.Text,
		Text:     result.Text,
	}
}

// assertTokenCount checks how many tokens of one kind were emitted.
func assertTokenCount(result *Result, assertion Assertion) error {
	count := 0
	for _, tok := range result.Tokens {
		if tok.Kind.String() == assertion.Kind {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTokenCount,
			Expected: fmt.Sprintf("%d %s tokens", assertion.Count, assertion.Kind),
			Actual:   fmt.Sprintf("%d %s tokens", count, assertion.Kind),
			Text:     result.Text,
		}
	}
	return nil
}

func assertTieCount(result *Result, assertion Assertion) error {
	count := 0
	for _, tok := range result.Tokens {
		if tok.Tie {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTieCount,
			Expected: fmt.Sprintf("%d ties", assertion.Count),
			Actual:   fmt.Sprintf("%d ties", count),
			Text:     result.Text,
		}
	}
	return nil
}

func assertBarCount(result *Result, assertion Assertion) error {
	if result.Bars != assertion.Count {
		return &AssertionError{
			Type:     AssertBarCount,
			Expected: fmt.Sprintf("%d bars", assertion.Count),
			Actual:   fmt.Sprintf("%d bars", result.Bars),
			Text:     result.Text,
		}
	}
	return nil
}

// assertTokenOrder checks if tokens appear in the specified order.
// Tokens don't need to be consecutive (intervening tokens are allowed).
func assertTokenOrder(result *Result, assertion Assertion) error {
	next := 0
	for _, tok := range result.Tokens {
		if next < len(assertion.Tokens) && tok.String() == assertion.Tokens[next] {
			next++
		}
	}
	if next < len(assertion.Tokens) {
		return &AssertionError{
			Type:     AssertTokenOrder,
			Expected: fmt.Sprintf("tokens in order: %v", assertion.Tokens),
			Actual:   fmt.Sprintf("missing %q after %v", assertion.Tokens[next], assertion.Tokens[:next]),
			Text:     result.Text,
		}
	}
	return nil
}

func assertLogContains(result *Result, assertion Assertion) error {
	if strings.Contains(result.Logs, assertion.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertLogContains,
		Expected: fmt.Sprintf("log containing %q", assertion.Text),
		Actual:   strings.TrimSpace(result.Logs),
	}
}

// assertReplayMatches renders the stored rendering again from the store
// and compares hashes.
func assertReplayMatches(ctx context.Context, st *store.Store, result *Result) error {
	if result.RenderingID == "" {
		return &AssertionError{
			Type:     AssertReplayMatches,
			Expected: "a stored rendering",
			Actual:   "render failed: " + result.ErrorMessage,
		}
	}
	rr, err := st.Replay(ctx, result.RenderingID, engine.Replayer{})
	if err != nil {
		return &AssertionError{
			Type:     AssertReplayMatches,
			Expected: fmt.Sprintf("replay of %s", result.RenderingID),
			Actual:   fmt.Sprintf("replay error: %v", err),
		}
	}
	if !rr.Match {
		return &AssertionError{
			Type:     AssertReplayMatches,
			Expected: fmt.Sprintf("hash %s", rr.StoredHash),
			Actual:   fmt.Sprintf("hash %s with text %s", rr.ReplayedHash, rr.ReplayedText),
			Text:     rr.StoredText,
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

	// Identifiers can't be parameterized.
	if !validIdentifier.MatchString(assertion.Table) {
		return fmt.Errorf("invalid table name %q: must match pattern %s", assertion.Table, validIdentifier.String())
	}

	whereSQL, whereArgs, err := buildWhereClause(assertion.Where)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT * FROM %s", assertion.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	rows, err := st.Query(ctx, query, whereArgs...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	if !rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "row not found",
		}
	}

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	// More than one match would make the assertion ambiguous.
	if rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := make(map[string]any)
	for i, col := range columns {
		actualRow[col] = values[i]
	}

	// Subset semantics: only fields named in Expect are checked. Keys are
	// sorted so the first reported mismatch is stable.
	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		expectedValue := assertion.Expect[key]
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
func buildWhereClause(where map[string]any) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, toSQLValue(where[key]))
	}

	return strings.Join(clauses, " AND "), args, nil
}

// toSQLValue converts a YAML-decoded value to a SQL-compatible value.
func toSQLValue(v any) any {
	switch val := v.(type) {
	case string, int, int64, float64, bool:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

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
func stateValuesEqual(expected, actual any) bool {
	if expected == nil && actual == nil {
		return true
	}
	if expected == nil || actual == nil {
		return false
	}

	// go-sqlite3 returns TEXT columns as string and BLOB columns as []byte.
	if b, ok := actual.([]byte); ok {
		actual = string(b)
	}

	switch exp := expected.(type) {
	case string:
		actualStr, ok := actual.(string)
		return ok && exp == actualStr
	case int:
		switch a := actual.(type) {
		case int64:
			return int64(exp) == a
		case int:
			return exp == a
		case float64:
			return float64(exp) == a
		}
		return false
	case int64:
		actualInt, ok := actual.(int64)
		return ok && exp == actualInt
	case float64:
		switch a := actual.(type) {
		case float64:
			return exp == a
		case int64:
			return exp == float64(a)
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

	return reflect.DeepEqual(expected, actual)
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for final_state and
// replay_matches assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertContains:
			err = assertContains(result, assertion, true)
		case AssertNotContains:
			err = assertContains(result, assertion, false)
		case AssertTokenCount:
			err = assertTokenCount(result, assertion)
		case AssertTieCount:
			err = assertTieCount(result, assertion)
		case AssertBarCount:
			err = assertBarCount(result, assertion)
		case AssertTokenOrder:
			err = assertTokenOrder(result, assertion)
		case AssertLogContains:
			err = assertLogContains(result, assertion)
		case AssertReplayMatches, AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires database context", i, assertion.Type)
			} else if assertion.Type == AssertReplayMatches {
				err = assertReplayMatches(actx.Ctx, actx.Store, result)
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

// Package security gates query execution: pattern-based SQL validation,
// role-based permission checks, and sliding-window rate limiting.
//
// The validator is a defense-in-depth textual filter, not a parser: it
// cannot prove semantic safety, only the absence of token patterns strongly
// associated with mutation, privilege escalation, or injection.
package security

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError reports a query rejected before reaching the database. It
// carries the reason, including the offending pattern when one matched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("query validation failed: %s", e.Reason)
}

// dangerousPattern pairs a compiled pattern with the label reported when it
// matches. Order matters: the first match wins.
type dangerousPattern struct {
	re    *regexp.Regexp
	label string
}

// Patterns associated with mutation, privilege escalation, or injection.
// Keywords match whole words only; xp_/sp_ catch extended and system stored
// procedure names; `--`, `/*` and `;` catch comment and stacking injection.
var dangerousPatterns = []dangerousPattern{
	{regexp.MustCompile(`(?i)\bDROP\b`), "DROP"},
	{regexp.MustCompile(`(?i)\bTRUNCATE\b`), "TRUNCATE"},
	{regexp.MustCompile(`(?i)\bDELETE\b`), "DELETE"},
	{regexp.MustCompile(`(?i)\bINSERT\b`), "INSERT"},
	{regexp.MustCompile(`(?i)\bUPDATE\b`), "UPDATE"},
	{regexp.MustCompile(`(?i)\bALTER\b`), "ALTER"},
	{regexp.MustCompile(`(?i)\bCREATE\b`), "CREATE"},
	{regexp.MustCompile(`(?i)\bEXEC\b`), "EXEC"},
	{regexp.MustCompile(`(?i)\bEXECUTE\b`), "EXECUTE"},
	{regexp.MustCompile(`(?i)\bGRANT\b`), "GRANT"},
	{regexp.MustCompile(`(?i)\bREVOKE\b`), "REVOKE"},
	{regexp.MustCompile(`(?i)\bDENY\b`), "DENY"},
	{regexp.MustCompile(`(?i)\bBACKUP\b`), "BACKUP"},
	{regexp.MustCompile(`(?i)\bRESTORE\b`), "RESTORE"},
	{regexp.MustCompile(`(?i)\bSHUTDOWN\b`), "SHUTDOWN"},
	{regexp.MustCompile(`(?i)\bxp_`), "xp_"},
	{regexp.MustCompile(`(?i)\bsp_`), "sp_"},
	{regexp.MustCompile(`--`), "--"},
	{regexp.MustCompile(`/\*`), "/*"},
	{regexp.MustCompile(`;\s*\S`), "; (statement stacking)"},
}

// readonlyPattern anchors the statements permitted in read-only mode.
var readonlyPattern = regexp.MustCompile(`(?i)^\s*(SELECT|WITH)\b`)

// Validator rejects dangerous SQL and, in read-only mode, non-SELECT
// statements. It is stateless and safe for concurrent use.
type Validator struct {
	readOnly bool
}

// NewValidator returns a validator. With readOnly set, only SELECT and WITH
// statements pass.
func NewValidator(readOnly bool) *Validator {
	return &Validator{readOnly: readOnly}
}

// ReadOnly reports whether the validator restricts to SELECT/WITH.
func (v *Validator) ReadOnly() bool { return v.readOnly }

// Validate checks a SQL query, returning whether it is allowed and the
// rejection reason when it is not.
func (v *Validator) Validate(sql string) (bool, string) {
	if strings.TrimSpace(sql) == "" {
		return false, "query cannot be empty"
	}

	// Leading full-line comments are a deliberate carve-out for descriptive
	// template headers. They are stripped only as a contiguous prefix; the
	// same marker anywhere past the first non-comment line still fails the
	// dangerous-pattern scan below.
	normalized := stripLeadingComments(sql)
	if normalized == "" {
		return false, "query cannot be empty (only comments provided)"
	}

	for _, p := range dangerousPatterns {
		if p.re.MatchString(normalized) {
			return false, fmt.Sprintf("query contains disallowed pattern: %s", p.label)
		}
	}

	if v.readOnly && !readonlyPattern.MatchString(normalized) {
		return false, "only SELECT queries are allowed in read-only mode"
	}

	return true, ""
}

// ValidateOrRaise checks a SQL query and returns a typed ValidationError on
// failure.
func (v *Validator) ValidateOrRaise(sql string) error {
	if ok, reason := v.Validate(sql); !ok {
		return &ValidationError{Reason: reason}
	}
	return nil
}

// stripLeadingComments removes the contiguous prefix of lines whose trimmed
// text starts with the line-comment marker, then trims the remainder.
func stripLeadingComments(sql string) string {
	lines := strings.Split(strings.TrimSpace(sql), "\n")
	i := 0
	for i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), "--") {
		i++
	}
	return strings.TrimSpace(strings.Join(lines[i:], "\n"))
}

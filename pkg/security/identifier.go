package security

import (
	"fmt"
	"regexp"
)

// identifierPattern permits word characters, brackets, and dots: enough for
// Table, [Table], and schema.table forms, nothing that can smuggle SQL.
var identifierPattern = regexp.MustCompile(`^[\w\[\]\.]+$`)

// SanitizeIdentifier validates a SQL identifier (table or column name) for
// safe interpolation into a query. It returns the identifier unchanged on
// success.
func SanitizeIdentifier(identifier string) (string, error) {
	if identifier == "" {
		return "", fmt.Errorf("identifier cannot be empty")
	}
	if !identifierPattern.MatchString(identifier) {
		return "", fmt.Errorf("invalid identifier: %s", identifier)
	}
	return identifier, nil
}

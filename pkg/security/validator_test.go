package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_AllowedQueries(t *testing.T) {
	v := NewValidator(true)

	queries := []struct {
		name string
		sql  string
	}{
		{"simple select", "SELECT * FROM customers"},
		{"lowercase select", "select id, name from customers where id = 1"},
		{"cte", "WITH top_items AS (SELECT * FROM items) SELECT * FROM top_items"},
		{"leading whitespace", "   \n\tSELECT 1"},
		{"subquery", "SELECT * FROM (SELECT id FROM orders) o"},
		{"union", "SELECT id FROM a UNION SELECT id FROM b"},
		{"join", "SELECT c.name, o.total FROM customers c JOIN orders o ON o.customer_id = c.id"},
		{"unicode identifiers", "SELECT näme FROM kunden"},
		{"keyword inside word", "SELECT created_at FROM audit_log"},
		{"trailing semicolon", "SELECT 1;"},
		{"leading comment header", "-- revenue by region\n-- owner: analytics\nSELECT region, SUM(total) FROM orders GROUP BY region"},
	}

	for _, q := range queries {
		t.Run(q.name, func(t *testing.T) {
			ok, reason := v.Validate(q.sql)
			assert.True(t, ok, reason)
		})
	}
}

func TestValidate_DangerousPatterns(t *testing.T) {
	v := NewValidator(true)

	queries := []struct {
		name       string
		sql        string
		wantReason string
	}{
		{"drop", "DROP TABLE customers", "query contains disallowed pattern: DROP"},
		{"truncate", "TRUNCATE TABLE logs", "query contains disallowed pattern: TRUNCATE"},
		{"delete", "DELETE FROM customers WHERE id = 1", "query contains disallowed pattern: DELETE"},
		{"insert", "INSERT INTO customers VALUES (1)", "query contains disallowed pattern: INSERT"},
		{"update lowercase", "update customers set name = 'x'", "query contains disallowed pattern: UPDATE"},
		{"alter", "ALTER TABLE customers ADD col INT", "query contains disallowed pattern: ALTER"},
		{"create", "CREATE TABLE t (id INT)", "query contains disallowed pattern: CREATE"},
		{"exec", "EXEC dbo.refresh_views", "query contains disallowed pattern: EXEC"},
		{"grant", "GRANT SELECT ON customers TO app", "query contains disallowed pattern: GRANT"},
		{"shutdown", "SHUTDOWN WITH NOWAIT", "query contains disallowed pattern: SHUTDOWN"},
		{"extended proc", "SELECT * FROM xp_cmdshell('dir')", "query contains disallowed pattern: xp_"},
		{"system proc", "SELECT * FROM sp_configure", "query contains disallowed pattern: sp_"},
		{"inline comment", "SELECT * FROM customers -- WHERE id = 1", "query contains disallowed pattern: --"},
		{"block comment", "SELECT /* hidden */ * FROM customers", "query contains disallowed pattern: /*"},
		{"stacked statements", "SELECT 1; SELECT 2", "query contains disallowed pattern: ; (statement stacking)"},
		{"stacked after newline", "SELECT 1;\nSELECT 2", "query contains disallowed pattern: ; (statement stacking)"},
		{"embedded in subquery", "SELECT * FROM (SELECT 1) x WHERE EXISTS (DELETE FROM t)", "query contains disallowed pattern: DELETE"},
		{"comment past prefix", "SELECT 1\n-- sneaky\nFROM t", "query contains disallowed pattern: --"},
	}

	for _, q := range queries {
		t.Run(q.name, func(t *testing.T) {
			ok, reason := v.Validate(q.sql)
			require.False(t, ok)
			assert.Equal(t, q.wantReason, reason)
		})
	}
}

func TestValidate_FirstMatchWins(t *testing.T) {
	v := NewValidator(false)

	// DROP precedes DELETE in the pattern order.
	ok, reason := v.Validate("DROP TABLE t; DELETE FROM u")
	require.False(t, ok)
	assert.Equal(t, "query contains disallowed pattern: DROP", reason)
}

func TestValidate_Empty(t *testing.T) {
	v := NewValidator(true)

	for _, sql := range []string{"", "   ", "\n\t"} {
		ok, reason := v.Validate(sql)
		require.False(t, ok)
		assert.Equal(t, "query cannot be empty", reason)
	}

	ok, reason := v.Validate("-- just a comment\n-- and another")
	require.False(t, ok)
	assert.Equal(t, "query cannot be empty (only comments provided)", reason)
}

func TestValidate_ReadOnlyMode(t *testing.T) {
	readOnly := NewValidator(true)
	assert.True(t, readOnly.ReadOnly())

	ok, reason := readOnly.Validate("SHOW TABLES")
	require.False(t, ok)
	assert.Equal(t, "only SELECT queries are allowed in read-only mode", reason)

	// WITH is allowed as a statement head.
	ok, _ = readOnly.Validate("WITH x AS (SELECT 1) SELECT * FROM x")
	assert.True(t, ok)

	// A comment header does not defeat the read-only anchor.
	ok, _ = readOnly.Validate("-- header\nSELECT 1")
	assert.True(t, ok)

	writable := NewValidator(false)
	ok, _ = writable.Validate("SHOW TABLES")
	assert.True(t, ok)
}

func TestValidateOrRaise(t *testing.T) {
	v := NewValidator(true)

	require.NoError(t, v.ValidateOrRaise("SELECT 1"))

	err := v.ValidateOrRaise("DROP TABLE t")
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "query contains disallowed pattern: DROP", verr.Reason)
	assert.Equal(t, "query validation failed: query contains disallowed pattern: DROP", err.Error())
}

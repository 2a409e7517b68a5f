package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeIdentifier_Valid(t *testing.T) {
	for _, id := range []string{
		"customers",
		"Customers",
		"order_items",
		"dbo.customers",
		"[customers]",
		"dbo.[customers]",
		"t1",
	} {
		got, err := SanitizeIdentifier(id)
		require.NoError(t, err, id)
		assert.Equal(t, id, got)
	}
}

func TestSanitizeIdentifier_Invalid(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"empty", ""},
		{"space", "order details"},
		{"semicolon", "customers;"},
		{"quote", "customers'"},
		{"dash", "customers--"},
		{"parens", "fn()"},
		{"injection", "customers; DROP TABLE x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeIdentifier(tt.id)
			assert.Error(t, err)
		})
	}
}

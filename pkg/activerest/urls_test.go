package activerest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIBaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "without trailing slash", raw: "https://api.example.com/v1", expected: "https://api.example.com/v1/"},
		{name: "with trailing slash", raw: "https://api.example.com/v1/", expected: "https://api.example.com/v1/"},
		{name: "with doubled trailing slashes", raw: "https://api.example.com/v1//", expected: "https://api.example.com/v1/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			normalized := apiBaseURL(tt.raw)
			assert.Equal(t, tt.expected, normalized)

			// Idempotent.
			assert.Equal(t, tt.expected, apiBaseURL(normalized))
		})
	}
}

func TestCollectionURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "users", collectionURL("users"))
	assert.Equal(t, "users", collectionURL("/users/"))
	assert.Equal(t, "admin/users", collectionURL("admin/users"))
}

func TestElementURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "users/5", elementURL("users", 5))
	assert.Equal(t, "users/abc", elementURL("/users/", "abc"))
	assert.Equal(t, "users", elementURL("users", nil))
	assert.Equal(t, "users", elementURL("users", ""))
}

package security_test

import (
	"testing"

	"mjmgmt/internal/common/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := security.HashPassword("Sup3rSecret!")
	require.NoError(t, err)
	require.NotEqual(t, "Sup3rSecret!", hash)

	assert.True(t, security.CheckPasswordHash("Sup3rSecret!", hash))
	assert.False(t, security.CheckPasswordHash("sup3rsecret!", hash))
	assert.False(t, security.CheckPasswordHash("", hash))
}

func TestIsValidPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"meets policy", "Abcdef1!", true},
		{"longer valid password", "MyRent4lPass?word", true},
		{"too short", "Ab1!", false},
		{"no uppercase", "abcdef1!", false},
		{"no lowercase", "ABCDEF1!", false},
		{"no digit", "Abcdefg!", false},
		{"no special character", "Abcdefg1", false},
		{"disallowed character", "Abcdef1! ", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, security.IsValidPassword(tt.password))
		})
	}
}

package users_test

import (
	"testing"

	"github.com/jrsteele09/go-journal-auth/users"
	"github.com/stretchr/testify/require"
)

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "13800138000", false},
		{"valid 19 prefix", "19912345678", false},
		{"second digit too low", "12800138000", true},
		{"too short", "1380013800", true},
		{"too long", "138001380001", true},
		{"letters", "1380013800a", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ValidatePhone(tt.input)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	require.Error(t, users.ValidateRegistration("1234567890", "12345"), "5 chars is below the minimum")
	require.NoError(t, users.ValidateRegistration("1234567890", "123456"))
	require.Error(t, users.ValidateRegistration("", "123456"))
	require.Error(t, users.ValidateRegistration("1234567890", ""))
}

func TestDefaultDisplayName(t *testing.T) {
	require.Equal(t, "User 8000", users.DefaultDisplayName("13800138000"))
	require.Equal(t, "User 42", users.DefaultDisplayName("42"))
}

func TestHashPassword(t *testing.T) {
	hash, err := users.HashPassword("123456")
	require.NoError(t, err)
	require.NotEqual(t, "123456", hash)
	require.True(t, users.CheckPasswordHash("123456", hash))
	require.False(t, users.CheckPasswordHash("654321", hash))
}

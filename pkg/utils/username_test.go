package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid", "miner_42", false},
		{"minimum length", "abc", false},
		{"maximum length", "a1234567890123456789", false},
		{"too short", "ab", true},
		{"too long", "a12345678901234567890", true},
		{"spaces", "bad name", true},
		{"punctuation", "bad-name!", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "miner_42", NormalizeUsername("  Miner_42 "))
}

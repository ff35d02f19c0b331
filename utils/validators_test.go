package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"rider@example.com", true},
		{"first.last+moto@mail.co", true},
		{"no-at-sign.com", false},
		{"missing@tld", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidEmail(tt.email))
		})
	}
}

func TestPasswordStrength(t *testing.T) {
	tests := []struct {
		name         string
		password     string
		wantProblems int
		wantScore    int
	}{
		{"strong", "MiPassword123!", 0, 5},
		{"strong but short of bonus", "Abcdef1!", 0, 5},
		{"no special", "Password123", 1, 4},
		{"too short", "Ab1!", 1, 4},
		{"lower only", "password", 3, 2},
		{"empty", "", 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems, score := PasswordStrength(tt.password)
			assert.Len(t, problems, tt.wantProblems)
			assert.Equal(t, tt.wantScore, score)
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("MiPassword123!")
	assert.NoError(t, err)
	assert.NotEqual(t, "MiPassword123!", hash)

	assert.True(t, CheckPassword(hash, "MiPassword123!"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, NeedsRehash(hash))
	assert.True(t, NeedsRehash("not-a-hash"))
}

package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// PasswordStrength lists the unmet password rules and a score in [0, 5].
// A password is acceptable when the list is empty.
func PasswordStrength(password string) (problems []string, score int) {
	var (
		hasUpper   = false
		hasLower   = false
		hasNumber  = false
		hasSpecial = false
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case strings.ContainsRune(passwordSpecials, char):
			hasSpecial = true
		}
	}

	length := len([]rune(password))
	if length < 8 {
		problems = append(problems, "must be at least 8 characters long")
	} else {
		score++
	}
	if !hasUpper {
		problems = append(problems, "must contain an upper-case letter")
	} else {
		score++
	}
	if !hasLower {
		problems = append(problems, "must contain a lower-case letter")
	} else {
		score++
	}
	if !hasNumber {
		problems = append(problems, "must contain a number")
	} else {
		score++
	}
	if !hasSpecial {
		problems = append(problems, "must contain a special character (!@#$%^&*...)")
	} else {
		score++
	}
	if length >= 12 {
		score++
	}

	if score > 5 {
		score = 5
	}
	return problems, score
}

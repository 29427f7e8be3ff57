package users

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// UserProfile is a denormalized snapshot of the authenticated identity. It is
// replaced wholesale on login and cleared on logout.
type UserProfile struct {
	ID        string `json:"id"`         // Unique identifier for the user
	Email     string `json:"email"`      // User's email address
	FirstName string `json:"first_name"` // First name of the user
	LastName  string `json:"last_name"`  // Last name of the user
	IsStaff   bool   `json:"is_staff"`   // Staff flag, grants access to admin features
}

// FullName returns the user's display name
func (u *UserProfile) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Registration is the payload for creating a new staff account
type Registration struct {
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// Validate checks the registration payload before any network call
func (r *Registration) Validate() error {
	errs := make(FieldErrors)
	if r.Email == "" {
		errs["email"] = requiredFieldMessage
	} else if !IsValidEmail(r.Email) {
		errs["email"] = "invalid email address"
	}
	if r.FirstName == "" {
		errs["first_name"] = requiredFieldMessage
	}
	if r.LastName == "" {
		errs["last_name"] = requiredFieldMessage
	}
	if err := ValidatePasswordStrength(r.Password); err != nil {
		errs["password"] = err.Error()
	}
	if r.Password != r.PasswordConfirm {
		errs["password_confirm"] = "passwords do not match"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// FieldErrors maps field names to validation messages. It is a client-side
// validation failure and never touches the session.
type FieldErrors map[string]string

const requiredFieldMessage = "this field is required"

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	return fmt.Sprintf("validation failed for fields: %s", strings.Join(fields, ", "))
}

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail reports whether email has a plausible address format
func IsValidEmail(email string) bool {
	return emailRegexp.MatchString(email)
}

// IsValidPhone reports whether phone contains a valid North American number:
// ten digits, or eleven digits starting with 1, ignoring punctuation.
func IsValidPhone(phone string) bool {
	var digits []rune
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	return len(digits) == 10 || (len(digits) == 11 && digits[0] == '1')
}

// ValidatePasswordStrength checks if a password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
// - Contains at least one special character
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if !hasUpper || !hasLower {
		return fmt.Errorf("password must contain both uppercase and lowercase letters")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	if !hasSpecial {
		return fmt.Errorf("password must contain at least one special character")
	}

	return nil
}

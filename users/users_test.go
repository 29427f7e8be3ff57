package users_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/healthsys/go-health-admin/users"
)

func TestIsValidEmail(t *testing.T) {
	require.True(t, users.IsValidEmail("john.doe@example.com"))
	require.True(t, users.IsValidEmail("nurse+intake@clinic.co.ke"))
	require.False(t, users.IsValidEmail("not-an-email"))
	require.False(t, users.IsValidEmail("missing@tld"))
	require.False(t, users.IsValidEmail(""))
}

func TestIsValidPhone(t *testing.T) {
	require.True(t, users.IsValidPhone("0712345678"))
	require.True(t, users.IsValidPhone("(071) 234-5678"))
	require.True(t, users.IsValidPhone("1-071-234-5678"))
	require.False(t, users.IsValidPhone("12345"))
	require.False(t, users.IsValidPhone("20712345678")) // 11 digits not starting with 1
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{name: "strong", password: "Str0ng!pass"},
		{name: "too short", password: "S0!a", wantErr: "at least 8 characters"},
		{name: "no upper", password: "weak1pass!", wantErr: "uppercase and lowercase"},
		{name: "no number", password: "Weakpass!", wantErr: "at least one number"},
		{name: "no special", password: "Weakpass1", wantErr: "special character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRegistrationValidate(t *testing.T) {
	valid := users.Registration{
		Email:           "jane@example.com",
		FirstName:       "Jane",
		LastName:        "Doe",
		Password:        "Str0ng!pass",
		PasswordConfirm: "Str0ng!pass",
	}
	require.NoError(t, valid.Validate())

	mismatched := valid
	mismatched.PasswordConfirm = "different"
	err := mismatched.Validate()
	require.Error(t, err)

	var fieldErrs users.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Contains(t, fieldErrs, "password_confirm")

	empty := users.Registration{}
	err = empty.Validate()
	require.ErrorAs(t, err, &fieldErrs)
	require.Contains(t, fieldErrs, "email")
	require.Contains(t, fieldErrs, "first_name")
	require.Contains(t, fieldErrs, "last_name")
	require.Contains(t, fieldErrs, "password")
}

func TestUserProfileFullName(t *testing.T) {
	user := users.UserProfile{FirstName: "Jane", LastName: "Doe"}
	require.Equal(t, "Jane Doe", user.FullName())

	partial := users.UserProfile{FirstName: "Jane"}
	require.Equal(t, "Jane", partial.FullName())
}

package authapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/healthsys/go-health-admin/authapi"
	"github.com/healthsys/go-health-admin/users"
)

const (
	testEmail    = "john.doe@example.com"
	testPassword = "password123"
)

func TestLoginSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login/", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, testEmail, body["email"])
		require.Equal(t, testPassword, body["password"])

		json.NewEncoder(w).Encode(map[string]any{
			"access":  "access-token",
			"refresh": "refresh-token",
			"user": map[string]any{
				"id":         "user-1",
				"email":      testEmail,
				"first_name": "John",
				"last_name":  "Doe",
				"is_staff":   true,
			},
		})
	}))
	defer server.Close()

	service := authapi.NewService(server.URL, nil, zerolog.Nop())
	response, err := service.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.Equal(t, "access-token", response.AccessToken)
	require.Equal(t, "refresh-token", response.RefreshToken)
	require.Equal(t, "user-1", response.User.ID)
	require.Equal(t, "John Doe", response.User.FullName())
	require.True(t, response.User.IsStaff)
}

func TestLoginTrimsCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, testEmail, body["email"])
		require.Equal(t, testPassword, body["password"])
		json.NewEncoder(w).Encode(map[string]any{"access": "a", "refresh": "r"})
	}))
	defer server.Close()

	service := authapi.NewService(server.URL, nil, zerolog.Nop())
	_, err := service.Login(context.Background(), "  "+testEmail+" ", " "+testPassword+"  ")
	require.NoError(t, err)
}

func TestLoginRejectedSurfacesServerDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "No active account found"})
	}))
	defer server.Close()

	service := authapi.NewService(server.URL, nil, zerolog.Nop())
	_, err := service.Login(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, authapi.ErrAuthenticationFailed)
	require.ErrorContains(t, err, "No active account found")
}

func TestLoginRejectedWithoutDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	service := authapi.NewService(server.URL, nil, zerolog.Nop())
	_, err := service.Login(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, authapi.ErrAuthenticationFailed)
}

func TestLoginValidatesBeforeNetworkCall(t *testing.T) {
	networkCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		networkCalls++
	}))
	defer server.Close()

	service := authapi.NewService(server.URL, nil, zerolog.Nop())
	_, err := service.Login(context.Background(), "", "")
	require.Error(t, err)

	var fieldErrs users.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Contains(t, fieldErrs, "email")
	require.Contains(t, fieldErrs, "password")
	require.Zero(t, networkCalls)
}

func TestRefresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/refresh/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "refresh-token", body["refresh"])

		json.NewEncoder(w).Encode(map[string]string{"access": "new-access"})
	}))
	defer server.Close()

	service := authapi.NewService(server.URL, nil, zerolog.Nop())
	accessToken, err := service.Refresh(context.Background(), "refresh-token")
	require.NoError(t, err)
	require.Equal(t, "new-access", accessToken)
}

func TestRefreshRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	service := authapi.NewService(server.URL, nil, zerolog.Nop())
	_, err := service.Refresh(context.Background(), "stale-refresh")
	require.ErrorIs(t, err, authapi.ErrTokenRefreshFailed)
}

func TestLogout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/logout/", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	service := authapi.NewService(server.URL, nil, zerolog.Nop())
	require.True(t, service.Logout(context.Background(), "refresh-token"))
}

func TestLogoutNeverErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	service := authapi.NewService(server.URL, nil, zerolog.Nop())
	require.False(t, service.Logout(context.Background(), "refresh-token"))

	// Even with the server gone, logout only reports false
	server.Close()
	require.False(t, service.Logout(context.Background(), "refresh-token"))
}

func TestRegister(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/register/", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"message": "Registration successful",
			"user":    map[string]any{"id": "user-2", "email": "jane@example.com"},
		})
	}))
	defer server.Close()

	service := authapi.NewService(server.URL, nil, zerolog.Nop())
	response, err := service.Register(context.Background(), users.Registration{
		Email:           "jane@example.com",
		FirstName:       "Jane",
		LastName:        "Doe",
		Password:        "Str0ng!pass",
		PasswordConfirm: "Str0ng!pass",
	})
	require.NoError(t, err)
	require.Equal(t, "Registration successful", response.Message)
	require.Equal(t, "user-2", response.User.ID)
}

func TestRegisterValidatesBeforeNetworkCall(t *testing.T) {
	networkCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		networkCalls++
	}))
	defer server.Close()

	service := authapi.NewService(server.URL, nil, zerolog.Nop())
	_, err := service.Register(context.Background(), users.Registration{Email: "bad"})
	require.Error(t, err)
	require.Zero(t, networkCalls)
}

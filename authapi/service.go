package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/healthsys/go-health-admin/users"
)

// API paths, relative to the configured base URL
const (
	loginPath    = "/auth/login/"
	registerPath = "/auth/register/"
	refreshPath  = "/auth/refresh/"
	logoutPath   = "/auth/logout/"
)

// LoginResponse is the payload returned by a successful login
type LoginResponse struct {
	AccessToken  string            `json:"access"`
	RefreshToken string            `json:"refresh"`
	User         users.UserProfile `json:"user"`
}

// RegistrationResponse is the payload returned by a successful registration
type RegistrationResponse struct {
	Message string            `json:"message"`
	User    users.UserProfile `json:"user"`
}

// Service performs the authentication network calls. It is stateless: session
// bookkeeping lives in the session package.
type Service struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewService creates a new authentication service. httpClient may be nil, in
// which case http.DefaultClient is used.
func NewService(baseURL string, httpClient *http.Client, log zerolog.Logger) *Service {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Service{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// Login exchanges credentials for a token pair and the user profile.
// Credentials are validated before any network call.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	fieldErrs := make(users.FieldErrors)
	if email == "" {
		fieldErrs["email"] = "this field is required"
	}
	if password == "" {
		fieldErrs["password"] = "this field is required"
	}
	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	body := map[string]string{"email": email, "password": password}
	resp, err := s.post(ctx, loginPath, body)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] post")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := serverDetail(resp)
		s.log.Warn().Int("status", resp.StatusCode).Str("detail", detail).Msg("login rejected")
		if detail != "" {
			return nil, errors.Wrap(ErrAuthenticationFailed, detail)
		}
		return nil, ErrAuthenticationFailed
	}

	var loginResponse LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResponse); err != nil {
		return nil, errors.Wrap(err, "[Service.Login] decode response")
	}
	return &loginResponse, nil
}

// Register creates a new staff account. The payload is validated before any
// network call.
func (s *Service) Register(ctx context.Context, registration users.Registration) (*RegistrationResponse, error) {
	if err := registration.Validate(); err != nil {
		return nil, err
	}

	resp, err := s.post(ctx, registerPath, registration)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Register] post")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := serverDetail(resp)
		if detail != "" {
			return nil, errors.Wrap(ErrAuthenticationFailed, detail)
		}
		return nil, ErrAuthenticationFailed
	}

	var registrationResponse RegistrationResponse
	if err := json.NewDecoder(resp.Body).Decode(&registrationResponse); err != nil {
		return nil, errors.Wrap(err, "[Service.Register] decode response")
	}
	return &registrationResponse, nil
}

// Refresh exchanges a refresh token for a new access token
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	body := map[string]string{"refresh": refreshToken}
	resp, err := s.post(ctx, refreshPath, body)
	if err != nil {
		return "", errors.Wrap(err, "[Service.Refresh] post")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.log.Warn().Int("status", resp.StatusCode).Msg("token refresh rejected")
		return "", ErrTokenRefreshFailed
	}

	var refreshResponse struct {
		AccessToken string `json:"access"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&refreshResponse); err != nil {
		return "", errors.Wrap(err, "[Service.Refresh] decode response")
	}
	return refreshResponse.AccessToken, nil
}

// Logout asks the server to invalidate the refresh token. It returns true iff
// the server acknowledged the invalidation and never returns an error: a failed
// server-side logout must not block local session teardown.
func (s *Service) Logout(ctx context.Context, refreshToken string) bool {
	body := map[string]string{"refresh": refreshToken}
	resp, err := s.post(ctx, logoutPath, body)
	if err != nil {
		s.log.Err(err).Msg("server-side logout failed")
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (s *Service) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	return s.httpClient.Do(req)
}

// serverDetail extracts the server-provided failure detail, when present
func serverDetail(resp *http.Response) string {
	var errorData struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errorData); err != nil {
		return ""
	}
	if errorData.Detail != "" {
		return errorData.Detail
	}
	return errorData.Message
}

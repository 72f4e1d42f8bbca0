package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sethvargo/go-retry"

	"github.com/adiwinata/fittrack/internal/client/models"
)

// Transient GETs are retried up to 2 extra times with a fixed short backoff.
// Mutating calls are never retried: a duplicate submission is worse than
// asking the user to try again.
const (
	getRetries    = 2
	retryInterval = 500 * time.Millisecond
)

// HTTPClient talks JSON over HTTP to the FitTrack backend.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient builds a client for the given base URL ("https://host/api").
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// errorBody is the backend's uniform error envelope: a top-level message
// plus optional per-field validation messages.
type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// statusError is the raw, pre-taxonomy form of a non-2xx response. Each
// operation maps it into the public error taxonomy.
type statusError struct {
	code int
	body errorBody
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body.Message)
}

// do performs one round trip. It returns *NetworkError when no response was
// received, *statusError for a non-2xx status, and decodes a 2xx body into
// out when out is non-nil.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &statusError{code: resp.StatusCode}
		_ = json.Unmarshal(data, &se.body)
		return se
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &ServerError{StatusCode: resp.StatusCode, Message: "malformed response body"}
		}
	}
	return nil
}

// get performs an idempotent GET with the transient-failure retry policy.
func (c *HTTPClient) get(ctx context.Context, path, token string, out any) error {
	backoff := retry.WithMaxRetries(getRetries, retry.NewConstant(retryInterval))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.do(ctx, http.MethodGet, path, token, nil, out)
		var ne *NetworkError
		if errors.As(err, &ne) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// mapError converts a statusError into the public taxonomy. 4xx responses
// become *ValidationError (field detail preserved when present); everything
// else becomes *ServerError.
func mapError(err error) error {
	se, ok := err.(*statusError)
	if !ok {
		return err
	}
	if se.code >= 400 && se.code < 500 {
		msg := se.body.Message
		if msg == "" {
			msg = "request rejected"
		}
		return &ValidationError{Message: msg, Fields: se.body.Errors}
	}
	return &ServerError{StatusCode: se.code, Message: se.body.Message}
}

type loginResponse struct {
	Message   string          `json:"message"`
	Token     string          `json:"token"`
	ExpiresAt string          `json:"expires_at"`
	User      *models.Profile `json:"user"`
}

// Login authenticates and hydrates the full profile. The profile is fetched
// through the /profile endpoint after token issuance; if that fetch fails
// but the login response embedded a user snapshot, the snapshot is used.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	in := map[string]string{"username": username, "password": password}
	var out loginResponse

	if err := c.do(ctx, http.MethodPost, "/login", "", in, &out); err != nil {
		if se, ok := err.(*statusError); ok {
			if se.code == http.StatusUnauthorized || se.code == http.StatusUnprocessableEntity {
				return nil, ErrInvalidCredentials
			}
			return nil, mapError(se)
		}
		return nil, err
	}
	if out.Token == "" {
		return nil, &ServerError{StatusCode: http.StatusOK, Message: "login response carried no token"}
	}

	res := &LoginResult{Token: out.Token, ExpiresAt: tokenExpiry(out.Token, out.ExpiresAt)}

	user, err := c.FetchProfile(ctx, out.Token)
	if err != nil {
		if out.User == nil {
			return nil, err
		}
		user = out.User
	}
	res.User = user
	return res, nil
}

// tokenExpiry resolves the session expiry: the explicit expires_at timestamp
// when the backend sent one, otherwise the exp claim of the token when it
// parses as a JWT. The client holds no verification key, so the claim is
// read unverified; it is a hint for proactive expiry, not a trust boundary.
func tokenExpiry(token, raw string) *time.Time {
	if raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return &t
		}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}

type messageResponse struct {
	Message string `json:"message"`
}

func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	var out messageResponse
	if err := c.do(ctx, http.MethodPost, "/register", "", req, &out); err != nil {
		return nil, mapError(err)
	}
	msg := out.Message
	if msg == "" {
		msg = "registration successful, check your email for the verification code"
	}
	return &RegisterResult{Message: msg, Email: req.Email}, nil
}

func (c *HTTPClient) RegenerateOTP(ctx context.Context, email string) (string, error) {
	return c.postMessage(ctx, "/regenerate-otp", "", map[string]string{"email": email})
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, email string) (string, error) {
	return c.postMessage(ctx, "/forgot-password", "", map[string]string{"email": email})
}

func (c *HTTPClient) ChangePassword(ctx context.Context, token, current, newPassword string) (string, error) {
	in := map[string]string{"current_password": current, "new_password": newPassword}
	return c.postMessage(ctx, "/change-password", token, in)
}

func (c *HTTPClient) postMessage(ctx context.Context, path, token string, in any) (string, error) {
	var out messageResponse
	if err := c.do(ctx, http.MethodPost, path, token, in, &out); err != nil {
		return "", mapError(err)
	}
	return out.Message, nil
}

type profileResponse struct {
	User *models.Profile `json:"user"`
}

func (c *HTTPClient) FetchProfile(ctx context.Context, token string) (*models.Profile, error) {
	var out profileResponse
	if err := c.get(ctx, "/profile", token, &out); err != nil {
		return nil, mapError(err)
	}
	if out.User == nil {
		return nil, &ServerError{StatusCode: http.StatusOK, Message: "profile response carried no user"}
	}
	return out.User, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, token string, upd models.ProfileUpdate) (*models.Profile, error) {
	var out profileResponse
	if err := c.do(ctx, http.MethodPut, "/profile", token, upd, &out); err != nil {
		return nil, mapError(err)
	}
	return out.User, nil
}

type workUnitsResponse struct {
	Data []WorkUnit `json:"data"`
}

func (c *HTTPClient) WorkUnitParents(ctx context.Context) ([]WorkUnit, error) {
	var out workUnitsResponse
	if err := c.get(ctx, "/work-units/parents", "", &out); err != nil {
		return nil, mapError(err)
	}
	return out.Data, nil
}

func (c *HTTPClient) WorkUnitChildren(ctx context.Context, parentID int64) ([]WorkUnit, error) {
	var out workUnitsResponse
	path := "/work-units/children/" + strconv.FormatInt(parentID, 10)
	if err := c.get(ctx, path, "", &out); err != nil {
		return nil, mapError(err)
	}
	return out.Data, nil
}

// Logout tells the backend to revoke the token. Best effort: callers clear
// local state regardless of the outcome.
func (c *HTTPClient) Logout(ctx context.Context, token string) error {
	if err := c.do(ctx, http.MethodPost, "/logout", token, nil, nil); err != nil {
		return mapError(err)
	}
	return nil
}

// Close releases transport resources.
func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

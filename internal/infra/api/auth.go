package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"example.com/storefront/internal/domain/session"
)

// AuthClient registers accounts and logs users in.
type AuthClient struct {
	base     string
	hc       *http.Client
	validate *validator.Validate
	log      *slog.Logger
}

func NewAuthClient(base string, hc *http.Client, log *slog.Logger) *AuthClient {
	if hc == nil {
		hc = defaultHTTPClient()
	}
	if log == nil {
		log = nopLogger()
	}
	return &AuthClient{base: base, hc: hc, validate: validator.New(), log: log}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account. Input is validated locally first so the
// form can reject too-short or mismatched fields without a round trip.
func (c *AuthClient) Register(ctx context.Context, in session.RegisterInput) error {
	if err := c.validateInput(in); err != nil {
		return err
	}

	resp, err := c.post(ctx, "/auth/register", credentialsRequest{Username: in.Username, Password: in.Password})
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrAuthUnavailable, err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError:
		return rejectionError(resp)
	default:
		return fmt.Errorf("%w: unexpected status %d", session.ErrAuthUnavailable, resp.StatusCode)
	}
}

type loginResponse struct {
	Success  bool   `json:"success"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Balance  int64  `json:"balance"`
}

// Login exchanges credentials for a token and the display username.
func (c *AuthClient) Login(ctx context.Context, in session.LoginInput) (*session.LoginResult, error) {
	if err := c.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: username and password are required", session.ErrAuthRejected)
	}

	resp, err := c.post(ctx, "/auth/login", credentialsRequest{Username: in.Username, Password: in.Password})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrAuthUnavailable, err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		var body loginResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("%w: decode response: %v", session.ErrAuthUnavailable, err)
		}
		return &session.LoginResult{Token: body.Token, Username: body.Username, Balance: body.Balance}, nil
	case resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError:
		return nil, rejectionError(resp)
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", session.ErrAuthUnavailable, resp.StatusCode)
	}
}

func (c *AuthClient) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", newRequestID())
	return c.hc.Do(req)
}

func rejectionError(resp *http.Response) error {
	msg := readMessage(resp.Body)
	if msg == "" {
		return session.ErrAuthRejected
	}
	return fmt.Errorf("%w: %s", session.ErrAuthRejected, msg)
}

// validateInput maps validator failures onto the exact form messages the
// register screen shows.
func (c *AuthClient) validateInput(in session.RegisterInput) error {
	err := c.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", session.ErrAuthRejected, err)
	}

	first := verrs[0]
	var msg string
	switch {
	case first.Field() == "Username" && first.Tag() == "required":
		msg = "Username is a required field"
	case first.Field() == "Username":
		msg = "Username must be at least 6 characters"
	case first.Field() == "Password" && first.Tag() == "required":
		msg = "Password is a required field"
	case first.Field() == "Password":
		msg = "Password must be at least 6 characters"
	default:
		msg = "Passwords do not match"
	}
	return fmt.Errorf("%w: %s", session.ErrAuthRejected, msg)
}

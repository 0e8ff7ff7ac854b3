// Package identity talks to the hosted identity provider's admin API, which
// owns staff credentials. Only account provisioning lives here; token
// verification is done locally by the auth package.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
)

// User is the subset of the provider's user object this service reads.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type createUserRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	EmailConfirm bool   `json:"email_confirm"`
}

type updateUserRequest struct {
	Password string `json:"password"`
}

type errorResponse struct {
	Message string `json:"message"`
	Msg     string `json:"msg"`
	Error   string `json:"error_description"`
}

func (e errorResponse) text() string {
	for _, s := range []string{e.Message, e.Msg, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Client calls /auth/v1/admin/users with the service role key.
type Client struct {
	http   *resty.Client
	logger zerolog.Logger
}

func NewClient(baseURL, serviceKey string, logger zerolog.Logger) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("apikey", serviceKey).
		SetAuthToken(serviceKey)

	return &Client{http: rc, logger: logger}
}

// CreateUser provisions a confirmed account with the given password.
func (c *Client) CreateUser(ctx context.Context, email, password string) (*User, error) {
	var user User
	var failure errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(createUserRequest{Email: email, Password: password, EmailConfirm: true}).
		SetResult(&user).
		SetError(&failure).
		Post("/auth/v1/admin/users")
	if err != nil {
		return nil, fmt.Errorf("identity: create user: %w", err)
	}
	if resp.IsError() {
		return nil, c.fail("create user", resp, failure)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("identity: create user: response has no id")
	}

	c.logger.Info().Str("user_id", user.ID).Str("email", email).Msg("identity account created")
	return &user, nil
}

// UpdatePassword replaces the account's password.
func (c *Client) UpdatePassword(ctx context.Context, userID, password string) error {
	var failure errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", userID).
		SetBody(updateUserRequest{Password: password}).
		SetError(&failure).
		Put("/auth/v1/admin/users/{id}")
	if err != nil {
		return fmt.Errorf("identity: update user: %w", err)
	}
	if resp.IsError() {
		return c.fail("update user", resp, failure)
	}
	return nil
}

// DeleteUser removes the account. An account that is already gone is not an error.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	var failure errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", userID).
		SetError(&failure).
		Delete("/auth/v1/admin/users/{id}")
	if err != nil {
		return fmt.Errorf("identity: delete user: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil
	}
	if resp.IsError() {
		return c.fail("delete user", resp, failure)
	}

	c.logger.Info().Str("user_id", userID).Msg("identity account deleted")
	return nil
}

func (c *Client) fail(op string, resp *resty.Response, failure errorResponse) error {
	msg := failure.text()
	if msg == "" {
		msg = strings.TrimSpace(resp.String())
	}
	if msg == "" {
		msg = resp.Status()
	}

	c.logger.Warn().Str("op", op).Int("status", resp.StatusCode()).Str("detail", msg).Msg("identity provider rejected call")

	switch resp.StatusCode() {
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return apperr.Conflict("identity provider: %s", msg)
	case http.StatusBadRequest:
		return apperr.Validation("identity provider: %s", msg)
	case http.StatusNotFound:
		return apperr.NotFound("identity provider: %s", msg)
	}
	return fmt.Errorf("identity: %s: status %d: %s", op, resp.StatusCode(), msg)
}

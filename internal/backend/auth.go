package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/devlinkhq/client-gateway/internal/model"
)

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Signup registers a new account; the backend emails an OTP to verify.
func (c *Client) Signup(ctx context.Context, req *model.SignupRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/signup", nil, req, nil)
}

// Verify confirms the signup OTP and returns the authenticated session.
func (c *Client) Verify(ctx context.Context, req *model.VerifyRequest) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/verify", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile fetches a user profile by id.
func (c *Client) Profile(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := c.get(ctx, "/users/"+url.PathEscape(userID), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile updates the signed-in user's profile.
func (c *Client) UpdateProfile(ctx context.Context, req *model.UpdateProfileRequest) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodPut, "/users/me", nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Developers lists developer profiles, optionally filtered by skill.
func (c *Client) Developers(ctx context.Context, skill string) ([]model.User, error) {
	query := url.Values{}
	if skill != "" {
		query.Set("skill", skill)
	}
	var resp struct {
		Developers []model.User `json:"developers"`
	}
	if err := c.get(ctx, "/developers", query, &resp); err != nil {
		return nil, err
	}
	return resp.Developers, nil
}

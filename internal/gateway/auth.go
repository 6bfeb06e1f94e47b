package gateway

import (
	"context"
	"net/http"

	"labloan-client/internal/model"
)

// loginResponse is the shape of POST /login on success.
type loginResponse struct {
	Token string     `json:"token"`
	Data  model.User `json:"data"`
}

// Login exchanges credentials for a bearer token and the user record. The
// caller persists the pair; the client itself never writes the session.
func (c *Client) Login(ctx context.Context, email, password string) (string, model.User, error) {
	body := map[string]string{"email": email, "password": password}

	var resp loginResponse
	if err := c.call(ctx, http.MethodPost, "/login", nil, body, &resp); err != nil {
		return "", model.User{}, err
	}
	return resp.Token, resp.Data, nil
}

// RegisterRequest is the payload of POST /register. Self-registration is
// always a student account.
type RegisterRequest struct {
	Name                 string     `json:"name"`
	Email                string     `json:"email"`
	Password             string     `json:"password"`
	PasswordConfirmation string     `json:"password_confirmation"`
	Role                 model.Role `json:"role"`
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (Result, error) {
	if req.Role == "" {
		req.Role = model.RoleStudent
	}

	var res Result
	if err := c.call(ctx, http.MethodPost, "/register", nil, req, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}

// Logout revokes the token server-side and drops the cached GET responses.
func (c *Client) Logout(ctx context.Context) error {
	err := c.call(ctx, http.MethodPost, "/logout", nil, struct{}{}, nil)
	c.FlushCache()
	return err
}

// CurrentUser resolves the session identity, including penalty_until. The
// response is cached; the penalty window is re-read from the server at most
// once per cache TTL.
func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	var u model.User
	if err := c.getCached(ctx, "/user", &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

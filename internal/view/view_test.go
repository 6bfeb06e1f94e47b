package view

import (
	"testing"
	"time"

	"labloan-client/config"
	"labloan-client/internal/apitest"
	"labloan-client/internal/gateway"
	"labloan-client/internal/model"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

// newTestGateway starts a fake backend and a client authenticated as token.
func newTestGateway(t *testing.T, token string) (*apitest.Server, *gateway.Client) {
	t.Helper()

	backend := apitest.New()
	t.Cleanup(backend.Close)

	client := gateway.NewClient(&config.APIConfig{
		BaseURL:         backend.URL(),
		Timeout:         5 * time.Second,
		CacheTTL:        time.Minute,
		RateLimitPerSec: 1000,
		RateBurst:       1000,
	}, staticToken(token))
	return backend, client
}

func seedStudent(backend *apitest.Server, token string) model.User {
	return backend.SeedUser(token, "secret", model.User{
		Name:  "Budi",
		Email: "budi@campus.test",
		Role:  model.RoleStudent,
	})
}

func seedAdmin(backend *apitest.Server, token string) model.User {
	return backend.SeedUser(token, "secret", model.User{
		Name:  "Sari",
		Email: "sari@campus.test",
		Role:  model.RoleAdmin,
	})
}

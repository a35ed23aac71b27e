package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"codesync/internal/config"
	"codesync/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOAuthRedirect(t *testing.T) {
	t.Run("Unconfigured provider gets 404", func(t *testing.T) {
		s, _ := newTestServer()

		app := fiber.New()
		app.Get("/auth/oauth/:provider", s.OAuthRedirect)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/oauth/github", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Configured provider redirects to consent page", func(t *testing.T) {
		s, _ := newTestServer()
		s.config = &config.Config{
			JWTSecret:          "test-secret",
			GitHubClientID:     "client-id",
			GitHubClientSecret: "client-secret",
			OAuthRedirectBase:  "http://localhost:8480",
		}

		app := fiber.New()
		app.Get("/auth/oauth/:provider", s.OAuthRedirect)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/oauth/github", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

		location := resp.Header.Get("Location")
		assert.Contains(t, location, "github.com/login/oauth/authorize")
		assert.Contains(t, location, "client_id=client-id")
		assert.Contains(t, location, "state=")
	})

	t.Run("Unknown provider name gets 404", func(t *testing.T) {
		s, _ := newTestServer()

		app := fiber.New()
		app.Get("/auth/oauth/:provider", s.OAuthRedirect)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/oauth/gitlab", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestFindOrCreateOAuthUser(t *testing.T) {
	t.Run("Existing account is reused", func(t *testing.T) {
		s, m := newTestServer()
		existing := &models.User{ID: 3, Email: "dev@example.com", Username: "dev"}
		m.users.On("GetByEmail", mock.Anything, "dev@example.com").Return(existing, nil)

		user, err := s.findOrCreateOAuthUser(context.Background(), "github",
			&oauthIdentity{Email: "dev@example.com", Login: "dev"})
		require.NoError(t, err)
		assert.Equal(t, uint(3), user.ID)
		m.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("New account from github login", func(t *testing.T) {
		s, m := newTestServer()
		m.users.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, nil)
		m.users.On("GetByUsername", mock.Anything, "octo_dev", uint(0)).Return(nil, nil)
		m.users.On("Create", mock.Anything, mock.Anything).Return(nil)

		user, err := s.findOrCreateOAuthUser(context.Background(), "github",
			&oauthIdentity{Email: "new@example.com", Name: "Octo Dev", Login: "octo-dev"})
		require.NoError(t, err)
		assert.Equal(t, "Octo Dev", user.Name)
		assert.Equal(t, "octo_dev", user.Username)
		assert.Equal(t, "github", user.OAuthProvider)
		assert.True(t, user.IsVerified)
		assert.Empty(t, user.Password)
	})

	t.Run("Username collision gets a suffix", func(t *testing.T) {
		s, m := newTestServer()
		m.users.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, nil)
		m.users.On("GetByUsername", mock.Anything, "dv_dev", uint(0)).
			Return(&models.User{ID: 9, Username: "dv_dev"}, nil).Once()
		m.users.On("GetByUsername", mock.Anything, mock.Anything, uint(0)).Return(nil, nil)
		m.users.On("Create", mock.Anything, mock.Anything).Return(nil)

		user, err := s.findOrCreateOAuthUser(context.Background(), "google",
			&oauthIdentity{Email: "new@example.com", Login: "dv"})
		require.NoError(t, err)
		assert.NotEqual(t, "dv_dev", user.Username)
		assert.Contains(t, user.Username, "dv_dev_")
	})

	t.Run("Name falls back to email local part", func(t *testing.T) {
		s, m := newTestServer()
		m.users.On("GetByEmail", mock.Anything, "jane.doe@example.com").Return(nil, nil)
		m.users.On("GetByUsername", mock.Anything, mock.Anything, uint(0)).Return(nil, nil)
		m.users.On("Create", mock.Anything, mock.Anything).Return(nil)

		user, err := s.findOrCreateOAuthUser(context.Background(), "google",
			&oauthIdentity{Email: "jane.doe@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "jane.doe", user.Name)
		assert.Equal(t, "jane_doe", user.Username)
	})
}

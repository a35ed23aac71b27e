package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"codesync/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func putJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, path, jsonReader(t, body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestUpdateMyProfile(t *testing.T) {
	t.Run("Partial update keeps other fields", func(t *testing.T) {
		s, m := newTestServer()
		m.users.On("GetByID", mock.Anything, uint(1)).
			Return(&models.User{ID: 1, Name: "Old Name", Username: "olduser", Bio: "old bio"}, nil)

		var saved *models.User
		m.users.On("Update", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				saved = args.Get(1).(*models.User)
			}).Return(nil)
		m.users.On("GetProfile", mock.Anything, uint(1)).
			Return(&models.User{ID: 1, Name: "New Name", Username: "olduser", Bio: "old bio"}, nil)

		app := fiber.New()
		app.Put("/profile", withUser(1), s.UpdateMyProfile)

		resp := putJSON(t, app, "/profile", map[string]interface{}{"name": "New Name"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotNil(t, saved)
		assert.Equal(t, "New Name", saved.Name)
		assert.Equal(t, "olduser", saved.Username)
		assert.Equal(t, "old bio", saved.Bio)
	})

	t.Run("Username collision", func(t *testing.T) {
		s, m := newTestServer()
		m.users.On("GetByID", mock.Anything, uint(1)).
			Return(&models.User{ID: 1, Username: "olduser"}, nil)
		m.users.On("GetByUsername", mock.Anything, "taken", uint(0)).
			Return(&models.User{ID: 2, Username: "taken"}, nil)

		app := fiber.New()
		app.Put("/profile", withUser(1), s.UpdateMyProfile)

		resp := putJSON(t, app, "/profile", map[string]interface{}{"username": "taken"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Username is already taken", body["message"])
		m.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Invalid theme", func(t *testing.T) {
		s, m := newTestServer()
		m.users.On("GetByID", mock.Anything, uint(1)).
			Return(&models.User{ID: 1, Username: "olduser"}, nil)

		app := fiber.New()
		app.Put("/profile", withUser(1), s.UpdateMyProfile)

		resp := putJSON(t, app, "/profile", map[string]interface{}{"theme": "neon"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Invalid default visibility", func(t *testing.T) {
		s, m := newTestServer()
		m.users.On("GetByID", mock.Anything, uint(1)).
			Return(&models.User{ID: 1, Username: "olduser"}, nil)

		app := fiber.New()
		app.Put("/profile", withUser(1), s.UpdateMyProfile)

		resp := putJSON(t, app, "/profile", map[string]interface{}{"defaultSnippetVisibility": "friends"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestUpdatePassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("OldPass123"), bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		s, m := newTestServer()
		m.users.On("GetByID", mock.Anything, uint(1)).
			Return(&models.User{ID: 1, Password: string(hash)}, nil)
		m.users.On("UpdatePassword", mock.Anything, uint(1), mock.Anything).Return(nil)

		app := fiber.New()
		app.Put("/profile/password", withUser(1), s.UpdatePassword)

		resp := putJSON(t, app, "/profile/password", map[string]string{
			"currentPassword": "OldPass123",
			"newPassword":     "NewPass456",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Password updated", body["message"])
	})

	t.Run("Wrong current password", func(t *testing.T) {
		s, m := newTestServer()
		m.users.On("GetByID", mock.Anything, uint(1)).
			Return(&models.User{ID: 1, Password: string(hash)}, nil)

		app := fiber.New()
		app.Put("/profile/password", withUser(1), s.UpdatePassword)

		resp := putJSON(t, app, "/profile/password", map[string]string{
			"currentPassword": "Nope12345",
			"newPassword":     "NewPass456",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		m.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("OAuth-only account", func(t *testing.T) {
		s, m := newTestServer()
		m.users.On("GetByID", mock.Anything, uint(1)).
			Return(&models.User{ID: 1, OAuthProvider: "github"}, nil)

		app := fiber.New()
		app.Put("/profile/password", withUser(1), s.UpdatePassword)

		resp := putJSON(t, app, "/profile/password", map[string]string{
			"currentPassword": "Whatever1",
			"newPassword":     "NewPass456",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Weak new password", func(t *testing.T) {
		s, m := newTestServer()
		m.users.On("GetByID", mock.Anything, uint(1)).
			Return(&models.User{ID: 1, Password: string(hash)}, nil)

		app := fiber.New()
		app.Put("/profile/password", withUser(1), s.UpdatePassword)

		resp := putJSON(t, app, "/profile/password", map[string]string{
			"currentPassword": "OldPass123",
			"newPassword":     "short",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetMyProfile(t *testing.T) {
	s, m := newTestServer()
	m.users.On("GetProfile", mock.Anything, uint(1)).
		Return(&models.User{ID: 1, Username: "me", Email: "me@example.com"}, nil)

	app := fiber.New()
	app.Get("/profile", withUser(1), s.GetMyProfile)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/profile", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "me@example.com", body["email"])
}

package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"codesync/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		expectPage   int
		expectLimit  int
		expectOffset int
	}{
		{"Defaults", "", 1, 20, 0},
		{"Second page", "page=2&limit=10", 2, 10, 10},
		{"Limit capped at 100", "limit=500", 1, 100, 0},
		{"Negative page clamps to 1", "page=-3", 1, 20, 0},
		{"Zero limit falls back to default", "limit=0", 1, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			var got Pagination
			app.Get("/", func(c *fiber.Ctx) error {
				got = parsePagination(c, 20)
				return c.SendStatus(fiber.StatusOK)
			})

			_, err := app.Test(httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.expectPage, got.Page)
			assert.Equal(t, tt.expectLimit, got.Limit)
			assert.Equal(t, tt.expectOffset, got.Offset)
		})
	}
}

func TestPaginationMeta(t *testing.T) {
	meta := paginationMeta(Pagination{Page: 2, Limit: 20, Offset: 20}, 45)
	assert.Equal(t, 2, meta["page"])
	assert.Equal(t, 20, meta["limit"])
	assert.Equal(t, int64(45), meta["total"])
	assert.Equal(t, int64(3), meta["pages"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(models.NewNotFoundError("Snippet")))
	assert.Equal(t, http.StatusBadRequest, statusFor(models.NewValidationError("bad")))
	assert.Equal(t, http.StatusUnauthorized, statusFor(models.NewUnauthorizedError("no")))
	assert.Equal(t, http.StatusForbidden, statusFor(models.NewForbiddenError("no")))
	assert.Equal(t, http.StatusConflict, statusFor(models.NewConflictError("dup")))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestParseID(t *testing.T) {
	s, _ := newTestServer()

	app := fiber.New()
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/12", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/items/-1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/items/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

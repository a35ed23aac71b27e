package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"codesync/internal/models"
	"codesync/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// drainEvents empties a client's send buffer into decoded event envelopes.
// Without Redis the publish path delivers synchronously, so everything a
// handler emitted is buffered by the time it responds.
func drainEvents(t *testing.T, c *notifications.Client) []map[string]interface{} {
	t.Helper()
	var events []map[string]interface{}
	for {
		select {
		case msg := <-c.Send:
			var event map[string]interface{}
			require.NoError(t, json.Unmarshal(msg, &event))
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestToggleLike_NotifiesSnippetAuthor(t *testing.T) {
	newApp := func(s *Server) *fiber.App {
		app := fiber.New()
		app.Post("/snippets/:id/like", withUser(1), s.ToggleLike)
		return app
	}

	t.Run("New like reaches the author personally", func(t *testing.T) {
		s, m := newTestServer()
		s.hub = notifications.NewHub()
		author, err := s.hub.Register(2, nil)
		require.NoError(t, err)
		bystander, err := s.hub.Register(3, nil)
		require.NoError(t, err)

		m.snippets.On("GetByID", mock.Anything, uint(5), uint(1)).
			Return(&models.Snippet{ID: 5, IsPublic: true, AuthorID: 2}, nil)
		m.snippets.On("ToggleLike", mock.Anything, uint(1), uint(5)).Return(true, nil)
		m.snippets.On("CountLikes", mock.Anything, uint(5)).Return(int64(1), nil)

		resp := postJSON(t, newApp(s), "/snippets/5/like", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		// The author sees the broadcast plus the personal notification;
		// everyone else sees only the broadcast.
		authorEvents := drainEvents(t, author)
		require.Len(t, authorEvents, 2)
		for _, event := range authorEvents {
			assert.Equal(t, EventLikeAdded, event["type"])
		}
		assert.Len(t, drainEvents(t, bystander), 1)
	})

	t.Run("Unlike is broadcast only", func(t *testing.T) {
		s, m := newTestServer()
		s.hub = notifications.NewHub()
		author, err := s.hub.Register(2, nil)
		require.NoError(t, err)

		m.snippets.On("GetByID", mock.Anything, uint(5), uint(1)).
			Return(&models.Snippet{ID: 5, IsPublic: true, AuthorID: 2}, nil)
		m.snippets.On("ToggleLike", mock.Anything, uint(1), uint(5)).Return(false, nil)
		m.snippets.On("CountLikes", mock.Anything, uint(5)).Return(int64(0), nil)

		resp := postJSON(t, newApp(s), "/snippets/5/like", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		events := drainEvents(t, author)
		require.Len(t, events, 1)
		assert.Equal(t, EventLikeRemoved, events[0]["type"])
	})

	t.Run("Self-like skips the personal notification", func(t *testing.T) {
		s, m := newTestServer()
		s.hub = notifications.NewHub()
		author, err := s.hub.Register(1, nil)
		require.NoError(t, err)

		m.snippets.On("GetByID", mock.Anything, uint(5), uint(1)).
			Return(&models.Snippet{ID: 5, IsPublic: true, AuthorID: 1}, nil)
		m.snippets.On("ToggleLike", mock.Anything, uint(1), uint(5)).Return(true, nil)
		m.snippets.On("CountLikes", mock.Anything, uint(5)).Return(int64(1), nil)

		resp := postJSON(t, newApp(s), "/snippets/5/like", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, drainEvents(t, author), 1)
	})
}

func TestCreateComment_NotifiesSnippetAuthor(t *testing.T) {
	s, m := newTestServer()
	s.hub = notifications.NewHub()
	author, err := s.hub.Register(2, nil)
	require.NoError(t, err)

	m.snippets.On("GetByID", mock.Anything, uint(5), uint(1)).
		Return(&models.Snippet{ID: 5, IsPublic: true, AuthorID: 2}, nil)
	m.comments.On("Create", mock.Anything, mock.AnythingOfType("*models.Comment")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Comment).ID = 30
		}).Return(nil)
	m.comments.On("GetByID", mock.Anything, uint(30)).
		Return(&models.Comment{ID: 30, SnippetID: 5, AuthorID: 1, Content: "Nice one"}, nil)

	app := fiber.New()
	app.Post("/snippets/:id/comments", withUser(1), s.CreateComment)

	resp := postJSON(t, app, "/snippets/5/comments", map[string]interface{}{
		"content": "Nice one",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	events := drainEvents(t, author)
	require.Len(t, events, 2)
	for _, event := range events {
		assert.Equal(t, EventCommentCreated, event["type"])
	}

	payload, ok := events[1]["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(5), payload["snippetId"])
	assert.Equal(t, float64(30), payload["commentId"])
	assert.Equal(t, float64(1), payload["authorId"])
}

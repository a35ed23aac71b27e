package server

import (
	"codesync/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ToggleLike handles POST /api/snippets/:id/like. One endpoint flips the
// state both ways; the response says which way it went.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	snippetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	snippet, err := s.snippetRepo.GetByID(ctx, snippetID, userID)
	if err != nil {
		return respondError(c, err)
	}
	if !snippet.IsPublic && snippet.AuthorID != userID {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("You cannot like a private snippet"))
	}

	isLiked, err := s.snippetRepo.ToggleLike(ctx, userID, snippetID)
	if err != nil {
		return respondError(c, err)
	}

	likesCount, err := s.snippetRepo.CountLikes(ctx, snippetID)
	if err != nil {
		return respondError(c, err)
	}

	event := EventLikeRemoved
	message := "Like removed"
	if isLiked {
		event = EventLikeAdded
		message = "Snippet liked"
	}
	s.publishBroadcastEvent(event, map[string]interface{}{
		"snippetId":  snippetID,
		"userId":     userID,
		"likesCount": likesCount,
	})

	// Personal notification for the snippet author on new likes only.
	if isLiked && snippet.AuthorID != userID {
		s.publishUserEvent(snippet.AuthorID, EventLikeAdded, map[string]interface{}{
			"snippetId":  snippetID,
			"userId":     userID,
			"likesCount": likesCount,
		})
	}

	return c.JSON(fiber.Map{
		"isLiked":    isLiked,
		"likesCount": likesCount,
		"message":    message,
	})
}

// GetLikeStatus handles GET /api/snippets/:id/like. isLiked is always false
// for unauthenticated callers.
func (s *Server) GetLikeStatus(c *fiber.Ctx) error {
	ctx := c.Context()
	userID, authed := currentUserID(c)
	snippetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.visibleSnippet(c, snippetID, userID); err != nil {
		return nil
	}

	isLiked := false
	if authed {
		isLiked, err = s.snippetRepo.IsLiked(ctx, userID, snippetID)
		if err != nil {
			return respondError(c, err)
		}
	}

	likesCount, err := s.snippetRepo.CountLikes(ctx, snippetID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"isLiked":    isLiked,
		"likesCount": likesCount,
	})
}

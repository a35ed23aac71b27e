package server

import (
	"codesync/internal/models"
	"codesync/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/snippets/:id/comments. Top-level comments come
// newest first with one level of replies preloaded.
func (s *Server) GetComments(c *fiber.Ctx) error {
	ctx := c.Context()
	snippetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := currentUserID(c)

	if _, err := s.visibleSnippet(c, snippetID, userID); err != nil {
		return nil
	}

	page := parsePagination(c, 20)
	comments, total, err := s.commentRepo.ListBySnippet(ctx, snippetID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"comments":   comments,
		"pagination": paginationMeta(page, total),
	})
}

// CreateComment handles POST /api/snippets/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	snippetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content  string `json:"content"`
		ParentID *uint  `json:"parentId"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := validation.ValidateComment(req.Content); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	snippet, err := s.snippetRepo.GetByID(ctx, snippetID, userID)
	if err != nil {
		return respondError(c, err)
	}
	if !snippet.IsPublic && snippet.AuthorID != userID {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("You cannot comment on a private snippet"))
	}

	// Threading is one level deep: the parent must be a top-level comment on
	// the same snippet.
	if req.ParentID != nil {
		parent, parentErr := s.commentRepo.GetByID(ctx, *req.ParentID)
		if parentErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Parent comment not found"))
		}
		if parent.SnippetID != snippetID {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Parent comment belongs to a different snippet"))
		}
		if parent.ParentID != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Replies cannot be nested further"))
		}
	}

	comment := &models.Comment{
		Content:   req.Content,
		SnippetID: snippetID,
		AuthorID:  userID,
		ParentID:  req.ParentID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return respondError(c, err)
	}

	// Reload with author and reply count for the response shape
	comment, err = s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return respondError(c, err)
	}

	s.publishBroadcastEvent(EventCommentCreated, map[string]interface{}{
		"snippetId": snippetID,
		"commentId": comment.ID,
		"authorId":  userID,
		"parentId":  req.ParentID,
	})

	// Personal notification for the snippet author, skipped for self-comments.
	if snippet.AuthorID != userID {
		s.publishUserEvent(snippet.AuthorID, EventCommentCreated, map[string]interface{}{
			"snippetId": snippetID,
			"commentId": comment.ID,
			"authorId":  userID,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}

package server

import (
	"codesync/internal/models"
	"codesync/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// GetUsers handles GET /api/users with optional name/username search.
func (s *Server) GetUsers(c *fiber.Ctx) error {
	ctx := c.Context()
	page := parsePagination(c, 20)

	users, total, err := s.userRepo.List(ctx, c.Query("search"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}

	for i := range users {
		sanitizePublicUser(&users[i], 0)
	}

	return c.JSON(fiber.Map{
		"users":      users,
		"pagination": paginationMeta(page, total),
	})
}

// GetUserByUsername handles GET /api/users/:username
// @Summary Public profile
// @Description Profile with counts and follow state; ?includeSnippets=true embeds recent snippets
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username} [get]
func (s *Server) GetUserByUsername(c *fiber.Ctx) error {
	ctx := c.Context()
	username := c.Params("username")
	currentID, _ := currentUserID(c)

	user, err := s.userRepo.GetByUsername(ctx, username, currentID)
	if err != nil {
		return respondError(c, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User"))
	}

	sanitizePublicUser(user, currentID)

	if c.QueryBool("includeSnippets", false) {
		if user.ID == currentID {
			snippets, _, listErr := s.snippetRepo.ListByAuthor(ctx, user.ID, 10, 0)
			if listErr != nil {
				return respondError(c, listErr)
			}
			user.Snippets = derefSnippets(snippets)
		} else {
			snippets, _, listErr := s.snippetRepo.ListPublic(ctx,
				repository.SnippetFilter{AuthorID: user.ID}, 10, 0, currentID)
			if listErr != nil {
				return respondError(c, listErr)
			}
			user.Snippets = derefSnippets(snippets)
		}
	}

	return c.JSON(user)
}

// ToggleFollow handles POST /api/users/:username/follow. One endpoint flips
// the state both ways; the response says which way it went.
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	username := c.Params("username")

	target, err := s.userRepo.GetByUsername(ctx, username, userID)
	if err != nil {
		return respondError(c, err)
	}
	if target == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User"))
	}
	if target.ID == userID {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("You cannot follow yourself"))
	}

	isFollowing, err := s.followRepo.Toggle(ctx, userID, target.ID)
	if err != nil {
		return respondError(c, err)
	}

	followersCount, err := s.followRepo.CountFollowers(ctx, target.ID)
	if err != nil {
		return respondError(c, err)
	}

	message := "Unfollowed " + target.Username
	if isFollowing {
		message = "Following " + target.Username
	}

	return c.JSON(fiber.Map{
		"isFollowing":    isFollowing,
		"followersCount": followersCount,
		"message":        message,
	})
}

// GetFollowStatus handles GET /api/users/:username/follow. isFollowing is
// always false for unauthenticated callers.
func (s *Server) GetFollowStatus(c *fiber.Ctx) error {
	ctx := c.Context()
	currentID, authed := currentUserID(c)
	username := c.Params("username")

	target, err := s.userRepo.GetByUsername(ctx, username, currentID)
	if err != nil {
		return respondError(c, err)
	}
	if target == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User"))
	}

	isFollowing := false
	if authed {
		isFollowing, err = s.followRepo.IsFollowing(ctx, currentID, target.ID)
		if err != nil {
			return respondError(c, err)
		}
	}

	followersCount, err := s.followRepo.CountFollowers(ctx, target.ID)
	if err != nil {
		return respondError(c, err)
	}
	followingCount, err := s.followRepo.CountFollowing(ctx, target.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"isFollowing":    isFollowing,
		"followersCount": followersCount,
		"followingCount": followingCount,
	})
}

// sanitizePublicUser strips fields the viewer is not entitled to see.
func sanitizePublicUser(user *models.User, viewerID uint) {
	if user.ID == viewerID {
		return
	}
	if !user.ShowEmail {
		user.Email = ""
	}
	if !user.ShowLocation {
		user.Location = ""
	}
}

func derefSnippets(snippets []*models.Snippet) []models.Snippet {
	out := make([]models.Snippet, 0, len(snippets))
	for _, s := range snippets {
		out = append(out, *s)
	}
	return out
}

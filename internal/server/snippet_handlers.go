package server

import (
	"log"
	"strings"

	"codesync/internal/cache"
	"codesync/internal/featureflags"
	"codesync/internal/models"
	"codesync/internal/repository"
	"codesync/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetSnippets handles GET /api/snippets
// @Summary List public snippets
// @Description Paginated public snippets with language/author/tags/search filters
// @Tags snippets
// @Produce json
// @Success 200 {object} object{snippets=[]models.Snippet,pagination=object}
// @Router /snippets [get]
func (s *Server) GetSnippets(c *fiber.Ctx) error {
	ctx := c.Context()
	page := parsePagination(c, 20)
	userID, _ := currentUserID(c)

	filter := repository.SnippetFilter{Search: c.Query("search")}
	if lang := c.Query("language"); lang != "" {
		filter.Language = validation.NormalizeLanguage(lang)
	}
	if authorID := c.QueryInt("authorId", 0); authorID > 0 {
		filter.AuthorID = uint(authorID)
	}
	if tags := c.Query("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}

	snippets, total, err := s.snippetRepo.ListPublic(ctx, filter, page.Limit, page.Offset, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"snippets":   snippets,
		"pagination": paginationMeta(page, total),
	})
}

// exploreData is the cached explore page payload.
type exploreData struct {
	Snippets     []*models.Snippet         `json:"snippets"`
	TopLanguages []repository.LanguageStat `json:"topLanguages"`
	TrendingTags []repository.TagStat      `json:"trendingTags"`
	TotalCount   int64                     `json:"totalCount"`
}

// ExploreSnippets handles GET /api/snippets/explore. The whole payload is
// cached for 10 minutes; writes invalidate it.
func (s *Server) ExploreSnippets(c *fiber.Ctx) error {
	ctx := c.Context()
	userID, _ := currentUserID(c)

	var data exploreData
	err := cache.Aside(ctx, cache.ExploreKey, &data, cache.ExploreTTL, func() error {
		// Per-viewer fields are excluded from the shared cache entry.
		snippets, total, listErr := s.snippetRepo.ListPublic(ctx, repository.SnippetFilter{}, 20, 0, 0)
		if listErr != nil {
			return listErr
		}
		languages, langErr := s.snippetRepo.TopLanguages(ctx, 5)
		if langErr != nil {
			return langErr
		}
		tags, tagErr := s.snippetRepo.TrendingTags(ctx, 10)
		if tagErr != nil {
			return tagErr
		}
		data = exploreData{
			Snippets:     snippets,
			TopLanguages: languages,
			TrendingTags: tags,
			TotalCount:   total,
		}
		return nil
	})
	if err != nil {
		return respondError(c, err)
	}

	if !s.featureFlags.Enabled(featureflags.FlagTrendingTags, userID) {
		data.TrendingTags = nil
	}

	return c.JSON(data)
}

// GetMySnippets handles GET /api/snippets/my-snippets. Includes private
// snippets, ordered by last update.
func (s *Server) GetMySnippets(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	snippets, total, err := s.snippetRepo.ListByAuthor(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"snippets":   snippets,
		"pagination": paginationMeta(page, total),
	})
}

// GetSnippet handles GET /api/snippets/:id
// @Summary Get snippet detail
// @Description Snippet with comments and like state; private snippets 404 for non-authors
// @Tags snippets
// @Produce json
// @Param id path int true "Snippet ID"
// @Success 200 {object} object{snippet=models.Snippet,comments=[]models.Comment,isLiked=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /snippets/{id} [get]
func (s *Server) GetSnippet(c *fiber.Ctx) error {
	ctx := c.Context()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := currentUserID(c)

	snippet, err := s.visibleSnippet(c, id, userID)
	if err != nil {
		return nil
	}

	if viewErr := s.snippetRepo.IncrementViews(ctx, id); viewErr != nil {
		log.Printf("failed to increment views for snippet %d: %v", id, viewErr)
	} else {
		snippet.Views++
	}

	comments, _, err := s.commentRepo.ListBySnippet(ctx, id, 50, 0)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"snippet":  snippet,
		"comments": comments,
		"isLiked":  snippet.Liked,
	})
}

// CreateSnippet handles POST /api/snippets
func (s *Server) CreateSnippet(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Content     string   `json:"content"`
		Language    string   `json:"language"`
		Tags        []string `json:"tags"`
		IsPublic    *bool    `json:"isPublic"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	language := validation.NormalizeLanguage(req.Language)
	if err := validation.ValidateSnippet(req.Title, req.Description, req.Content, language, req.Tags); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	// Visibility falls back to the author's preference when the request
	// doesn't say.
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	} else {
		author, authorErr := s.userRepo.GetByID(ctx, userID)
		if authorErr != nil {
			return respondError(c, authorErr)
		}
		isPublic = author.DefaultSnippetVisibility != models.VisibilityPrivate
	}

	snippet := &models.Snippet{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Language:    language,
		Tags:        models.StringSlice(req.Tags),
		IsPublic:    isPublic,
		AuthorID:    userID,
	}

	if err := s.snippetRepo.Create(ctx, snippet); err != nil {
		return respondError(c, err)
	}

	// Reload with author and zeroed counts for the response shape
	snippet, err := s.snippetRepo.GetByID(ctx, snippet.ID, userID)
	if err != nil {
		return respondError(c, err)
	}

	if snippet.IsPublic {
		s.publishBroadcastEvent(EventSnippetCreated, map[string]interface{}{
			"snippetId": snippet.ID,
			"authorId":  snippet.AuthorID,
			"title":     snippet.Title,
			"language":  snippet.Language,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(snippet)
}

// UpdateSnippet handles PUT /api/snippets/:id
func (s *Server) UpdateSnippet(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	snippetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title       string    `json:"title"`
		Description *string   `json:"description"`
		Content     string    `json:"content"`
		Language    string    `json:"language"`
		Tags        *[]string `json:"tags"`
		IsPublic    *bool     `json:"isPublic"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	snippet, err := s.snippetRepo.GetByID(ctx, snippetID, userID)
	if err != nil {
		return respondError(c, err)
	}

	if snippet.AuthorID != userID {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("You can only update your own snippets"))
	}

	if req.Title != "" {
		snippet.Title = req.Title
	}
	if req.Description != nil {
		snippet.Description = *req.Description
	}
	if req.Content != "" {
		snippet.Content = req.Content
	}
	if req.Language != "" {
		snippet.Language = validation.NormalizeLanguage(req.Language)
	}
	if req.Tags != nil {
		snippet.Tags = models.StringSlice(*req.Tags)
	}
	if req.IsPublic != nil {
		snippet.IsPublic = *req.IsPublic
	}

	if err := validation.ValidateSnippet(snippet.Title, snippet.Description,
		snippet.Content, snippet.Language, snippet.Tags); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	if err := s.snippetRepo.Update(ctx, snippet); err != nil {
		return respondError(c, err)
	}

	snippet, err = s.snippetRepo.GetByID(ctx, snippetID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(snippet)
}

// DeleteSnippet handles DELETE /api/snippets/:id
func (s *Server) DeleteSnippet(c *fiber.Ctx) error {
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

	if snippet.AuthorID != userID {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("You can only delete your own snippets"))
	}

	if err := s.snippetRepo.Delete(ctx, snippetID); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

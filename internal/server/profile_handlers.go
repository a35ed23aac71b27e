package server

import (
	"io"

	"codesync/internal/models"
	"codesync/internal/service"
	"codesync/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// GetMyProfile handles GET /api/profile. Unlike the public profile route it
// includes email and preferences.
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	user, err := s.userRepo.GetProfile(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/profile. All fields are optional; only the
// ones present in the body are written.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	var req struct {
		Name                     *string `json:"name"`
		Username                 *string `json:"username"`
		Bio                      *string `json:"bio"`
		Location                 *string `json:"location"`
		Website                  *string `json:"website"`
		GitHubURL                *string `json:"githubUrl"`
		TwitterURL               *string `json:"twitterUrl"`
		Theme                    *string `json:"theme"`
		Locale                   *string `json:"language"`
		DefaultSnippetVisibility *string `json:"defaultSnippetVisibility"`
		ShowEmail                *bool   `json:"showEmail"`
		ShowLocation             *bool   `json:"showLocation"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}

	if req.Name != nil {
		if err := validation.ValidateName(*req.Name); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
		user.Name = *req.Name
	}

	if req.Username != nil && *req.Username != user.Username {
		if err := validation.ValidateUsername(*req.Username); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
		// Pre-check for a friendlier error; the DB unique constraint stays
		// the authority under concurrency.
		existing, lookupErr := s.userRepo.GetByUsername(ctx, *req.Username, 0)
		if lookupErr != nil {
			return respondError(c, lookupErr)
		}
		if existing != nil && existing.ID != userID {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Username is already taken"))
		}
		user.Username = *req.Username
	}

	bio, location, website := user.Bio, user.Location, user.Website
	if req.Bio != nil {
		bio = *req.Bio
	}
	if req.Location != nil {
		location = *req.Location
	}
	if req.Website != nil {
		website = *req.Website
	}
	if err := validation.ValidateProfile(bio, location, website); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	user.Bio, user.Location, user.Website = bio, location, website

	if req.GitHubURL != nil {
		user.GitHubURL = *req.GitHubURL
	}
	if req.TwitterURL != nil {
		user.TwitterURL = *req.TwitterURL
	}
	if req.Theme != nil {
		switch *req.Theme {
		case "light", "dark", "system":
			user.Theme = *req.Theme
		default:
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Theme must be light, dark, or system"))
		}
	}
	if req.Locale != nil {
		user.Locale = *req.Locale
	}
	if req.DefaultSnippetVisibility != nil {
		switch *req.DefaultSnippetVisibility {
		case models.VisibilityPublic, models.VisibilityPrivate:
			user.DefaultSnippetVisibility = *req.DefaultSnippetVisibility
		default:
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Visibility must be public or private"))
		}
	}
	if req.ShowEmail != nil {
		user.ShowEmail = *req.ShowEmail
	}
	if req.ShowLocation != nil {
		user.ShowLocation = *req.ShowLocation
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return respondError(c, err)
	}

	user, err = s.userRepo.GetProfile(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdatePassword handles PUT /api/profile/password
func (s *Server) UpdatePassword(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}

	if user.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Password login is not enabled for this account"))
	}

	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); cmpErr != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Current password is incorrect"))
	}

	if err := validation.ValidatePassword(req.NewPassword); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password updated"})
}

// UploadAvatar handles POST /api/profile/avatar (multipart field "image").
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Image file is required"))
	}
	if fileHeader.Size > service.MaxAvatarBytes {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Image must be smaller than 2MB"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read the uploaded file"))
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxAvatarBytes+1))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}

	result, err := s.avatars.Upload(ctx, userID, data, user.ImagePublicID)
	if err != nil {
		return respondError(c, err)
	}

	user.Image = result.SecureURL
	user.ImagePublicID = result.PublicID
	if err := s.userRepo.Update(ctx, user); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"image":   user.Image,
		"message": "Avatar updated",
	})
}

// DeleteAvatar handles DELETE /api/profile/avatar
func (s *Server) DeleteAvatar(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}

	if err := s.avatars.Delete(ctx, user.ImagePublicID); err != nil {
		return respondError(c, err)
	}

	user.Image = ""
	user.ImagePublicID = ""
	if err := s.userRepo.Update(ctx, user); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Avatar removed"})
}

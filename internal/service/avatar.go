// Package service holds application services that sit between handlers and
// external systems.
package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	"codesync/internal/imagehost"
	"codesync/internal/middleware"
	"codesync/internal/models"
	"codesync/internal/observability"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	// MaxAvatarBytes is the upload size cap for avatar images.
	MaxAvatarBytes = 2 * 1024 * 1024

	avatarSize        = 400
	avatarWebPQuality = 82
)

// AvatarService normalizes avatar images and stores them on the image host.
type AvatarService struct {
	host *imagehost.Client
}

// NewAvatarService returns a new AvatarService. A nil host disables uploads.
func NewAvatarService(host *imagehost.Client) *AvatarService {
	return &AvatarService{host: host}
}

// Enabled reports whether avatar uploads are configured.
func (s *AvatarService) Enabled() bool {
	return s.host != nil
}

// decodeImage parses the upload, trying the stdlib formats first and WebP as
// a fallback.
func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}
	if webpImg, webpErr := webp.Decode(bytes.NewReader(data)); webpErr == nil {
		return webpImg, nil
	}
	return nil, models.NewValidationError("Unsupported image format")
}

// Normalize center-crops the image to a square and scales it to 400x400 WebP.
func (s *AvatarService) Normalize(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, models.NewValidationError("Image file is required")
	}
	if len(data) > MaxAvatarBytes {
		return nil, models.NewValidationError("Image must be smaller than 2MB")
	}

	src, err := decodeImage(data)
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	side := bounds.Dx()
	if bounds.Dy() < side {
		side = bounds.Dy()
	}
	x0 := bounds.Min.X + (bounds.Dx()-side)/2
	y0 := bounds.Min.Y + (bounds.Dy()-side)/2
	square := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewRGBA(image.Rect(0, 0, avatarSize, avatarSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, square, draw.Over, nil)

	var out bytes.Buffer
	if err := webp.Encode(&out, dst, &webp.Options{Quality: avatarWebPQuality}); err != nil {
		return nil, models.NewInternalError(fmt.Errorf("webp encode: %w", err))
	}
	return out.Bytes(), nil
}

// Upload normalizes the image and stores it under a per-user public id,
// removing the previous asset best-effort.
func (s *AvatarService) Upload(ctx context.Context, userID uint, data []byte, previousPublicID string) (*imagehost.UploadResult, error) {
	if s.host == nil {
		return nil, models.NewValidationError("Avatar uploads are not configured")
	}

	normalized, err := s.Normalize(data)
	if err != nil {
		observability.ImageUploadsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	publicID := fmt.Sprintf("avatars/user_%d_%s", userID, uuid.New().String()[:8])
	result, err := s.host.Upload(ctx, normalized, publicID)
	if err != nil {
		observability.ImageUploadsTotal.WithLabelValues("error").Inc()
		return nil, models.NewInternalError(err)
	}
	observability.ImageUploadsTotal.WithLabelValues("ok").Inc()

	if previousPublicID != "" && previousPublicID != result.PublicID {
		if delErr := s.host.Destroy(ctx, previousPublicID); delErr != nil {
			middleware.Logger.WarnContext(ctx, "failed to delete previous avatar",
				slog.String("public_id", previousPublicID),
				slog.String("error", delErr.Error()),
			)
		}
	}
	return result, nil
}

// Delete removes the stored avatar asset.
func (s *AvatarService) Delete(ctx context.Context, publicID string) error {
	if s.host == nil || publicID == "" {
		return nil
	}
	if err := s.host.Destroy(ctx, publicID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"codesync/internal/config"
	"codesync/internal/imagehost"
	"codesync/internal/models"
	"codesync/internal/testutil"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvatarService_Normalize(t *testing.T) {
	svc := NewAvatarService(nil)

	t.Run("Square Output", func(t *testing.T) {
		out, err := svc.Normalize(testutil.TinyPNG(800, 600))
		require.NoError(t, err)

		img, decErr := webp.Decode(bytes.NewReader(out))
		require.NoError(t, decErr)
		assert.Equal(t, 400, img.Bounds().Dx())
		assert.Equal(t, 400, img.Bounds().Dy())
	})

	t.Run("Upscales Small Images", func(t *testing.T) {
		out, err := svc.Normalize(testutil.TinyPNG(50, 50))
		require.NoError(t, err)

		img, decErr := webp.Decode(bytes.NewReader(out))
		require.NoError(t, decErr)
		assert.Equal(t, 400, img.Bounds().Dx())
	})

	t.Run("Rejects Empty", func(t *testing.T) {
		_, err := svc.Normalize(nil)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	})

	t.Run("Rejects Oversized", func(t *testing.T) {
		_, err := svc.Normalize(make([]byte, MaxAvatarBytes+1))
		assert.Error(t, err)
	})

	t.Run("Rejects Non-Image", func(t *testing.T) {
		_, err := svc.Normalize([]byte("definitely not an image"))
		assert.Error(t, err)
	})
}

func TestAvatarService_Upload(t *testing.T) {
	srv, destroyed := testutil.ImageHostStub()
	defer srv.Close()

	host := imagehost.NewClient(&config.Config{
		CloudinaryCloudName: "demo",
		CloudinaryAPIKey:    "key",
		CloudinaryAPISecret: "secret",
		CloudinaryBaseURL:   srv.URL,
	})
	svc := NewAvatarService(host)
	require.True(t, svc.Enabled())

	result, err := svc.Upload(context.Background(), 7, testutil.TinyPNG(300, 300), "avatars/user_7_old")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.PublicID, "avatars/user_7_"))
	assert.Contains(t, result.SecureURL, result.PublicID)
	assert.Equal(t, []string{"avatars/user_7_old"}, *destroyed)
}

func TestAvatarService_UploadDisabled(t *testing.T) {
	svc := NewAvatarService(nil)
	assert.False(t, svc.Enabled())

	_, err := svc.Upload(context.Background(), 1, testutil.TinyPNG(10, 10), "")
	assert.Error(t, err)
}

func TestAvatarService_Delete(t *testing.T) {
	srv, destroyed := testutil.ImageHostStub()
	defer srv.Close()

	host := imagehost.NewClient(&config.Config{
		CloudinaryCloudName: "demo",
		CloudinaryAPIKey:    "key",
		CloudinaryAPISecret: "secret",
		CloudinaryBaseURL:   srv.URL,
	})
	svc := NewAvatarService(host)

	require.NoError(t, svc.Delete(context.Background(), "avatars/user_1_abc"))
	assert.Equal(t, []string{"avatars/user_1_abc"}, *destroyed)

	// Deleting with no stored asset is a no-op.
	assert.NoError(t, svc.Delete(context.Background(), ""))
}

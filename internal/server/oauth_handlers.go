package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"codesync/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const oauthStateTTL = 10 * time.Minute

// oauthConfig builds the provider config, or nil when the provider is not
// configured via environment.
func (s *Server) oauthConfig(provider string) *oauth2.Config {
	redirect := strings.TrimSuffix(s.config.OAuthRedirectBase, "/") +
		"/api/auth/oauth/" + provider + "/callback"

	switch provider {
	case "github":
		if !s.config.GitHubOAuthEnabled() {
			return nil
		}
		return &oauth2.Config{
			ClientID:     s.config.GitHubClientID,
			ClientSecret: s.config.GitHubClientSecret,
			Endpoint:     github.Endpoint,
			RedirectURL:  redirect,
			Scopes:       []string{"read:user", "user:email"},
		}
	case "google":
		if !s.config.GoogleOAuthEnabled() {
			return nil
		}
		return &oauth2.Config{
			ClientID:     s.config.GoogleClientID,
			ClientSecret: s.config.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  redirect,
			Scopes:       []string{"openid", "email", "profile"},
		}
	}
	return nil
}

// OAuthRedirect handles GET /api/auth/oauth/:provider and sends the browser
// to the provider's consent page.
func (s *Server) OAuthRedirect(c *fiber.Ctx) error {
	conf := s.oauthConfig(c.Params("provider"))
	if conf == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("OAuth provider"))
	}

	state := uuid.New().String()
	if s.redis != nil {
		if err := s.redis.Set(c.Context(), "oauth:state:"+state, "1", oauthStateTTL).Err(); err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
	}

	return c.Redirect(conf.AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

// oauthIdentity is the provider-agnostic shape extracted from userinfo calls.
type oauthIdentity struct {
	Email string
	Name  string
	Login string
	Image string
}

// OAuthCallback handles GET /api/auth/oauth/:provider/callback. It exchanges
// the code, finds or creates the account by email, and issues the same JWT as
// password login.
func (s *Server) OAuthCallback(c *fiber.Ctx) error {
	provider := c.Params("provider")
	conf := s.oauthConfig(provider)
	if conf == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("OAuth provider"))
	}

	code := c.Query("code")
	if code == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Missing authorization code"))
	}

	// Single-use state check. Skipped without Redis (single-instance dev mode).
	if s.redis != nil {
		state := c.Query("state")
		deleted, err := s.redis.Del(c.Context(), "oauth:state:"+state).Result()
		if err != nil || deleted == 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid or expired OAuth state"))
		}
	}

	ctx, cancel := context.WithTimeout(c.Context(), 15*time.Second)
	defer cancel()

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("OAuth code exchange failed"))
	}

	identity, err := fetchOAuthIdentity(ctx, provider, conf, token)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadGateway,
			models.NewInternalError(err))
	}
	if identity.Email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("OAuth provider did not supply an email address"))
	}

	user, err := s.findOrCreateOAuthUser(c.Context(), provider, identity)
	if err != nil {
		return respondError(c, err)
	}

	jwtToken, err := s.generateToken(user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	// Browser flows get redirected back to the frontend with the token;
	// API clients (no redirect base configured) get JSON.
	if s.config.OAuthRedirectBase != "" {
		target := strings.TrimSuffix(s.config.OAuthRedirectBase, "/") +
			"/auth/callback?token=" + url.QueryEscape(jwtToken)
		return c.Redirect(target, fiber.StatusTemporaryRedirect)
	}
	return c.JSON(fiber.Map{
		"token": jwtToken,
		"user":  user,
	})
}

func fetchOAuthIdentity(ctx context.Context, provider string, conf *oauth2.Config, token *oauth2.Token) (*oauthIdentity, error) {
	client := conf.Client(ctx, token)

	switch provider {
	case "github":
		var payload struct {
			Login     string `json:"login"`
			Name      string `json:"name"`
			Email     string `json:"email"`
			AvatarURL string `json:"avatar_url"`
		}
		if err := getJSON(client, "https://api.github.com/user", &payload); err != nil {
			return nil, err
		}
		identity := &oauthIdentity{
			Email: payload.Email,
			Name:  payload.Name,
			Login: payload.Login,
			Image: payload.AvatarURL,
		}
		if identity.Email == "" {
			// Users with private emails need the /user/emails endpoint.
			var emails []struct {
				Email    string `json:"email"`
				Primary  bool   `json:"primary"`
				Verified bool   `json:"verified"`
			}
			if err := getJSON(client, "https://api.github.com/user/emails", &emails); err == nil {
				for _, e := range emails {
					if e.Primary && e.Verified {
						identity.Email = e.Email
						break
					}
				}
			}
		}
		return identity, nil

	case "google":
		var payload struct {
			Email   string `json:"email"`
			Name    string `json:"name"`
			Picture string `json:"picture"`
		}
		if err := getJSON(client, "https://www.googleapis.com/oauth2/v2/userinfo", &payload); err != nil {
			return nil, err
		}
		return &oauthIdentity{
			Email: payload.Email,
			Name:  payload.Name,
			Image: payload.Picture,
		}, nil
	}
	return nil, fmt.Errorf("unsupported oauth provider %q", provider)
}

func getJSON(client *http.Client, url string, dest interface{}) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("oauth userinfo %s: status %d: %s", url, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

var nonUsernameChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

func (s *Server) findOrCreateOAuthUser(ctx context.Context, provider string, identity *oauthIdentity) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, identity.Email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	name := identity.Name
	if name == "" {
		name = identity.Login
	}
	if name == "" {
		name = strings.Split(identity.Email, "@")[0]
	}

	base := identity.Login
	if base == "" {
		base = strings.Split(identity.Email, "@")[0]
	}
	base = nonUsernameChars.ReplaceAllString(base, "_")
	if len(base) < 3 {
		base = base + "_dev"
	}
	if len(base) > 16 {
		base = base[:16]
	}

	// Pick a free username, suffixing on collision.
	username := base
	for i := 0; i < 5; i++ {
		existing, lookupErr := s.userRepo.GetByUsername(ctx, username, 0)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing == nil {
			break
		}
		username = fmt.Sprintf("%s_%s", base, uuid.New().String()[:4])
	}

	user = &models.User{
		Name:          name,
		Username:      username,
		Email:         identity.Email,
		Image:         identity.Image,
		OAuthProvider: provider,
		IsVerified:    true,
	}
	if createErr := s.userRepo.Create(ctx, user); createErr != nil {
		return nil, createErr
	}
	return user, nil
}

package server

import (
	"context"

	"codesync/internal/config"
	"codesync/internal/featureflags"
	"codesync/internal/models"
	"codesync/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string, currentUserID uint) (*models.User, error) {
	args := m.Called(ctx, username, currentUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uint, hashed string) error {
	args := m.Called(ctx, id, hashed)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, search string, limit, offset int) ([]models.User, int64, error) {
	args := m.Called(ctx, search, limit, offset)
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

// MockSnippetRepository is a mock of the SnippetRepository interface
type MockSnippetRepository struct {
	mock.Mock
}

func (m *MockSnippetRepository) Create(ctx context.Context, snippet *models.Snippet) error {
	args := m.Called(ctx, snippet)
	return args.Error(0)
}

func (m *MockSnippetRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Snippet, error) {
	args := m.Called(ctx, id, currentUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Snippet), args.Error(1)
}

func (m *MockSnippetRepository) ListPublic(ctx context.Context, filter repository.SnippetFilter, limit, offset int, currentUserID uint) ([]*models.Snippet, int64, error) {
	args := m.Called(ctx, filter, limit, offset, currentUserID)
	return args.Get(0).([]*models.Snippet), args.Get(1).(int64), args.Error(2)
}

func (m *MockSnippetRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Snippet, int64, error) {
	args := m.Called(ctx, authorID, limit, offset)
	return args.Get(0).([]*models.Snippet), args.Get(1).(int64), args.Error(2)
}

func (m *MockSnippetRepository) Update(ctx context.Context, snippet *models.Snippet) error {
	args := m.Called(ctx, snippet)
	return args.Error(0)
}

func (m *MockSnippetRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSnippetRepository) IncrementViews(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSnippetRepository) ToggleLike(ctx context.Context, userID, snippetID uint) (bool, error) {
	args := m.Called(ctx, userID, snippetID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSnippetRepository) IsLiked(ctx context.Context, userID, snippetID uint) (bool, error) {
	args := m.Called(ctx, userID, snippetID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSnippetRepository) CountLikes(ctx context.Context, snippetID uint) (int64, error) {
	args := m.Called(ctx, snippetID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSnippetRepository) TopLanguages(ctx context.Context, limit int) ([]repository.LanguageStat, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]repository.LanguageStat), args.Error(1)
}

func (m *MockSnippetRepository) TrendingTags(ctx context.Context, limit int) ([]repository.TagStat, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]repository.TagStat), args.Error(1)
}

// MockCommentRepository is a mock of the CommentRepository interface
type MockCommentRepository struct {
	mock.Mock
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockCommentRepository) ListBySnippet(ctx context.Context, snippetID uint, limit, offset int) ([]*models.Comment, int64, error) {
	args := m.Called(ctx, snippetID, limit, offset)
	return args.Get(0).([]*models.Comment), args.Get(1).(int64), args.Error(2)
}

func (m *MockCommentRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockFollowRepository is a mock of the FollowRepository interface
type MockFollowRepository struct {
	mock.Mock
}

func (m *MockFollowRepository) Toggle(ctx context.Context, followerID, followingID uint) (bool, error) {
	args := m.Called(ctx, followerID, followingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	args := m.Called(ctx, followerID, followingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFollowRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// serverMocks bundles the repository mocks behind a test Server.
type serverMocks struct {
	users    *MockUserRepository
	snippets *MockSnippetRepository
	comments *MockCommentRepository
	follows  *MockFollowRepository
}

// newTestServer builds a Server wired to fresh mocks, no DB, no Redis.
// Realtime publishes become no-ops.
func newTestServer() (*Server, *serverMocks) {
	m := &serverMocks{
		users:    new(MockUserRepository),
		snippets: new(MockSnippetRepository),
		comments: new(MockCommentRepository),
		follows:  new(MockFollowRepository),
	}
	s := &Server{
		config:       &config.Config{JWTSecret: "test-secret", Env: "test"},
		userRepo:     m.users,
		snippetRepo:  m.snippets,
		commentRepo:  m.comments,
		followRepo:   m.follows,
		featureFlags: featureflags.NewManager("realtime=on,trending_tags=on"),
	}
	return s, m
}

// withUser fakes the auth middleware by pinning the user ID in locals.
func withUser(id uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userID", id)
		return c.Next()
	}
}

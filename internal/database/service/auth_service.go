package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/config"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/models"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/repository"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/token"
)

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Register(ctx context.Context, username, email, fullName, password string) (*models.User, *TokenPair, error)
	Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateAccessToken(tokenString string) (*token.AccessClaims, error)
	ListActiveSessions(ctx context.Context, userID uint) ([]SessionSummary, error)
	ListSecurityEvents(ctx context.Context, userID uint) ([]models.BreachEvent, error)
}

// SessionSummary describes one token family of a user
type SessionSummary struct {
	FamilyID      uuid.UUID `json:"family_id"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	Revoked       bool      `json:"revoked"`
	ReasonRevoked string    `json:"reason_revoked,omitempty"`
	TokenCount    int       `json:"token_count"`
}

type authService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	rotation         RotationService
	issuer           token.AccessTokenIssuer
	events           database.SecurityEventStore
	policy           config.SessionPolicy
	now              func() time.Time
	logger           *slog.Logger
}

// NewAuthService creates a new authentication service instance
func NewAuthService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	rotation RotationService,
	issuer token.AccessTokenIssuer,
	events database.SecurityEventStore,
	cfg *config.Config,
	logger *slog.Logger,
	opts ...Option,
) AuthService {
	o := buildOptions(opts)
	return &authService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		rotation:         rotation,
		issuer:           issuer,
		events:           events,
		policy:           cfg.SessionPolicy,
		now:              func() time.Time { return o.now().UTC() },
		logger:           logger,
	}
}

func (s *authService) Register(ctx context.Context, username, email, fullName, password string) (*models.User, *TokenPair, error) {
	s.logger.Info("📝 [AuthService] Registration attempt", "email", email, "username", username)

	// Check if email already exists
	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		s.logger.Error("❌ [AuthService] Database error", "error", err)
		return nil, nil, internalError("find user by email", err)
	}

	if existingUser != nil {
		s.logger.Warn("⚠️ [AuthService] Email already registered", "email", email)
		return nil, nil, ErrEmailAlreadyExists
	}

	// Check if username already exists
	existingUser, err = s.userRepo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		s.logger.Error("❌ [AuthService] Database error checking username", "error", err)
		return nil, nil, internalError("find user by username", err)
	}

	if existingUser != nil {
		s.logger.Warn("⚠️ [AuthService] Username already taken", "username", username)
		return nil, nil, ErrUsernameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to hash password", "error", err)
		return nil, nil, internalError("hash password", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		FullName: fullName,
		Password: string(hashedPassword),
		Roles:    []string{models.RoleUser},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, nil, ErrEmailAlreadyExists
		}
		s.logger.Error("❌ [AuthService] Failed to create user", "error", err)
		return nil, nil, internalError("create user", err)
	}

	tokens, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("✅ [AuthService] User registered successfully", "user_id", user.ID)
	return user, tokens, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	s.logger.Info("🔐 [AuthService] Login attempt", "email", email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Warn("⚠️ [AuthService] User not found", "email", email)
			return nil, nil, ErrInvalidCredentials
		}
		s.logger.Error("❌ [AuthService] Database error", "error", err)
		return nil, nil, internalError("find user by email", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.logger.Warn("⚠️ [AuthService] Invalid password", "email", email)
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("✅ [AuthService] User logged in successfully", "user_id", user.ID)
	return user, tokens, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	return s.rotation.Refresh(ctx, refreshToken)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	return s.rotation.Logout(ctx, refreshToken)
}

func (s *authService) ValidateAccessToken(tokenString string) (*token.AccessClaims, error) {
	claims, err := s.issuer.Validate(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ListActiveSessions summarises every family of the user, newest first
func (s *authService) ListActiveSessions(ctx context.Context, userID uint) ([]SessionSummary, error) {
	tokens, err := s.refreshTokenRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to list sessions", "user_id", userID, "error", err)
		return nil, internalError("list user tokens", err)
	}

	families := make(map[uuid.UUID][]models.RefreshToken)
	order := make([]uuid.UUID, 0)
	for _, t := range tokens {
		if _, seen := families[t.FamilyID]; !seen {
			order = append(order, t.FamilyID)
		}
		families[t.FamilyID] = append(families[t.FamilyID], t)
	}

	sessions := make([]SessionSummary, 0, len(order))
	for _, familyID := range order {
		sessions = append(sessions, summarizeFamily(familyID, families[familyID]))
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	return sessions, nil
}

func (s *authService) ListSecurityEvents(ctx context.Context, userID uint) ([]models.BreachEvent, error) {
	events, err := s.events.ListBreaches(ctx, userID)
	if err != nil {
		return nil, internalError("list breach events", err)
	}
	return events, nil
}

// openSession is the login-time entrypoint: it applies the session policy,
// starts a new family and pairs its root secret with an access token.
func (s *authService) openSession(ctx context.Context, user *models.User) (*TokenPair, error) {
	if s.policy != config.SessionPolicyMulti {
		revoked, err := s.refreshTokenRepo.RevokeAllUserTokens(ctx, user.ID, models.ReasonSuperseded, s.now())
		if err != nil {
			s.logger.Error("❌ [AuthService] Failed to revoke previous sessions", "user_id", user.ID, "error", err)
			return nil, internalError("revoke previous sessions", err)
		}
		if revoked > 0 {
			s.logger.Info("🧹 [AuthService] Previous sessions superseded", "user_id", user.ID, "revoked", revoked)
		}
	}

	accessToken, err := s.issuer.Issue(user.ID, user.Roles, user.EmailVerified)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to issue access token", "error", err)
		return nil, internalError("issue access token", err)
	}

	root, err := s.rotation.StartFamily(ctx, user.ID)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to start token family", "error", err)
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: root.Token,
		ExpiresIn:    s.issuer.ExpirySeconds(),
	}, nil
}

// summarizeFamily reports the family's root creation time and the state of its tip
func summarizeFamily(familyID uuid.UUID, tokens []models.RefreshToken) SessionSummary {
	root := tokens[0]
	tip := tokens[len(tokens)-1]
	for i := range tokens {
		if tokens[i].IsRoot() {
			root = tokens[i]
		}
		if tokens[i].ReplacedByID == nil {
			tip = tokens[i]
		}
	}

	return SessionSummary{
		FamilyID:      familyID,
		CreatedAt:     root.CreatedAt,
		ExpiresAt:     tip.ExpiresAt,
		Revoked:       tip.IsRevoked,
		ReasonRevoked: string(tip.Reason()),
		TokenCount:    len(tokens),
	}
}

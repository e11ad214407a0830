package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
)

type AuthService struct {
	users    UserStore
	profiles ProfileStore
	tokens   *TokenIssuer
	revoked  RevocationList
	cache    ProfileCache
	cost     int
}

func NewAuthService(users UserStore, profiles ProfileStore, tokens *TokenIssuer, revoked RevocationList, cache ProfileCache) *AuthService {
	if revoked == nil {
		revoked = NewMemoryRevocationList()
	}
	if cache == nil {
		cache = NopProfileCache{}
	}
	return &AuthService{
		users:    users,
		profiles: profiles,
		tokens:   tokens,
		revoked:  revoked,
		cache:    cache,
		cost:     bcrypt.DefaultCost,
	}
}

// SignUp creates the account and its public profile, then signs the user in.
func (s *AuthService) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.Session, error) {
	if _, err := s.profiles.GetProfileByStudentID(ctx, req.StudentID); err == nil {
		return nil, ErrStudentIDTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	profile := &models.Profile{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		StudentID:   req.StudentID,
		FullName:    req.FullName,
		Skills:      []string{},
		SocialLinks: map[string]string{},
		Public:      true,
		FirstLogin:  true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		// Roll back so the email can be used again.
		if delErr := s.users.DeleteUser(ctx, user.ID); delErr != nil {
			observability.GetLogger(ctx).Error("signup rollback failed", zap.String("user_id", user.ID), zap.Error(delErr))
		}
		return nil, err
	}

	return s.newSession(user, profile)
}

func (s *AuthService) SignIn(ctx context.Context, req *models.SignInRequest) (*models.Session, error) {
	user, err := s.users.GetUserByEmail(ctx, models.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	profile, err := s.profileFor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.newSession(user, profile)
}

func (s *AuthService) SignOut(ctx context.Context, claims *TokenClaims) error {
	if claims == nil || claims.TokenID == "" {
		return nil
	}
	return s.revoked.Revoke(ctx, claims.TokenID, claims.ExpiresAt)
}

// Authenticate verifies a bearer token and checks it has not been signed out.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*TokenClaims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// GetSession returns the signed-in user and profile. No new token is minted.
func (s *AuthService) GetSession(ctx context.Context, userID string) (*models.Session, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Session{
		User:    *user,
		Profile: profile,
		IsAdmin: profile.IsAdmin(),
	}, nil
}

func (s *AuthService) UpdatePassword(ctx context.Context, userID string, req *models.UpdatePasswordRequest) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return err
	}

	profile, err := s.profiles.GetProfileByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if profile.FirstLogin {
		profile.FirstLogin = false
		profile.UpdatedAt = time.Now().UTC()
		if err := s.profiles.UpdateProfile(ctx, profile); err != nil {
			return err
		}
		s.cache.Delete(ctx, profile)
	}
	return nil
}

func (s *AuthService) profileFor(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profiles.GetProfileByUserID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return profile, err
}

func (s *AuthService) newSession(user *models.User, profile *models.Profile) (*models.Session, error) {
	token, exp, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &models.Session{
		Token:     token,
		ExpiresAt: exp,
		User:      *user,
		Profile:   profile,
		IsAdmin:   profile.IsAdmin(),
	}, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/app/models/dto"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
	"github.com/yigit/peerlearn/internal/pkg/auth"
)

// AuthService defines the interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

// authServiceImpl implements AuthService
type authServiceImpl struct {
	userRepo  UserStore
	tokenRepo TokenStore
	tokens    TokenIssuer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo UserStore, tokenRepo TokenStore, tokens TokenIssuer, logger zerolog.Logger) AuthService {
	return &authServiceImpl{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		tokens:    tokens,
		logger:    logger,
		now:       time.Now,
	}
}

// validatePassword checks if password meets requirements
func validatePassword(password string) error {
	if len(password) < 8 {
		return apperrors.NewCustomError(apperrors.ErrValidationFailed, "Password must be at least 8 characters long")
	}

	hasLetter, hasDigit := false, false
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return apperrors.NewCustomError(apperrors.ErrValidationFailed, "Password must contain at least one letter and one digit")
	}
	return nil
}

// Register creates a learner or trainer account and signs it in
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = models.RoleLearner
	}
	if !role.Valid() {
		return nil, apperrors.NewBadRequestError("Role must be learner or trainer")
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: hashedPassword,
		Role:     role,
		Bio:      req.Bio,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return nil, apperrors.NewCustomError(apperrors.ErrEmailAlreadyExists, "Email is already registered")
		}
		return nil, fmt.Errorf("user creation error: %w", err)
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(role)).Msg("User registered")

	token, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Token: *token, User: user}, nil
}

// Login authenticates a user
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Token: *token, User: user}, nil
}

// RefreshToken rotates a refresh token into a new token pair
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	stored, err := s.tokenRepo.GetTokenByValue(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if stored.IsRevoked {
		// A revoked token being replayed means the token family is compromised.
		s.logger.Warn().Int64("userID", stored.UserID).Msg("Revoked refresh token reused, revoking all user tokens")
		if err := s.tokenRepo.RevokeAllUserTokens(ctx, stored.UserID); err != nil {
			s.logger.Error().Err(err).Int64("userID", stored.UserID).Msg("Failed to revoke user tokens")
		}
		return nil, apperrors.ErrTokenRevoked
	}

	if stored.Expired(s.now()) {
		if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
			s.logger.Error().Err(err).Int64("userID", stored.UserID).Msg("Failed to revoke expired refresh token")
		}
		return nil, apperrors.ErrTokenExpired
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	// Revoke old token to prevent reuse
	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke old token: %w", err)
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes a refresh token
func (s *authServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil && !errors.Is(err, apperrors.ErrTokenRevoked) {
		return err
	}
	return nil
}

func (s *authServiceImpl) issueTokens(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	pair, err := s.tokens.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	if err := s.tokenRepo.CreateToken(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		TokenType:             "Bearer",
		ExpiresIn:             pair.ExpiresIn,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresIn: pair.RefreshExpiresIn,
	}, nil
}

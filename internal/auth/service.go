package auth

import (
	"log/slog"
	"strconv"

	"github.com/frahmantamala/travel-request/internal"
	"golang.org/x/crypto/bcrypt"
)

// CredentialRecord is what the repository hands back for a login attempt.
type CredentialRecord struct {
	UserID       int64
	Email        string
	PasswordHash string
	IsActive     bool
}

type UserRepository interface {
	GetCredentialByUsername(username string) (*CredentialRecord, error)
	// ResolveActor maps a credential to its single role row. A user found in
	// more than one role table is a data fault and must be rejected, not
	// silently resolved.
	ResolveActor(userID int64) (*internal.Actor, error)
}

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetActor(userID int64) (*internal.Actor, error)
}

type Service struct {
	userRepo       UserRepository
	tokenGenerator TokenGenerator
	logger         *slog.Logger
}

func NewService(userRepo UserRepository, tokenGen TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		logger:         logger,
	}
}

// Authenticate validates credentials and returns tokens.
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	cred, err := s.userRepo.GetCredentialByUsername(dto.Username)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if !cred.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	// reject logins that cannot resolve to exactly one role up front
	if _, err := s.userRepo.ResolveActor(cred.UserID); err != nil {
		s.logger.Error("login rejected: role resolution failed", "error", err, "user_id", cred.UserID)
		return AuthTokens{}, err
	}

	userID := strconv.FormatInt(cred.UserID, 10)
	accessToken, err := s.tokenGenerator.GenerateAccessToken(userID, cred.Email)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to generate access token", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(userID, cred.Email)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to generate refresh token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshTokens validates a refresh token and rotates the pair.
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	accessToken, err := s.tokenGenerator.GenerateAccessToken(claims.UserID, claims.Email)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to generate access token", err)
	}

	newRefreshToken, err := s.tokenGenerator.GenerateRefreshToken(claims.UserID, claims.Email)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to generate refresh token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateAccessToken(tokenString)
}

// GetActor resolves the full actor for an authenticated user ID. Called once
// per request by the auth middleware so handlers and services only ever see
// a server-derived role.
func (s *Service) GetActor(userID int64) (*internal.Actor, error) {
	return s.userRepo.ResolveActor(userID)
}

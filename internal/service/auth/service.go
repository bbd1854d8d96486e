package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/auth"
	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/user"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceImpl struct {
	userRepo     user.UserRepository
	jwtService   jwt.Service
	queryTimeout time.Duration
}

func NewAuthService(userRepo user.UserRepository, jwtService jwt.Service, queryTimeout time.Duration) auth.AuthService {
	return &AuthServiceImpl{
		userRepo:     userRepo,
		jwtService:   jwtService,
		queryTimeout: queryTimeout,
	}
}

// Login implements auth.AuthService. A missing account and a wrong password
// produce the same error so login probing cannot enumerate emails.
func (s *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.LoginResponse{}, err
	}

	qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	u, err := s.userRepo.GetByEmail(qctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.LoginResponse{}, auth.ErrInvalidCredentials
		}
		return auth.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return auth.LoginResponse{}, auth.ErrInvalidCredentials
	}

	if !u.IsActive {
		return auth.LoginResponse{}, user.ErrUserInactive
	}

	resp, err := s.issueTokenPair(u)
	if err != nil {
		return auth.LoginResponse{}, err
	}

	slog.Info("user logged in", "user_id", u.ID, "role", u.Role)
	return resp, nil
}

// Refresh implements auth.AuthService.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (auth.LoginResponse, error) {
	if s.jwtService.IsTokenRevoked(refreshToken) {
		return auth.LoginResponse{}, auth.ErrRefreshTokenRevoked
	}

	userID, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return auth.LoginResponse{}, auth.ErrInvalidToken
	}

	qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	u, err := s.userRepo.GetByID(qctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.LoginResponse{}, auth.ErrInvalidToken
		}
		return auth.LoginResponse{}, err
	}

	if !u.IsActive {
		return auth.LoginResponse{}, user.ErrUserInactive
	}

	resp, err := s.issueTokenPair(u)
	if err != nil {
		return auth.LoginResponse{}, err
	}

	// Rotation: the presented token is single-use.
	s.jwtService.RevokeToken(refreshToken)

	return resp, nil
}

// Logout implements auth.AuthService.
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	s.jwtService.RevokeToken(refreshToken)
	return nil
}

func (s *AuthServiceImpl) issueTokenPair(u user.User) (auth.LoginResponse, error) {
	accessToken, accessExpiresAt, err := s.jwtService.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		return auth.LoginResponse{}, err
	}

	refreshToken, refreshExpiresAt, err := s.jwtService.GenerateRefreshToken(u.ID)
	if err != nil {
		return auth.LoginResponse{}, err
	}

	return auth.LoginResponse{
		AccessToken:           accessToken,
		AccessTokenExpiresIn:  accessExpiresAt,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresIn: refreshExpiresAt,
		UserID:                u.ID,
		Name:                  u.Name,
		Role:                  string(u.Role),
	}, nil
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/Sandesh225/smartpokhara-sub002/internal/auth"
	"github.com/Sandesh225/smartpokhara-sub002/internal/config"
	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
	"github.com/Sandesh225/smartpokhara-sub002/internal/repository"
	apperrors "github.com/Sandesh225/smartpokhara-sub002/pkg/util"
)

// AuthService coordinates staff login. Citizen identities come from the
// municipal identity provider; this service only authenticates the staff
// directory it owns.
type AuthService struct {
	store      repository.Store
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, store repository.Store) *AuthService {
	return &AuthService{
		store:      store,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// LoginStaff authenticates a staff member and returns a role-bearing token.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*domain.StaffWorkload, string, time.Time, error) {
	staff, err := s.store.GetStaffByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(staff.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	actor := domain.Actor{ID: staff.ID, Role: staff.Role.ActorRole()}
	token, exp, err := s.tokenMgr.GenerateToken(actor)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return staff, token, exp, nil
}

// HashPassword hashes a password at the configured cost, used when seeding
// staff accounts.
func (s *AuthService) HashPassword(password string) (string, error) {
	return auth.HashPassword(password, s.bcryptCost)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

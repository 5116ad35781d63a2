package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
	"github.com/Sandesh225/smartpokhara-sub002/internal/repository"
	apperrors "github.com/Sandesh225/smartpokhara-sub002/pkg/util"
)

const actorKey = "auth_actor"

// Middleware validates bearer tokens and resolves the calling actor.
type Middleware struct {
	tokens *TokenManager
	store  repository.Store
}

// NewMiddleware constructs the auth middleware. Staff and supervisor tokens
// are checked against the staff directory; citizen identities live in the
// municipal identity provider and are trusted from the signed token alone.
func NewMiddleware(tokens *TokenManager, store repository.Store) *Middleware {
	return &Middleware{tokens: tokens, store: store}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	actor := domain.Actor{ID: claims.ActorID, Role: claims.Role}
	switch claims.Role {
	case domain.RoleCitizen:
	case domain.RoleStaff, domain.RoleSupervisor:
		if _, err := m.store.GetStaff(c.Context(), claims.ActorID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewUnauthorized("staff member not found")
			}
			return apperrors.MapError(err)
		}
	default:
		return apperrors.NewUnauthorized("unknown role")
	}

	c.Locals(actorKey, actor)
	return c.Next()
}

// ActorFromContext retrieves the authenticated actor.
func ActorFromContext(c *fiber.Ctx) (domain.Actor, bool) {
	val := c.Locals(actorKey)
	if val == nil {
		return domain.Actor{}, false
	}
	actor, ok := val.(domain.Actor)
	return actor, ok
}

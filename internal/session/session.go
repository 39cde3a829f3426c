package session

import (
	"errors"
	"time"

	"github.com/whisperwall/whisperwall-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the caller reconstructed from a decoded session token. The
// token is self-contained: no store lookup happens between decoding and use.
type Identity struct {
	UserID             uuid.UUID
	Username           string
	Email              string
	IsVerified         bool
	IsAcceptingMessage bool
}

// Sign mints the stateless session token for a user.
func Sign(user *models.User, secret string, expiry time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":          user.ID.String(),
		"username":     user.Username,
		"email":        user.Email,
		"is_verified":  user.IsVerified,
		"is_accepting": user.IsAcceptingMessage,
		"iat":          time.Now().Unix(),
		"exp":          time.Now().Add(expiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Verify parses and signature-checks a raw token outside of the Fiber JWT
// middleware (used by the route gate, which must not touch the store).
func Verify(raw, secret string) (*Identity, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return fromClaims(claims)
}

// FromContext extracts the caller identity placed in Fiber locals by the JWT
// middleware.
func FromContext(c *fiber.Ctx) (*Identity, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return nil, errors.New("no session token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return fromClaims(claims)
}

func fromClaims(claims jwt.MapClaims) (*Identity, error) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, errors.New("missing sub claim")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, errors.New("malformed sub claim")
	}

	id := &Identity{UserID: userID}
	if v, ok := claims["username"].(string); ok {
		id.Username = v
	}
	if v, ok := claims["email"].(string); ok {
		id.Email = v
	}
	if v, ok := claims["is_verified"].(bool); ok {
		id.IsVerified = v
	}
	if v, ok := claims["is_accepting"].(bool); ok {
		id.IsAcceptingMessage = v
	}
	return id, nil
}

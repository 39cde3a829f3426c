package middleware

import (
	"strings"

	"github.com/whisperwall/whisperwall-backend/internal/config"
	"github.com/whisperwall/whisperwall-backend/internal/session"

	"github.com/gofiber/fiber/v2"
)

// Decision is the route gate's verdict for one request.
type Decision int

const (
	Allow Decision = iota
	RedirectToSignIn
	RedirectToDashboard
)

// publicPrefixes lists the page routes reachable without a session. The root
// path is public by exact match only.
var publicPrefixes = []string{"/sign-in", "/sign-up", "/verify-email", "/reset-password"}

// Decide classifies a page request purely from session validity and path.
// An authenticated caller has no business on auth pages and is sent to the
// dashboard; an unauthenticated caller is sent to sign-in for everything
// that is not public.
func Decide(authenticated bool, path string) Decision {
	public := path == "/"
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			public = true
			break
		}
	}

	switch {
	case authenticated && public:
		return RedirectToDashboard
	case !authenticated && !public:
		return RedirectToSignIn
	default:
		return Allow
	}
}

// RouteGate guards page routes before any handler runs. It verifies the
// session token by signature alone and never touches the store, so it stays
// viable in constrained execution environments. API routes carry their own
// JWT middleware and are skipped here.
func RouteGate(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if strings.HasPrefix(path, "/api") {
			return c.Next()
		}

		authenticated := false
		if raw := sessionToken(c); raw != "" {
			if _, err := session.Verify(raw, cfg.JWTSecret); err == nil {
				authenticated = true
			}
		}

		switch Decide(authenticated, path) {
		case RedirectToDashboard:
			return c.Redirect("/dashboard", fiber.StatusFound)
		case RedirectToSignIn:
			return c.Redirect("/sign-in", fiber.StatusFound)
		default:
			return c.Next()
		}
	}
}

func sessionToken(c *fiber.Ctx) string {
	if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.Cookies(SessionCookie)
}

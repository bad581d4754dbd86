package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const localsUID = "uid"

// AuthMiddleware requires a bearer token and stores the verified uid in Locals.
func AuthMiddleware(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Verifier == nil {
			return errUnauthorized(c, "authentication not configured")
		}

		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return errUnauthorized(c, "missing bearer token")
		}

		uid, err := deps.Verifier.VerifyToken(c.UserContext(), token)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Debug("token rejected", "error", err)
			return errUnauthorized(c, "invalid token")
		}

		// Header values alias the request buffer, which fasthttp reuses.
		c.Locals(localsUID, utils.CopyString(uid))
		return c.Next()
	}
}

func userID(c *fiber.Ctx) string {
	uid, _ := c.Locals(localsUID).(string)
	return uid
}

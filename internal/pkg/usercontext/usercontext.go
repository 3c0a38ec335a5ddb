package usercontext

import "github.com/gofiber/fiber/v2"

// UserContext represents the authenticated caller of a request
type UserContext struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	IsLoggedIn bool   `json:"is_logged_in"`
}

// Set stores the user context on the request.
func Set(c *fiber.Ctx, userCtx UserContext) {
	c.Locals(KeyUserContext, userCtx)
	c.Locals(KeyUserID, userCtx.UserID)
}

// GetUserContext retrieves the user context from fiber context
// Returns an anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(KeyUserContext).(UserContext); ok {
		return ctx
	}
	return UserContext{IsLoggedIn: false}
}

// IsLoggedIn checks if the current user is authenticated
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// GetUserID returns the current user's ID, or "" if not authenticated
func GetUserID(c *fiber.Ctx) string {
	return GetUserContext(c).UserID
}

package usercontext

import "github.com/gofiber/fiber/v2"

// UserContext carries the resolved request identity, including the plan
// tier derived from the subscription mirror.
type UserContext struct {
	UserID     uint   `json:"user_id"`
	Username   string `json:"username"`
	IsLoggedIn bool   `json:"is_logged_in"`
	IsAdmin    bool   `json:"is_admin"`
	Plan       string `json:"plan"`
}

// GetUserContext reads the context placed in Locals by the user-context
// middleware. Requests outside that chain resolve to an anonymous context.
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx := c.Locals("USER_CONTEXT"); ctx != nil {
		return ctx.(UserContext)
	}
	return UserContext{}
}

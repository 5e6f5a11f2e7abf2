package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/artvaultapp/ArtVault/app/models"
	"github.com/artvaultapp/ArtVault/internal/pkg/database"
	"github.com/artvaultapp/ArtVault/internal/pkg/session"
	"github.com/artvaultapp/ArtVault/internal/pkg/usercontext"
)

const sessionPlanKey = "user_plan"

var planMetadataKey string

// InitializeUserContext sets the product metadata key that maps a mirrored
// subscription to a plan tier. Called once at startup.
func InitializeUserContext(planKey string) {
	planMetadataKey = planKey
}

// UserContextMiddleware resolves the complete user context for every
// request. The user's plan is cached in the session; when the billing core
// has flagged the user for refresh (webhook changed their subscription),
// the plan is re-read from the local mirror.
func UserContextMiddleware(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		c.Locals("USER_CONTEXT", usercontext.UserContext{})
		c.Locals(usercontext.KeyFromProtected, false)
		c.Locals(usercontext.KeyIsAdmin, false)
		return c.Next()
	}

	userID := sess.Get(usercontext.KeyUserID)
	if userID == nil {
		c.Locals("USER_CONTEXT", usercontext.UserContext{})
		c.Locals(usercontext.KeyFromProtected, false)
		c.Locals(usercontext.KeyIsAdmin, false)
		return c.Next()
	}
	uid := userID.(uint)

	username := session.GetSessionValue(c, usercontext.KeyUsername)
	isAdmin := sess.Get(usercontext.KeyIsAdmin)

	plan := session.GetSessionValue(c, sessionPlanKey)
	if plan == "" || session.ConsumeRefreshFlag(uid) {
		plan = resolvePlan(uid)
		_ = session.SetSessionValue(c, sessionPlanKey, plan)
	}

	userCtx := usercontext.UserContext{
		UserID:     uid,
		Username:   username,
		IsLoggedIn: true,
		IsAdmin:    isAdmin != nil && isAdmin.(bool),
		Plan:       plan,
	}
	c.Locals("USER_CONTEXT", userCtx)

	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUsername, username)
	c.Locals(usercontext.KeyUserID, uid)
	c.Locals(usercontext.KeyIsAdmin, userCtx.IsAdmin)

	return c.Next()
}

// resolvePlan maps the user's mirrored subscription to a plan tier via the
// product's plan metadata. No active or trialing subscription means free.
func resolvePlan(userID uint) string {
	db := database.GetDB()
	if db == nil {
		return "free"
	}

	var sub models.CustomerSubscription
	err := db.Where("user_id = ? AND status IN ?", userID,
		[]string{models.SubscriptionStatusActive, models.SubscriptionStatusTrialing}).
		First(&sub).Error
	if err != nil {
		return "free"
	}

	var product models.Product
	if err := db.Where("id = ?", sub.ProductID).First(&product).Error; err != nil {
		return "free"
	}

	if tier, ok := product.Metadata[planMetadataKey]; ok && tier != "" {
		return tier
	}
	return "free"
}

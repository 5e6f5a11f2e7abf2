package session

import (
	"fmt"
	"time"

	"github.com/artvaultapp/ArtVault/internal/pkg/cache"
)

// Billing state (customer identity, plan, entitlements) is cached in the web
// session. When the billing core changes that state outside of a request
// (webhook processing), it sets a refresh flag that the user-context
// middleware consumes on the user's next request.

const userRefreshKeyFormat = "user:%d:session_refresh"
const userRefreshTTL = 24 * time.Hour

// InvalidateUser marks the user's cached session state as stale.
// Fire-and-forget: callers ignore the error beyond logging.
func InvalidateUser(userID uint) error {
	return cache.Set(fmt.Sprintf(userRefreshKeyFormat, userID), "1", userRefreshTTL)
}

// ConsumeRefreshFlag reports whether a refresh was requested for the user
// and clears the flag.
func ConsumeRefreshFlag(userID uint) bool {
	key := fmt.Sprintf(userRefreshKeyFormat, userID)
	exists, err := cache.Exists(key)
	if err != nil || !exists {
		return false
	}
	_ = cache.Delete(key)
	return true
}

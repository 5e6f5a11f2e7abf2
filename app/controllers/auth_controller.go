package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/artvaultapp/ArtVault/app/models"
	"github.com/artvaultapp/ArtVault/app/repository"
	"github.com/artvaultapp/ArtVault/internal/pkg/database"
	"github.com/artvaultapp/ArtVault/internal/pkg/session"
	"github.com/artvaultapp/ArtVault/internal/pkg/usercontext"
)

// HandleAuthLogin authenticates a user and establishes the web session the
// payment API routes rely on.
func HandleAuthLogin(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type": "error",
	}

	repo := repository.GetGlobalFactory().GetUserRepository()

	// notice: in production you should not inform the user
	// with detailed messages about login failures
	user, err := repo.GetByEmail(c.FormValue("email"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fm["message"] = "There is a problem with the login process"
			return flash.WithError(c, fm).Redirect("/login")
		}
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)
		return flash.WithError(c, fm).Redirect("/login")
	}

	if !user.CheckPassword(c.FormValue("password")) {
		fm["message"] = "There is a problem with the login process"
		return flash.WithError(c, fm).Redirect("/login")
	}

	if !user.IsActive() {
		fm["message"] = "This account is not active"
		return flash.WithError(c, fm).Redirect("/login")
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)
		return flash.WithError(c, fm).Redirect("/login")
	}

	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUsername, user.Name)
	sess.Set(usercontext.KeyIsAdmin, user.Role == models.ROLE_ADMIN)

	if err = sess.Save(); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)
		return flash.WithError(c, fm).Redirect("/login")
	}

	database.GetDB().Model(user).Update("last_login_at", time.Now())

	fm = fiber.Map{
		"type":    "success",
		"message": "Welcome back!",
	}
	return flash.WithSuccess(c, fm).Redirect("/")
}

// HandleAuthLogout destroys the web session.
func HandleAuthLogout(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type": "error",
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm["message"] = "logged out (no sess)"
		return flash.WithError(c, fm).Redirect("/login")
	}

	if err = sess.Destroy(); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)
		return flash.WithError(c, fm).Redirect("/login")
	}

	c.Locals(usercontext.KeyFromProtected, false)

	fm = fiber.Map{
		"type":    "success",
		"message": "Bye bye!",
	}
	return flash.WithSuccess(c, fm).Redirect("/login")
}

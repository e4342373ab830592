package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/cragbase/dto"
	"github.com/princinho/cragbase/services"
	"github.com/princinho/cragbase/utils"
)

// ====== Register ======
// POST /auth/register  {username, email, password}
func Register(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RegisterDTO
		if err := bind(c, &body); err != nil {
			respondError(c, err)
			return
		}

		user, err := auth.Register(c.Request.Context(), body.Username, body.Email, body.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully.", "userId": user.ID.Hex()})
	}
}

// ====== Login ======
// POST /auth/login  {identifier, password}
// Sets the token and refreshToken cookies.
func Login(auth *services.AuthService, cookies utils.CookieSettings) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := bind(c, &body); err != nil {
			respondError(c, err)
			return
		}

		session, err := auth.Login(c.Request.Context(), body.Identifier, body.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		cookies.SetAuthCookies(c, session.AccessToken, session.RefreshToken)
		c.JSON(http.StatusOK, gin.H{
			"message":  "Login successful.",
			"userId":   session.UserID,
			"username": session.Username,
		})
	}
}

// ====== Refresh ======
// POST /auth/refresh  (refreshToken cookie)
func Refresh(auth *services.AuthService, cookies utils.CookieSettings) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := c.Cookie(utils.RefreshCookieName)

		session, err := auth.Refresh(c.Request.Context(), raw)
		if err != nil {
			respondError(c, err)
			return
		}
		cookies.SetAuthCookies(c, session.AccessToken, session.RefreshToken)
		c.JSON(http.StatusOK, gin.H{"message": "Tokens refreshed."})
	}
}

// ====== Logout ======
// POST /auth/logout
// Always clears both cookies, even when the stored token could not be deleted.
func Logout(auth *services.AuthService, cookies utils.CookieSettings) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := c.Cookie(utils.RefreshCookieName)

		if err := auth.Logout(c.Request.Context(), raw); err != nil {
			_ = c.Error(err)
		}
		cookies.ClearAuthCookies(c)
		c.JSON(http.StatusOK, gin.H{"message": "Logged out."})
	}
}

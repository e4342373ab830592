package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookieName  = "token"
	RefreshCookieName = "refreshToken"
)

type CookieSettings struct {
	Secure      bool
	Domain      string
	RefreshPath string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
}

func (s CookieSettings) sameSite() http.SameSite {
	if s.Secure {
		return http.SameSiteNoneMode // for cross-site
	}
	return http.SameSiteLaxMode
}

func (s CookieSettings) SetAuthCookies(c *gin.Context, access, refresh string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     AccessCookieName,
		Value:    access,
		Path:     "/",
		Domain:   s.Domain,
		MaxAge:   int(s.AccessTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: s.sameSite(),
	})
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    refresh,
		Path:     s.RefreshPath,
		Domain:   s.Domain,
		MaxAge:   int(s.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: s.sameSite(),
	})
}

func (s CookieSettings) ClearAuthCookies(c *gin.Context) {
	for name, path := range map[string]string{AccessCookieName: "/", RefreshCookieName: s.RefreshPath} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     path,
			Domain:   s.Domain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.Secure,
			SameSite: s.sameSite(),
		})
	}
}

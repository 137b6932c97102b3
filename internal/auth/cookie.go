package auth

import "net/http"

// CookieName is the cookie the signed credential travels in.
const CookieName = "token"

// SetTokenCookie writes the credential cookie on a response.
//
// HttpOnly keeps the token away from page scripts; SameSite=Strict keeps the
// browser from attaching it to cross-site requests. Secure stays false to
// match the deployed frontend's plain-HTTP local development setup.
func SetTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearTokenCookie tells the browser to drop the credential immediately.
// The token itself stays valid until expiry; without the cookie the browser
// can no longer send it.
func ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

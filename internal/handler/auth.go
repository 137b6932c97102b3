package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/xid"

	"github.com/sakif/dishdash-server/internal/apperror"
	"github.com/sakif/dishdash-server/internal/auth"
	"github.com/sakif/dishdash-server/internal/service"
)

// validate checks the credential request bodies. The verbatim collection
// endpoints never go through it.
var validate = validator.New(validator.WithRequiredStructEnabled())

// AuthHandler issues and clears the credential cookie. Three ways in: the
// frontend handoff (POST /token, identity already verified client-side),
// email/password (register + login), and the Google OAuth code flow.
type AuthHandler struct {
	tokens      *auth.TokenService
	accounts    *service.AccountService
	google      *auth.GoogleProvider // nil when OAuth is not configured
	frontendURL string
	logger      *slog.Logger
}

// NewAuthHandler creates an AuthHandler. google may be nil; the OAuth routes
// are only registered when it is set.
func NewAuthHandler(
	tokens *auth.TokenService,
	accounts *service.AccountService,
	google *auth.GoogleProvider,
	frontendURL string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		tokens:      tokens,
		accounts:    accounts,
		google:      google,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// tokenRequest is the identity payload of POST /token.
type tokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// registerRequest is the body of POST /register.
type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// loginRequest is the body of POST /login.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleToken serves POST /token: sign the asserted identity and set the
// cookie. The caller has already authenticated the user out of band; this
// endpoint only converts that identity into the signed cookie the guarded
// routes verify.
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.issueCookie(w, req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successBody)
}

// HandleLogout serves GET /logout: clear the cookie immediately.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w)
	writeJSON(w, http.StatusOK, successBody)
}

// HandleRegister serves POST /register: store a password-backed account and
// log it straight in.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
		writeError(w, err)
		return
	}
	if err := h.issueCookie(w, req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successBody)
}

// HandleLogin serves POST /login: verify the password and set the cookie.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.accounts.Login(r.Context(), req.Email, req.Password); err != nil {
		writeError(w, err)
		return
	}
	if err := h.issueCookie(w, req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successBody)
}

// HandleMe serves GET /me behind the auth guard: the verified identity from
// the cookie, for the frontend's session check on load.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("unauthorized access"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": email})
}

// HandleGoogleLogin serves GET /auth/google/login: stash a random state in a
// short-lived cookie and redirect to Google's authorization page.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the OAuth flow: check the state, exchange
// the code for a profile, upsert the account, set the cookie, and send the
// browser back to the frontend.
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch")
		writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, h.frontendURL+"?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	user, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	if err := h.accounts.OAuthLogin(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}
	if err := h.issueCookie(w, user.Email); err != nil {
		writeError(w, err)
		return
	}

	http.Redirect(w, r, h.frontendURL, http.StatusSeeOther)
}

// issueCookie signs a token for email and sets it on the response.
func (h *AuthHandler) issueCookie(w http.ResponseWriter, email string) error {
	token, err := h.tokens.Generate(email)
	if err != nil {
		h.logger.Error("token generation failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return err
	}
	auth.SetTokenCookie(w, token)
	return nil
}

// decodeValid decodes a JSON body into dst and runs its validate tags,
// reporting the first failing field as a validation error.
func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON body")
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperror.ValidationFailed(verrs[0].Field(), "invalid value for "+verrs[0].Field())
		}
		return apperror.ValidationFailed("body", "invalid request body")
	}
	return nil
}

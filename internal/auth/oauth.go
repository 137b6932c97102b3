package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// userinfoURL is Google's OpenID userinfo endpoint.
const userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleUser is the portion of the userinfo response this service keeps.
type GoogleUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleProvider wraps golang.org/x/oauth2 for the Google Authorization Code
// flow. The server-side exchange keeps the access token out of the browser;
// the browser only ever sees the resulting identity cookie.
type GoogleProvider struct {
	config *oauth2.Config
}

// NewGoogleProvider creates a GoogleProvider with the given credentials.
// callbackURL must exactly match an authorized redirect URI of the OAuth
// client in the Google console.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		},
	}
}

// AuthURL returns the Google authorization URL for the given CSRF state.
// The caller stores the state in a short-lived cookie and checks it again on
// callback.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for the user's Google profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	client := p.config.Client(ctx, token)
	resp, err := client.Get(userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: fetching Google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Google userinfo returned status %d", resp.StatusCode)
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("auth: decoding Google userinfo: %w", err)
	}
	if user.Email == "" {
		return nil, fmt.Errorf("auth: Google profile has no email")
	}
	return &user, nil
}

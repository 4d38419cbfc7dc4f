// Package identity resolves federated sign-ins into an entity.ExternalIdentity.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/oksasatya/storyverse-api/internal/domain/entity"
)

const (
	ProviderGoogle     = "google"
	defaultUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// GoogleResolver runs the authorization-code exchange and reads the userinfo endpoint.
type GoogleResolver struct {
	oauth       *oauth2.Config
	userinfoURL string
}

func NewGoogleResolver(clientID, clientSecret, redirectURL string) *GoogleResolver {
	return &GoogleResolver{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userinfoURL: defaultUserinfoURL,
	}
}

// WithEndpoints points the resolver at other token and userinfo URLs.
func (g *GoogleResolver) WithEndpoints(authURL, tokenURL, userinfoURL string) *GoogleResolver {
	g.oauth.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
	g.userinfoURL = userinfoURL
	return g
}

func (g *GoogleResolver) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *GoogleResolver) Resolve(ctx context.Context, code string) (entity.ExternalIdentity, error) {
	if strings.TrimSpace(code) == "" {
		return entity.ExternalIdentity{}, errors.New("missing authorization code")
	}
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return entity.ExternalIdentity{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userinfoURL, nil)
	if err != nil {
		return entity.ExternalIdentity{}, err
	}
	resp, err := g.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return entity.ExternalIdentity{}, fmt.Errorf("failed to get user info: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return entity.ExternalIdentity{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return entity.ExternalIdentity{}, fmt.Errorf("google API error: %s", resp.Status)
	}

	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return entity.ExternalIdentity{}, fmt.Errorf("failed to parse user info: %w", err)
	}
	if info.Email == "" {
		return entity.ExternalIdentity{}, errors.New("google account has no email")
	}
	return entity.ExternalIdentity{
		Provider:    ProviderGoogle,
		ExternalID:  info.ID,
		Email:       info.Email,
		DisplayName: info.Name,
	}, nil
}

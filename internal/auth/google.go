package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// FederatedIdentity is the profile an external identity provider vouches for.
type FederatedIdentity struct {
	Email   string
	Name    string
	Picture string
}

// FederatedProvider is an external identity provider using the OAuth2
// authorization code flow.
type FederatedProvider interface {
	AuthCodeURL(state string) string
	Identify(ctx context.Context, code string) (FederatedIdentity, error)
}

// GoogleProvider signs users in with their Google account.
type GoogleProvider struct {
	config *oauth2.Config
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{config: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{goauth2.UserinfoEmailScope, goauth2.UserinfoProfileScope},
	}}
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Identify exchanges code for a token and fetches the user's profile.
func (p *GoogleProvider) Identify(ctx context.Context, code string) (FederatedIdentity, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return FederatedIdentity{}, err
	}
	service, err := goauth2.NewService(ctx, option.WithTokenSource(p.config.TokenSource(ctx, tok)))
	if err != nil {
		return FederatedIdentity{}, err
	}
	info, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return FederatedIdentity{}, err
	}
	if info.Email == "" || (info.VerifiedEmail != nil && !*info.VerifiedEmail) {
		return FederatedIdentity{}, errors.New("google account has no verified email")
	}
	return FederatedIdentity{
		Email:   strings.ToLower(info.Email),
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}

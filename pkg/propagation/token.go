package propagation

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/clientcredentials"
)

// TokenSource supplies the bearer token adapters use for service-to-service
// authentication against the downstream context services.
type TokenSource interface {
	ServiceAccessToken(ctx context.Context) (string, error)
}

// OAuthTokenSource obtains service tokens via the OAuth2 client-credentials
// grant. The underlying source caches tokens and refreshes them on expiry.
type OAuthTokenSource struct {
	config *clientcredentials.Config
}

// NewOAuthTokenSource creates a client-credentials token source.
func NewOAuthTokenSource(tokenURL, clientID, clientSecret string, scopes ...string) *OAuthTokenSource {
	return &OAuthTokenSource{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
		},
	}
}

// ServiceAccessToken returns a currently valid access token.
func (s *OAuthTokenSource) ServiceAccessToken(ctx context.Context) (string, error) {
	token, err := s.config.TokenSource(ctx).Token()
	if err != nil {
		return "", fmt.Errorf("client credentials grant failed: %w", err)
	}
	return token.AccessToken, nil
}

// StaticTokenSource returns a fixed token. Intended for local development and
// tests.
type StaticTokenSource string

// ServiceAccessToken returns the fixed token.
func (s StaticTokenSource) ServiceAccessToken(context.Context) (string, error) {
	return string(s), nil
}

package photos

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// GoogleTokenURL is the default refresh endpoint for Google accounts
const GoogleTokenURL = "https://oauth2.googleapis.com/token"

// exchangeRefreshToken performs a refresh_token grant against creds.TokenEndpoint
// and returns the new access token. Client id and secret travel in the form body.
func exchangeRefreshToken(ctx context.Context, httpClient *http.Client, creds Credentials) (string, error) {
	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  creds.TokenEndpoint,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken}).Token()
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// Package oauth holds the social login providers. Each provider wraps an
// oauth2 config and resolves the identity claims the service needs to
// provision a user: a verified email, a display name and an avatar.
package oauth

import (
	"context"

	"golang.org/x/oauth2"
)

type Provider interface {
	Name() string
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
	Claims(ctx context.Context, token *oauth2.Token) (Claims, error)
}

type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

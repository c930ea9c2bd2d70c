package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"golang.org/x/sync/errgroup"
)

const githubUserAgent = "Pulso Server"

type GitHubProvider struct {
	*oauth2.Config
}

func NewGitHubProvider(clientID, clientSecret, redirectURL string) *GitHubProvider {
	return &GitHubProvider{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoints.GitHub,
			Scopes:       []string{"read:user", "user:email"},
		},
	}
}

func (p *GitHubProvider) Name() string {
	return "github"
}

// Claims resolves the primary verified email and the public profile.
// GitHub exposes them on separate endpoints, so both are fetched at once.
func (p *GitHubProvider) Claims(ctx context.Context, token *oauth2.Token) (Claims, error) {
	var out Claims

	client := p.Config.Client(ctx, token)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(ctx, client, "https://api.github.com/user/emails", &emails); err != nil {
			return err
		}

		for _, email := range emails {
			if email.Primary {
				out.Email = email.Email
				out.EmailVerified = email.Verified
				return nil
			}
		}

		return errors.New("no primary email found")
	})
	g.Go(func() error {
		var user struct {
			Name      string `json:"name"`
			Login     string `json:"login"`
			AvatarURL string `json:"avatar_url"`
		}
		if err := getJSON(ctx, client, "https://api.github.com/user", &user); err != nil {
			return err
		}

		out.Name = user.Name
		if out.Name == "" {
			out.Name = user.Login
		}
		out.Picture = user.AvatarURL
		return nil
	})

	if err := g.Wait(); err != nil {
		return out, err
	}

	return out, nil
}

func getJSON(ctx context.Context, client *http.Client, uri string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return fmt.Errorf("create github request: %w", err)
	}

	req.Header.Set("User-Agent", githubUserAgent)
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("do github request: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github request %s failed: %d", uri, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode github response: %w", err)
	}

	return nil
}

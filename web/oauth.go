package web

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	samesite "github.com/hybridtheory/samesite-cookie-support"

	"github.com/pulsoapp/pulso/oauth"
)

const oauthTimeout = time.Minute * 2

const (
	oauthStateCookieName    = "oauth_state"
	oauthRedirectCookieName = "oauth_redirect_uri"
)

func (h *handler) oauthRedirect(provider oauth.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirectURI, err := h.parseRedirectURI(r.URL.Query().Get("redirect_uri"))
		if err != nil {
			h.respondErr(w, err)
			return
		}

		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			h.respondErr(w, fmt.Errorf("could not generate oauth state: %w", err))
			return
		}

		state := base64.RawURLEncoding.EncodeToString(b)
		stateValue, err := h.cookieCodec.Encode(oauthStateCookieName, state)
		if err != nil {
			h.respondErr(w, fmt.Errorf("could not cookie encode oauth state: %w", err))
			return
		}

		h.setOauthCookie(w, r, oauthStateCookieName, stateValue)
		h.setOauthCookie(w, r, oauthRedirectCookieName, redirectURI.String())

		http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
	}
}

func (h *handler) oauthCallback(provider oauth.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirectCookie, err := r.Cookie(oauthRedirectCookieName)
		if err != nil {
			h.respondErr(w, errOauthTimeout)
			return
		}

		redirectURI, err := h.parseRedirectURI(redirectCookie.Value)
		if err != nil {
			h.respondErr(w, err)
			return
		}

		stateCookie, err := r.Cookie(oauthStateCookieName)
		if err != nil {
			h.redirectErr(w, r, redirectURI, errOauthTimeout)
			return
		}

		var state string
		if err := h.cookieCodec.Decode(oauthStateCookieName, stateCookie.Value, &state); err != nil {
			h.redirectErr(w, r, redirectURI, errOauthTimeout)
			return
		}

		q := r.URL.Query()
		if q.Get("state") != state {
			h.redirectErr(w, r, redirectURI, errOauthTimeout)
			return
		}

		ctx := r.Context()
		token, err := provider.Exchange(ctx, q.Get("code"))
		if err != nil {
			h.redirectErr(w, r, redirectURI, errOauthTimeout)
			return
		}

		claims, err := provider.Claims(ctx, token)
		if err != nil {
			_ = h.logger.Log("error", fmt.Errorf("could not fetch %s claims: %w", provider.Name(), err))
			h.redirectErr(w, r, redirectURI, errOauthTimeout)
			return
		}

		if !claims.EmailVerified {
			h.redirectErr(w, r, redirectURI, errEmailNotVerified)
			return
		}

		u, err := h.svc.EnsureUser(ctx, claims.Email, claims.Name, emptyStrPtr(claims.Picture))
		if err != nil {
			_ = h.logger.Log("error", fmt.Errorf("could not ensure %s user: %w", provider.Name(), err))
			h.redirectErr(w, r, redirectURI, err)
			return
		}

		if err := h.setSessionUser(w, r, u.ID); err != nil {
			h.respondErr(w, err)
			return
		}

		values := url.Values{
			"user.id":           []string{u.ID},
			"user.display_name": []string{u.DisplayName},
		}
		if u.AvatarURL != nil {
			values.Set("user.avatar_url", *u.AvatarURL)
		}
		redirectWithHashFragment(w, r, redirectURI, values, http.StatusSeeOther)
	}
}

func (h *handler) redirectErr(w http.ResponseWriter, r *http.Request, uri *url.URL, err error) {
	msg := err.Error()
	if err2code(err) == http.StatusInternalServerError {
		msg = "internal server error"
	}
	redirectWithHashFragment(w, r, uri, url.Values{
		"error": []string{msg},
	}, http.StatusSeeOther)
}

// parseRedirectURI accepts same-origin redirect targets only,
// falling back to the origin itself.
func (h *handler) parseRedirectURI(s string) (*url.URL, error) {
	if s == "" {
		clone := *h.origin
		return &clone, nil
	}

	uri, err := url.Parse(s)
	if err != nil || !uri.IsAbs() || uri.Host != h.origin.Host {
		return nil, errBadRequest
	}

	return uri, nil
}

func (h *handler) setOauthCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(oauthTimeout),
		Secure:   h.origin.Scheme == "https",
		HttpOnly: true,
	}
	if samesite.IsSameSiteCookieSupported(r.UserAgent()) {
		cookie.SameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, cookie)
}

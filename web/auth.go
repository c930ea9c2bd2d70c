package web

import (
	"encoding/json"
	"net/http"
	"time"

	samesite "github.com/hybridtheory/samesite-cookie-support"

	"github.com/pulsoapp/pulso"
)

const (
	sessionCookieName = "session_user_id"
	sessionLifespan   = time.Hour * 24 * 30
)

func (h *handler) setSessionUser(w http.ResponseWriter, r *http.Request, userID string) error {
	value, err := h.cookieCodec.Encode(sessionCookieName, userID)
	if err != nil {
		return err
	}

	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(sessionLifespan),
		Secure:   h.origin.Scheme == "https",
		HttpOnly: true,
	}
	if samesite.IsSameSiteCookieSupported(r.UserAgent()) {
		cookie.SameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, cookie)
	return nil
}

func (h *handler) clearSessionUser(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   h.origin.Scheme == "https",
		HttpOnly: true,
	})
}

// withUser decodes the session cookie, if any, and puts the user in the
// request context. Requests without a valid session pass through anonymous.
func (h *handler) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		var userID string
		if err := h.cookieCodec.Decode(sessionCookieName, c.Value, &userID); err != nil {
			h.clearSessionUser(w)
			next.ServeHTTP(w, r)
			return
		}

		ctx := pulso.ContextWithUser(r.Context(), pulso.User{ID: userID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type devLoginInput struct {
	Email string
}

// devLogin provisions and logs a user in by plain email.
// Available on local setups only.
func (h *handler) devLogin(w http.ResponseWriter, r *http.Request) {
	if !h.enableDevLogin {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var in devLoginInput
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, errBadRequest.Error(), http.StatusBadRequest)
		return
	}

	u, err := h.svc.EnsureUser(r.Context(), in.Email, "", nil)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if err := h.setSessionUser(w, r, u.ID); err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, u, http.StatusOK)
}

func (h *handler) authUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.AuthUser(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, u, http.StatusOK)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionUser(w)
	w.WriteHeader(http.StatusNoContent)
}

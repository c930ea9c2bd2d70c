// Package web exposes the service over HTTP: a JSON API under /api plus
// the stored media files. Realtime endpoints speak server-sent events.
package web

import (
	"net/http"
	"net/url"

	"github.com/go-kit/log"
	"github.com/gorilla/securecookie"
	"github.com/matryer/way"

	"github.com/pulsoapp/pulso"
	"github.com/pulsoapp/pulso/oauth"
	"github.com/pulsoapp/pulso/storage"
)

type handler struct {
	svc            *pulso.Service
	origin         *url.URL
	logger         log.Logger
	store          storage.Store
	cookieCodec    *securecookie.SecureCookie
	enableDevLogin bool
}

// New wires the service into an http.Handler with predefined routing.
func New(svc *pulso.Service, providers []oauth.Provider, origin *url.URL, logger log.Logger, store storage.Store, cdc *securecookie.SecureCookie, promHandler http.Handler, enableDevLogin bool) http.Handler {
	h := &handler{
		svc:            svc,
		origin:         origin,
		logger:         logger,
		store:          store,
		cookieCodec:    cdc,
		enableDevLogin: enableDevLogin,
	}

	api := way.NewRouter()

	for _, provider := range providers {
		api.HandleFunc("GET", "/api/"+provider.Name()+"_auth", h.oauthRedirect(provider))
		api.HandleFunc("GET", "/api/"+provider.Name()+"_auth/callback", h.oauthCallback(provider))
	}

	api.HandleFunc("POST", "/api/dev_login", h.devLogin)
	api.HandleFunc("GET", "/api/auth_user", h.authUser)
	api.HandleFunc("POST", "/api/logout", h.logout)

	api.HandleFunc("POST", "/api/posts", h.createPost)
	api.HandleFunc("GET", "/api/posts", h.posts)
	api.HandleFunc("GET", "/api/posts/:post_id", h.post)

	api.HandleFunc("PUT", "/api/posts/:post_id/reaction", h.react)
	api.HandleFunc("GET", "/api/posts/:post_id/reaction", h.reaction)
	api.HandleFunc("DELETE", "/api/posts/:post_id/reaction", h.deleteReaction)
	api.HandleFunc("GET", "/api/reactions", h.reactions)

	api.HandleFunc("GET", "/api/notifications", h.notifications)
	api.HandleFunc("GET", "/api/has_unread_notifications", h.hasUnreadNotifications)
	api.HandleFunc("POST", "/api/notifications/:notification_id/mark_as_read", h.markNotificationAsRead)
	api.HandleFunc("POST", "/api/mark_notifications_as_read", h.markNotificationsAsRead)

	api.HandleFunc("POST", "/api/web_push_subscriptions", h.addPushSubscription)

	api.Handle("GET", "/api/prom", promHandler)

	r := way.NewRouter()
	r.Handle("*", "/api/...", h.withUser(api))
	r.HandleFunc("GET", "/media/:name", h.media)

	return r
}

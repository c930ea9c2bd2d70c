package web

import (
	"mime"
	"net/http"
	"time"

	"github.com/hako/durafmt"
	"github.com/matryer/way"

	"github.com/pulsoapp/pulso"
)

type notificationRespBody struct {
	pulso.Notification
	TimeAgo string `json:"timeAgo"`
}

func notificationResp(n pulso.Notification) notificationRespBody {
	since := time.Since(n.CreatedAt)
	if since < time.Minute {
		since = time.Minute
	}
	return notificationRespBody{
		Notification: n,
		TimeAgo:      durafmt.Parse(since).LimitFirstN(1).String() + " ago",
	}
}

func (h *handler) notifications(w http.ResponseWriter, r *http.Request) {
	if a, _, err := mime.ParseMediaType(r.Header.Get("Accept")); err == nil && a == "text/event-stream" {
		h.notificationStream(w, r)
		return
	}

	nn, err := h.svc.Notifications(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	out := make([]notificationRespBody, 0, len(nn))
	for _, n := range nn {
		out = append(out, notificationResp(n))
	}

	h.respond(w, out, http.StatusOK)
}

func (h *handler) notificationStream(w http.ResponseWriter, r *http.Request) {
	f, ok := w.(http.Flusher)
	if !ok {
		h.respondErr(w, errStreamingUnsupported)
		return
	}

	ctx := r.Context()
	nn, err := h.svc.NotificationStream(ctx)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	header := w.Header()
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("Content-Type", "text/event-stream; charset=utf-8")

	for {
		select {
		case n := <-nn:
			h.writeSSE(w, notificationResp(n))
			f.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func (h *handler) hasUnreadNotifications(w http.ResponseWriter, r *http.Request) {
	unread, err := h.svc.HasUnreadNotifications(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, unread, http.StatusOK)
}

func (h *handler) markNotificationAsRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.svc.MarkNotificationAsRead(ctx, way.Param(ctx, "notification_id"))
	if err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) markNotificationsAsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.MarkNotificationsAsRead(r.Context()); err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

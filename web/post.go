package web

import (
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/matryer/way"

	"github.com/pulsoapp/pulso"
)

const maxPostImageBytes = 5 << 20 // 5MiB

func (h *handler) createPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxPostImageBytes); err != nil {
		http.Error(w, errBadRequest.Error(), http.StatusBadRequest)
		return
	}

	in := pulso.CreatePostInput{
		Description: r.FormValue("description"),
	}

	if f, _, err := r.FormFile("image"); err == nil {
		defer f.Close()

		in.Image, err = io.ReadAll(io.LimitReader(f, maxPostImageBytes))
		if err != nil {
			h.respondErr(w, fmt.Errorf("could not read post image: %w", err))
			return
		}
	}

	p, err := h.svc.CreatePost(r.Context(), in)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, p, http.StatusCreated)
}

func (h *handler) posts(w http.ResponseWriter, r *http.Request) {
	if a, _, err := mime.ParseMediaType(r.Header.Get("Accept")); err == nil && a == "text/event-stream" {
		h.postStream(w, r)
		return
	}

	pp, err := h.svc.Posts(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if pp == nil {
		pp = []pulso.Post{} // non null array
	}

	h.respond(w, pp, http.StatusOK)
}

func (h *handler) post(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.svc.Post(ctx, way.Param(ctx, "post_id"))
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, p, http.StatusOK)
}

// postStream pushes authoritative post states over server-sent events so
// clients can reconcile their optimistic counters.
func (h *handler) postStream(w http.ResponseWriter, r *http.Request) {
	f, ok := w.(http.Flusher)
	if !ok {
		h.respondErr(w, errStreamingUnsupported)
		return
	}

	ctx := r.Context()
	pp, err := h.svc.PostStream(ctx)
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
		case p := <-pp:
			h.writeSSE(w, p)
			f.Flush()
		case <-ctx.Done():
			return
		}
	}
}

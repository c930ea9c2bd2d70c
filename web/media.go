package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/matryer/way"
)

func (h *handler) media(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := way.Param(ctx, "name")

	f, err := h.store.Open(ctx, name)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	defer f.Close()

	header := w.Header()
	header.Set("Content-Type", f.ContentType)
	header.Set("Content-Length", strconv.FormatInt(f.Size, 10))
	header.Set("Etag", f.ETag)
	header.Set("Last-Modified", f.LastModified.Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, err = io.Copy(w, f)
	if err != nil && !errors.Is(err, context.Canceled) {
		_ = h.logger.Log("error", err)
	}
}

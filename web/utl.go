package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nicolasparada/go-errs"
	"github.com/nicolasparada/go-errs/httperrs"

	"github.com/pulsoapp/pulso/storage"
)

var (
	errBadRequest           = errors.New("bad request")
	errStreamingUnsupported = errors.New("streaming unsupported")
	errOauthTimeout         = errs.UnauthenticatedError("oauth timeout")
	errEmailNotVerified     = errs.UnauthenticatedError("email not verified")
)

func (h *handler) respond(w http.ResponseWriter, v interface{}, statusCode int) {
	b, err := json.Marshal(v)
	if err != nil {
		h.respondErr(w, fmt.Errorf("could not json marshal http response body: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_, err = w.Write(b)
	if err != nil && !errors.Is(err, context.Canceled) {
		_ = h.logger.Log("error", fmt.Errorf("could not write down http response: %w", err))
	}
}

func (h *handler) respondErr(w http.ResponseWriter, err error) {
	statusCode := err2code(err)
	if statusCode == http.StatusInternalServerError {
		_ = h.logger.Log("error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.Error(w, err.Error(), statusCode)
}

func err2code(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case err == errBadRequest:
		return http.StatusBadRequest
	case err == errStreamingUnsupported:
		return http.StatusExpectationFailed
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	}

	return httperrs.Code(err)
}

func (h *handler) writeSSE(w io.Writer, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		_ = h.logger.Log("error", fmt.Errorf("could not json marshal sse data: %w", err))
		fmt.Fprintf(w, "event: error\ndata: %v\n\n", err)
		return
	}

	fmt.Fprintf(w, "data: %s\n\n", b)
}

func redirectWithHashFragment(w http.ResponseWriter, r *http.Request, uri *url.URL, data url.Values, statusCode int) {
	// url.URL#RawFragment is a no-op, so encode as a query string
	// and swap the "?" for a "#".
	uri.RawQuery = data.Encode()
	location := strings.Replace(uri.String(), "?", "#", 1)
	http.Redirect(w, r, location, statusCode)
}

func emptyStrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

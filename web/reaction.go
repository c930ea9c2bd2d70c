package web

import (
	"encoding/json"
	"net/http"

	"github.com/matryer/way"

	"github.com/pulsoapp/pulso"
)

type reactInput struct {
	Kind pulso.ReactionKind
}

func (h *handler) react(w http.ResponseWriter, r *http.Request) {
	var in reactInput
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, errBadRequest.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if err := h.svc.React(ctx, way.Param(ctx, "post_id"), in.Kind); err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) reaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	re, err := h.svc.ReactionFor(ctx, way.Param(ctx, "post_id"))
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, re, http.StatusOK)
}

func (h *handler) deleteReaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.svc.DeleteReaction(ctx, way.Param(ctx, "post_id")); err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) reactions(w http.ResponseWriter, r *http.Request) {
	rr, err := h.svc.UserReactions(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if rr == nil {
		rr = []pulso.Reaction{} // non null array
	}

	h.respond(w, rr, http.StatusOK)
}

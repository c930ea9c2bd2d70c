package web

import (
	"encoding/json"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
)

func (h *handler) addPushSubscription(w http.ResponseWriter, r *http.Request) {
	var sub webpush.Subscription
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, errBadRequest.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.AddPushSubscription(r.Context(), sub); err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

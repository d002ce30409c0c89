package handlers

import (
	"net/http"

	"github.com/futbolero/checkout-service/internal/infrastructure/webhook"
	"github.com/futbolero/checkout-service/internal/interfaces/rest"
)

// Provider event payloads are small; anything past this is not a callback.
const maxWebhookBody = 1 << 20

// HandleWebhook is the raw-bytes route. The body is captured untouched
// before anything parses it, because the signature covers the exact bytes
// the provider sent.
func (h *Handlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	rawBody, err := rest.ReadRawBody(w, r, maxWebhookBody)
	if err != nil {
		h.logger.Warn("failed to collect webhook body", "error", err)
		rest.WriteJSON(w, http.StatusBadRequest, rest.ErrorResponse{Error: "invalid_body"})
		return
	}

	ack, err := h.webhookService.HandleEvent(r.Context(), rawBody, r.Header.Get(webhook.SignatureHeader))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, ack)
}

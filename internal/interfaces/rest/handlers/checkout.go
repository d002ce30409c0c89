package handlers

import (
	"net/http"

	"github.com/futbolero/checkout-service/internal/application"
	"github.com/futbolero/checkout-service/internal/application/services"
	"github.com/futbolero/checkout-service/internal/interfaces/rest"
)

type createSessionRequest struct {
	Total   *float64   `json:"total"`
	Contact contactDTO `json:"contact"`
	Items   []itemDTO  `json:"items"`
}

type createSessionResponse struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	OrderID string `json:"orderId"`
}

func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, application.NewValidationError("Invalid total"), h.logger)
		return
	}
	if req.Total == nil {
		rest.WriteError(w, application.NewValidationError("Invalid total"), h.logger)
		return
	}

	result, err := h.checkoutService.CreateSession(r.Context(), services.CreateSessionCommand{
		Total:      *req.Total,
		Contact:    req.Contact.toDomain(),
		Items:      itemsToDomain(req.Items),
		ReturnBase: r.Header.Get("Origin"),
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, createSessionResponse{
		ID:      result.SessionID,
		URL:     result.URL,
		OrderID: result.OrderID,
	})
}

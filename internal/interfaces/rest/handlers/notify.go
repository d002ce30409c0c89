package handlers

import (
	"net/http"

	"github.com/futbolero/checkout-service/internal/application"
	"github.com/futbolero/checkout-service/internal/application/services"
	"github.com/futbolero/checkout-service/internal/domain"
	"github.com/futbolero/checkout-service/internal/interfaces/rest"
)

type notifyRequest struct {
	Items        []itemDTO  `json:"items"`
	CheckoutInfo contactDTO `json:"checkoutInfo"`
	Total        float64    `json:"total"`
	Stage        string     `json:"stage"`
}

type notifyResponse struct {
	Success   bool   `json:"success"`
	EmailSent bool   `json:"emailSent"`
	OrderID   string `json:"orderId,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleNotify serves both notification triggers; the effective stage comes
// from the body, not the path.
func (h *Handlers) HandleNotify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, notifyResponse{
			Success: false, EmailSent: false, Error: "invalid_json",
		})
		return
	}

	var totalCents int64
	if req.Total != 0 {
		cents, err := domain.ToCents(req.Total)
		if err != nil {
			rest.WriteJSON(w, http.StatusBadRequest, notifyResponse{
				Success: false, EmailSent: false, Error: "Invalid total",
			})
			return
		}
		totalCents = cents
	}

	result, err := h.notifyService.Notify(r.Context(), services.NotifyCommand{
		Items:      itemsToDomain(req.Items),
		Contact:    req.CheckoutInfo.toDomain(),
		TotalCents: totalCents,
		Stage:      req.Stage,
	})
	if err != nil {
		status := http.StatusInternalServerError
		message := "Failed to send emails"
		if svcErr, ok := application.IsServiceError(err); ok && svcErr.Code == application.ErrCodeInvalidInput {
			status = svcErr.HTTPStatus
			message = svcErr.Message
		}
		rest.WriteJSON(w, status, notifyResponse{
			Success: false, EmailSent: false, Error: message,
		})
		return
	}

	rest.WriteJSON(w, http.StatusOK, notifyResponse{
		Success:   true,
		EmailSent: true,
		OrderID:   result.OrderID,
		Stage:     result.Stage,
	})
}

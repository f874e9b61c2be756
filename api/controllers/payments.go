package controllers

import (
	"net/http"

	"github.com/harvestlink/harvestlink-backend/api/responses"
	"github.com/harvestlink/harvestlink-backend/api/validators"
	"github.com/harvestlink/harvestlink-backend/internal/orders"
	"github.com/harvestlink/harvestlink-backend/pkg/enums"
	"github.com/harvestlink/harvestlink-backend/pkg/logger"
)

type capturePaymentRequest struct {
	OrderID    int64  `json:"orderId" validate:"required,gt=0"`
	Method     string `json:"method" validate:"required"`
	CardNumber string `json:"cardNumber"`
}

// PaymentCapture records a payment against the buyer's pending order and
// returns the invoice payload.
func PaymentCapture(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload capturePaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// ownership check before payment state changes
		if _, err := svc.GetOrder(r.Context(), payload.OrderID, buyerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.MarkPaid(r.Context(), orders.MarkPaidInput{
			OrderID:    payload.OrderID,
			Method:     enums.PaymentMethod(payload.Method),
			CardNumber: payload.CardNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, invoice)
	}
}

package controllers

import (
	"net/http"

	"github.com/harvestlink/harvestlink-backend/api/responses"
	"github.com/harvestlink/harvestlink-backend/api/validators"
	"github.com/harvestlink/harvestlink-backend/internal/orders"
	"github.com/harvestlink/harvestlink-backend/pkg/logger"
	"github.com/harvestlink/harvestlink-backend/pkg/types"
)

type checkoutRequest struct {
	Contact  types.ContactInfo  `json:"contact" validate:"required"`
	Shipping types.ShippingInfo `json:"shipping" validate:"required"`
}

// Checkout converts the buyer's active cart into an order.
func Checkout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Checkout(r.Context(), orders.CheckoutInput{
			BuyerID:  buyerID,
			Contact:  payload.Contact,
			Shipping: payload.Shipping,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

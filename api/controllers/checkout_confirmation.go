package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/trovemarket/trove-backend/api/responses"
	"github.com/trovemarket/trove-backend/api/validators"
	"github.com/trovemarket/trove-backend/internal/settlement"
	pkgerrors "github.com/trovemarket/trove-backend/pkg/errors"
	"github.com/trovemarket/trove-backend/pkg/logger"
)

type confirmCheckoutRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type confirmCheckoutResponse struct {
	OrderID uuid.UUID `json:"order_id"`
	Created bool      `json:"created"`
}

// ConfirmCheckout settles the order behind a completed checkout session on
// behalf of the buyer returning from the hosted payment page. The webhook
// races this call; whichever lands second observes the first's order.
func ConfirmCheckout(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		buyerID, err := actorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload confirmCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Settle(r.Context(), payload.SessionID, &buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, confirmCheckoutResponse{
			OrderID: result.OrderID,
			Created: result.Created,
		})
	}
}

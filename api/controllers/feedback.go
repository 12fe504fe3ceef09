package controllers

import (
	"net/http"

	"github.com/trovemarket/trove-backend/api/responses"
	"github.com/trovemarket/trove-backend/api/validators"
	"github.com/trovemarket/trove-backend/internal/fulfillment"
	"github.com/trovemarket/trove-backend/pkg/enums"
	pkgerrors "github.com/trovemarket/trove-backend/pkg/errors"
	"github.com/trovemarket/trove-backend/pkg/logger"
	"github.com/trovemarket/trove-backend/pkg/types"
)

type submitFeedbackRequest struct {
	Role    string              `json:"role" validate:"required,oneof=buyer seller"`
	Rating  int                 `json:"rating" validate:"required,min=1,max=5"`
	Comment *string             `json:"comment,omitempty"`
	Flags   types.FeedbackFlags `json:"flags"`
}

// SubmitFeedback records one side's post-delivery rating of the other.
func SubmitFeedback(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		actorID, err := actorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload submitFeedbackRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseRaterRole(payload.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rater role"))
			return
		}

		feedback, err := svc.SubmitFeedback(r.Context(), actorID, orderID, fulfillment.FeedbackInput{
			Role:    role,
			Rating:  payload.Rating,
			Comment: payload.Comment,
			Flags:   payload.Flags,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, feedback)
	}
}

package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/trovemarket/trove-backend/api/responses"
	"github.com/trovemarket/trove-backend/api/validators"
	"github.com/trovemarket/trove-backend/internal/cart"
	checkoutsvc "github.com/trovemarket/trove-backend/internal/checkout"
	pkgerrors "github.com/trovemarket/trove-backend/pkg/errors"
	"github.com/trovemarket/trove-backend/pkg/logger"
)

type checkoutLine struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Qty       int        `json:"qty" validate:"required,min=1,max=99"`
}

type checkoutRequest struct {
	Lines []checkoutLine `json:"lines" validate:"required,min=1,dive"`
}

func (req checkoutRequest) cartLines() []cart.Line {
	lines := make([]cart.Line, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, cart.Line{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Qty:       line.Qty,
		})
	}
	return lines
}

type quoteLineResponse struct {
	ProductID     uuid.UUID  `json:"product_id"`
	VariantID     *uuid.UUID `json:"variant_id,omitempty"`
	Title         string     `json:"title"`
	Qty           int        `json:"qty"`
	PriceCents    int64      `json:"price_cents"`
	SubtotalCents int64      `json:"subtotal_cents"`
}

type quoteResponse struct {
	SellerID                uuid.UUID           `json:"seller_id"`
	Currency                string              `json:"currency"`
	Lines                   []quoteLineResponse `json:"lines"`
	ItemTotalCents          int64               `json:"item_total_cents"`
	BuyerProtectionFeeCents int64               `json:"buyer_protection_fee_cents"`
	TotalCents              int64               `json:"total_cents"`
	PayoutReady             bool                `json:"payout_ready"`
}

func newQuoteResponse(intent *checkoutsvc.Intent) quoteResponse {
	if intent == nil {
		return quoteResponse{}
	}
	lines := make([]quoteLineResponse, 0, len(intent.Lines))
	for _, line := range intent.Lines {
		lines = append(lines, quoteLineResponse{
			ProductID:     line.Product.ID,
			VariantID:     line.VariantID,
			Title:         line.Product.Title,
			Qty:           line.Qty,
			PriceCents:    line.Product.PriceCents,
			SubtotalCents: line.SubtotalCents(),
		})
	}
	return quoteResponse{
		SellerID:                intent.SellerID,
		Currency:                string(intent.Currency),
		Lines:                   lines,
		ItemTotalCents:          intent.Breakdown.ItemTotalCents,
		BuyerProtectionFeeCents: intent.Breakdown.BuyerProtectionFeeCents,
		TotalCents:              intent.Breakdown.BuyerChargeTotalCents(),
		PayoutReady:             intent.PayoutReady,
	}
}

// CheckoutQuote prices the submitted cart without opening a payment session.
func CheckoutQuote(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := actorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		intent, err := svc.BuildIntent(r.Context(), buyerID, payload.cartLines())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newQuoteResponse(intent))
	}
}

// Checkout prices the submitted cart and opens a hosted payment session.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := actorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		hosted, err := svc.StartCheckout(r.Context(), buyerID, payload.cartLines())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, hosted)
	}
}

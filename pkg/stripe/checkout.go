package stripe

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v84"

	"github.com/trovemarket/trove-backend/pkg/types"
)

// Gateway payment statuses surfaced to the settlement layer. Anything else
// means the session has not settled yet.
const (
	PaymentStatusPaid              = "paid"
	PaymentStatusNoPaymentRequired = "no_payment_required"
	PaymentStatusUnpaid            = "unpaid"
)

// SessionLineItem is one displayed line on the hosted checkout page.
type SessionLineItem struct {
	Name            string
	UnitAmountCents int64
	Qty             int64
}

// SessionRequest describes the hosted checkout session to create. Metadata
// must carry everything settlement needs later; the live cart is not
// consulted again.
type SessionRequest struct {
	Currency            string
	SuccessURL          string
	CancelURL           string
	ClientReferenceID   string
	LineItems           []SessionLineItem
	Metadata            map[string]string
	PayoutAccountID     *string
	ApplicationFeeCents int64
}

// HostedSession is the created checkout session handle.
type HostedSession struct {
	SessionID string
	URL       string
}

// Confirmation is the narrow view of a completed checkout session. Raw
// provider objects never cross this boundary.
type Confirmation struct {
	PaymentStatus    string
	PaymentIntentID  string
	AmountTotalCents int64
	CustomerName     string
	CustomerAddress  *types.Address
	Metadata         map[string]string
}

// Settled reports whether the confirmation is in a paid state.
func (c *Confirmation) Settled() bool {
	if c == nil {
		return false
	}
	return c.PaymentStatus == PaymentStatusPaid || c.PaymentStatus == PaymentStatusNoPaymentRequired
}

// CreateCheckoutSession creates a hosted checkout session for the request.
func (c *Client) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*HostedSession, error) {
	if c == nil || c.api == nil {
		return nil, fmt.Errorf("stripe client not initialized")
	}
	if len(req.LineItems) == 0 {
		return nil, fmt.Errorf("at least one line item is required")
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.ClientReferenceID),
		Metadata:          req.Metadata,
	}

	for _, item := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionCreateLineItemParams{
			Quantity: stripe.Int64(item.Qty),
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(item.UnitAmountCents),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		})
	}

	// Route funds to the seller's connected account when it can take
	// charges; otherwise the platform account holds the funds and payout
	// is reconciled out of band.
	if req.PayoutAccountID != nil && *req.PayoutAccountID != "" {
		params.PaymentIntentData = &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(req.ApplicationFeeCents),
			TransferData: &stripe.CheckoutSessionCreatePaymentIntentDataTransferDataParams{
				Destination: stripe.String(*req.PayoutAccountID),
			},
		}
	}

	session, err := c.api.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &HostedSession{SessionID: session.ID, URL: session.URL}, nil
}

// RetrieveConfirmation loads the checkout session and reduces it to the
// narrow confirmation view settlement consumes.
func (c *Client) RetrieveConfirmation(ctx context.Context, sessionRef string) (*Confirmation, error) {
	if c == nil || c.api == nil {
		return nil, fmt.Errorf("stripe client not initialized")
	}
	if sessionRef == "" {
		return nil, fmt.Errorf("session reference is required")
	}

	params := &stripe.CheckoutSessionRetrieveParams{}
	params.AddExpand("payment_intent")

	session, err := c.api.V1CheckoutSessions.Retrieve(ctx, sessionRef, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}
	return ConfirmationFromSession(session), nil
}

// ConfirmationFromSession maps the provider session onto the boundary type.
func ConfirmationFromSession(session *stripe.CheckoutSession) *Confirmation {
	if session == nil {
		return nil
	}

	conf := &Confirmation{
		PaymentStatus:    string(session.PaymentStatus),
		AmountTotalCents: session.AmountTotal,
		Metadata:         session.Metadata,
	}
	if session.PaymentIntent != nil {
		conf.PaymentIntentID = session.PaymentIntent.ID
	}
	if details := session.CustomerDetails; details != nil {
		conf.CustomerName = details.Name
		if addr := details.Address; addr != nil {
			conf.CustomerAddress = &types.Address{
				Name:       details.Name,
				Line1:      addr.Line1,
				Line2:      addr.Line2,
				City:       addr.City,
				State:      addr.State,
				PostalCode: addr.PostalCode,
				Country:    addr.Country,
			}
		}
	}
	return conf
}

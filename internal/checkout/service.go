package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/trovemarket/trove-backend/internal/cart"
	"github.com/trovemarket/trove-backend/internal/catalog"
	"github.com/trovemarket/trove-backend/internal/fees"
	"github.com/trovemarket/trove-backend/pkg/config"
	"github.com/trovemarket/trove-backend/pkg/enums"
	pkgerrors "github.com/trovemarket/trove-backend/pkg/errors"
	"github.com/trovemarket/trove-backend/pkg/logger"
	stripepkg "github.com/trovemarket/trove-backend/pkg/stripe"
)

type gateway interface {
	CreateCheckoutSession(ctx context.Context, req stripepkg.SessionRequest) (*stripepkg.HostedSession, error)
}

// Intent is the priced, provider-agnostic checkout request for a single
// seller. The snapshot inside it is the sole input settlement will replay.
type Intent struct {
	BuyerID         uuid.UUID
	SellerID        uuid.UUID
	Currency        enums.Currency
	Lines           []cart.GroupLine
	Breakdown       fees.Breakdown
	PayoutAccountID *string
	PayoutReady     bool
	Snapshot        []SnapshotLine
}

// HostedCheckout is the outcome of starting a checkout: where to send the
// buyer, and the session handle settlement will later be keyed on.
type HostedCheckout struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// Service builds checkout intents and opens hosted payment sessions.
type Service interface {
	BuildIntent(ctx context.Context, buyerID uuid.UUID, lines []cart.Line) (*Intent, error)
	StartCheckout(ctx context.Context, buyerID uuid.UUID, lines []cart.Line) (*HostedCheckout, error)
}

type service struct {
	catalog catalog.Repository
	gateway gateway
	cfg     config.CheckoutConfig
	logg    *logger.Logger
}

// NewService builds a checkout service backed by the provided stack.
func NewService(catalogRepo catalog.Repository, gw gateway, cfg config.CheckoutConfig, logg *logger.Logger) (Service, error) {
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if gw == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		catalog: catalogRepo,
		gateway: gw,
		cfg:     cfg,
		logg:    logg,
	}, nil
}

// BuildIntent resolves, partitions, and prices the cart for one seller.
func (s *service) BuildIntent(ctx context.Context, buyerID uuid.UUID, lines []cart.Line) (*Intent, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	products, err := s.catalog.ResolveProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving cart products")
	}

	group, err := cart.Partition(lines, products, buyerID)
	if err != nil {
		return nil, err
	}

	currency, err := groupCurrency(group)
	if err != nil {
		return nil, err
	}

	profile, err := s.catalog.SellerProfile(ctx, group.SellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading seller fee schedule")
	}
	schedule, err := fees.ScheduleFromProfile(profile)
	if err != nil {
		return nil, err
	}

	breakdown, err := fees.Compute(group.ItemTotalCents(), schedule)
	if err != nil {
		return nil, err
	}

	intent := &Intent{
		BuyerID:   buyerID,
		SellerID:  group.SellerID,
		Currency:  currency,
		Lines:     group.Lines,
		Breakdown: breakdown,
		Snapshot:  snapshotFromGroup(group),
	}

	if profile.PayoutAccountID != nil && *profile.PayoutAccountID != "" {
		intent.PayoutAccountID = profile.PayoutAccountID
		intent.PayoutReady = profile.ChargesEnabled
	}

	// A seller without a charge-enabled payout destination does not block
	// checkout; funds settle to the platform account and payout is
	// reconciled out of band.
	if !intent.PayoutReady {
		ctx = s.logg.WithUserID(ctx, group.SellerID.String())
		s.logg.Warn(ctx, "seller payout destination not ready, settling to platform account")
	}

	return intent, nil
}

// StartCheckout builds the intent and opens a hosted checkout session.
func (s *service) StartCheckout(ctx context.Context, buyerID uuid.UUID, lines []cart.Line) (*HostedCheckout, error) {
	intent, err := s.BuildIntent(ctx, buyerID, lines)
	if err != nil {
		return nil, err
	}

	req, err := s.sessionRequest(intent)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "preparing checkout session")
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating hosted checkout session")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"session_id":  session.SessionID,
		"seller_id":   intent.SellerID.String(),
		"total_cents": intent.Breakdown.BuyerChargeTotalCents(),
	})
	s.logg.Info(ctx, "hosted checkout session created")

	return &HostedCheckout{SessionID: session.SessionID, URL: session.URL}, nil
}

func (s *service) sessionRequest(intent *Intent) (stripepkg.SessionRequest, error) {
	snapshot, err := EncodeSnapshot(intent.Snapshot)
	if err != nil {
		return stripepkg.SessionRequest{}, err
	}

	items := make([]stripepkg.SessionLineItem, 0, len(intent.Lines)+1)
	for _, line := range intent.Lines {
		items = append(items, stripepkg.SessionLineItem{
			Name:            line.Product.Title,
			UnitAmountCents: line.Product.PriceCents,
			Qty:             int64(line.Qty),
		})
	}
	// The buyer protection fee rides as its own labeled line so the hosted
	// page's itemized total matches the fee breakdown exactly.
	if intent.Breakdown.BuyerProtectionFeeCents > 0 {
		items = append(items, stripepkg.SessionLineItem{
			Name:            s.cfg.BuyerProtectionName,
			UnitAmountCents: intent.Breakdown.BuyerProtectionFeeCents,
			Qty:             1,
		})
	}

	req := stripepkg.SessionRequest{
		Currency:          intent.Currency.Lower(),
		SuccessURL:        s.cfg.SuccessURL,
		CancelURL:         s.cfg.CancelURL,
		ClientReferenceID: intent.BuyerID.String(),
		LineItems:         items,
		Metadata: map[string]string{
			MetadataKeySnapshot: snapshot,
			MetadataKeyBuyerID:  intent.BuyerID.String(),
			MetadataKeySellerID: intent.SellerID.String(),
		},
	}

	if intent.PayoutReady {
		req.PayoutAccountID = intent.PayoutAccountID
		req.ApplicationFeeCents = intent.Breakdown.SellerFeeCents +
			intent.Breakdown.PlatformRevenueCents +
			intent.Breakdown.BuyerProtectionFeeCents
	}

	return req, nil
}

func snapshotFromGroup(group *cart.Group) []SnapshotLine {
	snapshot := make([]SnapshotLine, 0, len(group.Lines))
	for _, line := range group.Lines {
		snapshot = append(snapshot, SnapshotLine{
			ProductID:  line.Product.ID,
			VariantID:  line.VariantID,
			Qty:        line.Qty,
			PriceCents: line.Product.PriceCents,
		})
	}
	return snapshot
}

func groupCurrency(group *cart.Group) (enums.Currency, error) {
	currency := enums.Currency("")
	for _, line := range group.Lines {
		if currency == "" {
			currency = line.Product.Currency
			continue
		}
		if line.Product.Currency != currency {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "cart mixes currencies")
		}
	}
	if currency == "" || !currency.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency")
	}
	return currency, nil
}

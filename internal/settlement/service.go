package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trovemarket/trove-backend/internal/checkout"
	"github.com/trovemarket/trove-backend/internal/conversations"
	"github.com/trovemarket/trove-backend/pkg/db"
	"github.com/trovemarket/trove-backend/pkg/db/models"
	"github.com/trovemarket/trove-backend/pkg/enums"
	pkgerrors "github.com/trovemarket/trove-backend/pkg/errors"
	"github.com/trovemarket/trove-backend/pkg/logger"
	"github.com/trovemarket/trove-backend/pkg/metrics"
	stripepkg "github.com/trovemarket/trove-backend/pkg/stripe"
)

const paymentReferenceIndex = "idx_orders_payment_reference"

// errRaceLost aborts the insert transaction when a concurrent settlement won
// the unique index. It never leaves this package.
var errRaceLost = errors.New("settlement race lost")

type gateway interface {
	RetrieveConfirmation(ctx context.Context, sessionRef string) (*stripepkg.Confirmation, error)
}

type productLookup interface {
	LookupProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type bridge interface {
	EnsureThread(ctx context.Context, thread conversations.Thread) (*models.Conversation, error)
}

// Result reports the settled order and whether this call created it.
type Result struct {
	OrderID uuid.UUID
	Created bool
}

// Service converts a confirmed payment into exactly one order, no matter how
// many times or how concurrently it is invoked for the same confirmation.
type Service interface {
	Settle(ctx context.Context, sessionRef string, actor *uuid.UUID) (*Result, error)
}

type service struct {
	gateway gateway
	repo    Repository
	catalog productLookup
	tx      txRunner
	bridge  bridge
	logg    *logger.Logger
	metrics *metrics.SettlementMetrics
}

// NewService builds a settlement service backed by the provided stack.
func NewService(
	gw gateway,
	repo Repository,
	catalogRepo productLookup,
	tx txRunner,
	bridgeSvc bridge,
	logg *logger.Logger,
	m *metrics.SettlementMetrics,
) (Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if repo == nil {
		return nil, fmt.Errorf("settlement repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if bridgeSvc == nil {
		return nil, fmt.Errorf("conversation bridge required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		gateway: gw,
		repo:    repo,
		catalog: catalogRepo,
		tx:      tx,
		bridge:  bridgeSvc,
		logg:    logg,
		metrics: m,
	}, nil
}

// Settle idempotently materializes the order behind a checkout session.
//
// actor is the authenticated user finalizing from the browser redirect; a
// nil actor marks a trusted gateway notification, which is authorized by the
// webhook signature instead of a session owner check.
func (s *service) Settle(ctx context.Context, sessionRef string, actor *uuid.UUID) (*Result, error) {
	start := time.Now()
	outcome := metrics.SettlementRejected
	defer func() {
		s.metrics.ObserveSettlement(outcome, time.Since(start))
	}()

	if sessionRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session reference is required")
	}

	conf, err := s.gateway.RetrieveConfirmation(ctx, sessionRef)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieving payment confirmation")
	}
	if !conf.Settled() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment not completed")
	}
	// The payment-intent id is the idempotency key for the whole procedure.
	ref := conf.PaymentIntentID
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "confirmation carries no payment intent")
	}

	ctx = s.logg.WithPaymentReference(ctx, ref)

	// Fast path: the order already exists.
	existing, err := s.repo.FindByPaymentReference(ctx, ref)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up order by payment reference")
	}
	if existing != nil {
		if err := authorizeOwner(existing, actor); err != nil {
			return nil, err
		}
		outcome = metrics.SettlementReplayed
		s.logg.Info(ctx, "settlement replayed existing order")
		return &Result{OrderID: existing.ID}, nil
	}

	order, sellerThreads, err := s.buildOrder(ctx, conf, ref, actor)
	if err != nil {
		return nil, err
	}

	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		createErr := s.repo.WithTx(tx).CreateOrder(ctx, order)
		if createErr == nil {
			return nil
		}
		if db.IsUniqueViolation(createErr, paymentReferenceIndex) {
			return errRaceLost
		}
		return createErr
	})
	switch {
	case txErr == nil:
		// Created by this call.
	case errors.Is(txErr, errRaceLost):
		// A concurrent settlement inserted first; converge on its order.
		winner, findErr := s.repo.FindByPaymentReference(ctx, ref)
		if findErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "re-querying order after settlement race")
		}
		if winner == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "order vanished after unique violation")
		}
		if err := authorizeOwner(winner, actor); err != nil {
			return nil, err
		}
		outcome = metrics.SettlementRaceRecovered
		s.logg.Info(ctx, "settlement race resolved to existing order")
		return &Result{OrderID: winner.ID}, nil
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, txErr, "persisting order")
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, "order settled")

	s.ensureThreads(ctx, sellerThreads)

	outcome = metrics.SettlementCreated
	return &Result{OrderID: order.ID, Created: true}, nil
}

// buildOrder replays the snapshot carried in the confirmation metadata into
// a fully populated order. The live cart is never consulted.
func (s *service) buildOrder(ctx context.Context, conf *stripepkg.Confirmation, ref string, actor *uuid.UUID) (*models.Order, []conversations.Thread, error) {
	buyerID, err := uuid.Parse(conf.Metadata[checkout.MetadataKeyBuyerID])
	if err != nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeInternal, "confirmation carries no buyer")
	}
	if actor != nil && *actor != buyerID {
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, "confirmation belongs to a different buyer")
	}

	lines, err := checkout.DecodeSnapshot(conf.Metadata[checkout.MetadataKeySnapshot])
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirmation snapshot missing or unparseable")
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.catalog.LookupProducts(ctx, ids)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving snapshot products")
	}

	orderID := uuid.New()
	currency := enums.CurrencyUSD
	var itemTotal int64
	items := make([]models.OrderItem, 0, len(lines))
	threads := []conversations.Thread{}
	seenSellers := map[uuid.UUID]struct{}{}

	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, nil, pkgerrors.New(pkgerrors.CodeInternal, "snapshot product no longer in catalog")
		}
		itemTotal += line.PriceCents * int64(line.Qty)
		currency = product.Currency
		items = append(items, models.OrderItem{
			ID:         uuid.New(),
			OrderID:    orderID,
			ProductID:  product.ID,
			VariantID:  line.VariantID,
			SellerID:   product.SellerID,
			Title:      product.Title,
			Qty:        line.Qty,
			PriceCents: line.PriceCents,
			Status:     enums.OrderItemStatusPending,
		})
		if _, seen := seenSellers[product.SellerID]; !seen {
			seenSellers[product.SellerID] = struct{}{}
			productID := product.ID
			threads = append(threads, conversations.Thread{
				OrderID:   orderID,
				BuyerID:   buyerID,
				SellerID:  product.SellerID,
				ProductID: &productID,
			})
		}
	}

	protection := conf.AmountTotalCents - itemTotal
	if protection < 0 {
		protection = 0
	}

	order := &models.Order{
		ID:                   orderID,
		UserID:               buyerID,
		PaymentReference:     ref,
		TotalCents:           conf.AmountTotalCents,
		BuyerProtectionCents: protection,
		Currency:             currency,
		Status:               enums.OrderStatusPending,
		ShippingAddress:      conf.CustomerAddress,
		Items:                items,
	}
	return order, threads, nil
}

// ensureThreads opens a conversation per (order, seller). Best effort: a
// failure is logged and counted, never propagated into settlement.
func (s *service) ensureThreads(ctx context.Context, threads []conversations.Thread) {
	for _, thread := range threads {
		if _, err := s.bridge.EnsureThread(ctx, thread); err != nil {
			s.metrics.IncBridgeFailure()
			s.logg.Warn(ctx, fmt.Sprintf("conversation thread creation failed for seller %s: %v", thread.SellerID, err))
		}
	}
}

func authorizeOwner(order *models.Order, actor *uuid.UUID) error {
	if actor != nil && *actor != order.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to a different buyer")
	}
	return nil
}

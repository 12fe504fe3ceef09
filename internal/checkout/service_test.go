package checkout

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trovemarket/trove-backend/internal/cart"
	"github.com/trovemarket/trove-backend/pkg/config"
	"github.com/trovemarket/trove-backend/pkg/db/models"
	"github.com/trovemarket/trove-backend/pkg/enums"
	pkgerrors "github.com/trovemarket/trove-backend/pkg/errors"
	"github.com/trovemarket/trove-backend/pkg/logger"
	stripepkg "github.com/trovemarket/trove-backend/pkg/stripe"
)

type stubCatalog struct {
	products map[uuid.UUID]models.Product
	profiles map[uuid.UUID]*models.SellerProfile
}

func (s *stubCatalog) ResolveProducts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	resolved := map[uuid.UUID]models.Product{}
	for _, id := range ids {
		if product, ok := s.products[id]; ok {
			resolved[id] = product
		}
	}
	return resolved, nil
}

func (s *stubCatalog) LookupProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	return s.ResolveProducts(ctx, ids)
}

func (s *stubCatalog) SellerProfile(_ context.Context, sellerID uuid.UUID) (*models.SellerProfile, error) {
	return s.profiles[sellerID], nil
}

type stubGateway struct {
	lastRequest *stripepkg.SessionRequest
	session     *stripepkg.HostedSession
	err         error
}

func (s *stubGateway) CreateCheckoutSession(_ context.Context, req stripepkg.SessionRequest) (*stripepkg.HostedSession, error) {
	s.lastRequest = &req
	if s.err != nil {
		return nil, s.err
	}
	if s.session != nil {
		return s.session, nil
	}
	return &stripepkg.HostedSession{SessionID: "cs_test_123", URL: "https://checkout.test/cs_test_123"}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testCheckoutConfig() config.CheckoutConfig {
	return config.CheckoutConfig{
		SuccessURL:          "https://trove.test/success",
		CancelURL:           "https://trove.test/cancel",
		BuyerProtectionName: "Buyer Protection",
	}
}

func sellerProfile(sellerID uuid.UUID, payoutAccount string, chargesEnabled bool) *models.SellerProfile {
	profile := &models.SellerProfile{
		UserID:              sellerID,
		CommissionRate:      decimal.RequireFromString("0.10"),
		SellerFlatFeeCents:  50,
		BuyerProtectionRate: decimal.RequireFromString("0.05"),
	}
	if payoutAccount != "" {
		profile.PayoutAccountID = &payoutAccount
		profile.ChargesEnabled = chargesEnabled
	}
	return profile
}

func catalogProduct(sellerID uuid.UUID, title string, priceCents int64) models.Product {
	return models.Product{
		ID:         uuid.New(),
		SellerID:   sellerID,
		Title:      title,
		PriceCents: priceCents,
		Currency:   enums.CurrencyUSD,
		Active:     true,
	}
}

func TestBuildIntentPricesSingleSellerCart(t *testing.T) {
	buyer := uuid.New()
	seller := uuid.New()
	lamp := catalogProduct(seller, "Brass Lamp", 1000)

	svc, err := NewService(&stubCatalog{
		products: map[uuid.UUID]models.Product{lamp.ID: lamp},
		profiles: map[uuid.UUID]*models.SellerProfile{seller: sellerProfile(seller, "acct_1", true)},
	}, &stubGateway{}, testCheckoutConfig(), testLogger())
	require.NoError(t, err)

	intent, err := svc.BuildIntent(context.Background(), buyer, []cart.Line{{ProductID: lamp.ID, Qty: 2}})
	require.NoError(t, err)

	assert.Equal(t, seller, intent.SellerID)
	assert.Equal(t, int64(2000), intent.Breakdown.ItemTotalCents)
	assert.Equal(t, int64(100), intent.Breakdown.BuyerProtectionFeeCents)
	assert.Equal(t, int64(2100), intent.Breakdown.BuyerChargeTotalCents())
	assert.True(t, intent.PayoutReady)
	require.Len(t, intent.Snapshot, 1)
	assert.Equal(t, lamp.ID, intent.Snapshot[0].ProductID)
	assert.Equal(t, int64(1000), intent.Snapshot[0].PriceCents)
}

func TestBuildIntentProceedsWhenPayoutNotReady(t *testing.T) {
	buyer := uuid.New()
	seller := uuid.New()
	lamp := catalogProduct(seller, "Brass Lamp", 1000)

	svc, err := NewService(&stubCatalog{
		products: map[uuid.UUID]models.Product{lamp.ID: lamp},
		profiles: map[uuid.UUID]*models.SellerProfile{seller: sellerProfile(seller, "acct_1", false)},
	}, &stubGateway{}, testCheckoutConfig(), testLogger())
	require.NoError(t, err)

	intent, err := svc.BuildIntent(context.Background(), buyer, []cart.Line{{ProductID: lamp.ID, Qty: 1}})
	require.NoError(t, err)

	assert.False(t, intent.PayoutReady)
}

func TestBuildIntentRejectsSellerWithoutProfile(t *testing.T) {
	buyer := uuid.New()
	seller := uuid.New()
	lamp := catalogProduct(seller, "Brass Lamp", 1000)

	svc, err := NewService(&stubCatalog{
		products: map[uuid.UUID]models.Product{lamp.ID: lamp},
		profiles: map[uuid.UUID]*models.SellerProfile{},
	}, &stubGateway{}, testCheckoutConfig(), testLogger())
	require.NoError(t, err)

	_, err = svc.BuildIntent(context.Background(), buyer, []cart.Line{{ProductID: lamp.ID, Qty: 1}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestStartCheckoutAppendsBuyerProtectionLine(t *testing.T) {
	buyer := uuid.New()
	seller := uuid.New()
	lamp := catalogProduct(seller, "Brass Lamp", 1000)
	gw := &stubGateway{}

	svc, err := NewService(&stubCatalog{
		products: map[uuid.UUID]models.Product{lamp.ID: lamp},
		profiles: map[uuid.UUID]*models.SellerProfile{seller: sellerProfile(seller, "acct_1", true)},
	}, gw, testCheckoutConfig(), testLogger())
	require.NoError(t, err)

	hosted, err := svc.StartCheckout(context.Background(), buyer, []cart.Line{{ProductID: lamp.ID, Qty: 2}})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", hosted.SessionID)

	require.NotNil(t, gw.lastRequest)
	req := gw.lastRequest
	require.Len(t, req.LineItems, 2)
	assert.Equal(t, "Brass Lamp", req.LineItems[0].Name)
	assert.Equal(t, int64(2), req.LineItems[0].Qty)
	assert.Equal(t, "Buyer Protection", req.LineItems[1].Name)
	assert.Equal(t, int64(100), req.LineItems[1].UnitAmountCents)

	// The summed line items must reconcile to the engine's buyer total.
	var gatewayTotal int64
	for _, item := range req.LineItems {
		gatewayTotal += item.UnitAmountCents * item.Qty
	}
	assert.Equal(t, int64(2100), gatewayTotal)

	snapshot, err := DecodeSnapshot(req.Metadata[MetadataKeySnapshot])
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, buyer.String(), req.Metadata[MetadataKeyBuyerID])
	assert.Equal(t, seller.String(), req.Metadata[MetadataKeySellerID])

	require.NotNil(t, req.PayoutAccountID)
	assert.Equal(t, "acct_1", *req.PayoutAccountID)
	// Flat fee 50 + variable commission 150 + protection 100.
	assert.Equal(t, int64(300), req.ApplicationFeeCents)
}

func TestStartCheckoutOmitsPayoutRoutingWhenNotReady(t *testing.T) {
	buyer := uuid.New()
	seller := uuid.New()
	lamp := catalogProduct(seller, "Brass Lamp", 1000)
	gw := &stubGateway{}

	svc, err := NewService(&stubCatalog{
		products: map[uuid.UUID]models.Product{lamp.ID: lamp},
		profiles: map[uuid.UUID]*models.SellerProfile{seller: sellerProfile(seller, "acct_1", false)},
	}, gw, testCheckoutConfig(), testLogger())
	require.NoError(t, err)

	_, err = svc.StartCheckout(context.Background(), buyer, []cart.Line{{ProductID: lamp.ID, Qty: 1}})
	require.NoError(t, err)

	require.NotNil(t, gw.lastRequest)
	assert.Nil(t, gw.lastRequest.PayoutAccountID)
	assert.Zero(t, gw.lastRequest.ApplicationFeeCents)
}

func TestStartCheckoutDoesNotCallGatewayOnRejection(t *testing.T) {
	buyer := uuid.New()
	first := catalogProduct(uuid.New(), "Teapot", 900)
	second := catalogProduct(uuid.New(), "Bookshelf", 4000)
	gw := &stubGateway{}

	svc, err := NewService(&stubCatalog{
		products: map[uuid.UUID]models.Product{first.ID: first, second.ID: second},
		profiles: map[uuid.UUID]*models.SellerProfile{},
	}, gw, testCheckoutConfig(), testLogger())
	require.NoError(t, err)

	_, err = svc.StartCheckout(context.Background(), buyer, []cart.Line{
		{ProductID: first.ID, Qty: 1},
		{ProductID: second.ID, Qty: 1},
	})
	require.Error(t, err)
	assert.Equal(t, cart.ReasonMultiSeller, cart.RejectionReason(err))
	assert.Nil(t, gw.lastRequest)
}

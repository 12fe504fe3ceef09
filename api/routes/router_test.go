package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trovemarket/trove-backend/internal/fulfillment"
	pkgauth "github.com/trovemarket/trove-backend/pkg/auth"
	"github.com/trovemarket/trove-backend/pkg/config"
	"github.com/trovemarket/trove-backend/pkg/db/models"
	"github.com/trovemarket/trove-backend/pkg/enums"
	"github.com/trovemarket/trove-backend/pkg/logger"
)

type stubFulfillmentService struct {
	orders []fulfillment.OrderView
}

func (s *stubFulfillmentService) AdvanceItem(ctx context.Context, actorID, itemID uuid.UUID, target enums.OrderItemStatus, tracking *fulfillment.TrackingInfo) (*models.OrderItem, error) {
	return nil, nil
}

func (s *stubFulfillmentService) CancelItem(ctx context.Context, actorID, itemID uuid.UUID, reason *string) (*models.OrderItem, error) {
	return nil, nil
}

func (s *stubFulfillmentService) ConfirmDelivery(ctx context.Context, actorID, itemID uuid.UUID) (*models.OrderItem, error) {
	return nil, nil
}

func (s *stubFulfillmentService) ReportIssue(ctx context.Context, actorID, itemID uuid.UUID, input fulfillment.IssueInput) (*models.OrderIssue, error) {
	return nil, nil
}

func (s *stubFulfillmentService) RequestReturn(ctx context.Context, actorID, itemID uuid.UUID, reason string) (*models.ReturnRequest, error) {
	return nil, nil
}

func (s *stubFulfillmentService) SubmitFeedback(ctx context.Context, actorID, orderID uuid.UUID, input fulfillment.FeedbackInput) (*models.Feedback, error) {
	return nil, nil
}

func (s *stubFulfillmentService) GetOrder(ctx context.Context, actorID, orderID uuid.UUID) (*fulfillment.OrderView, error) {
	return nil, nil
}

func (s *stubFulfillmentService) ListOrders(ctx context.Context, buyerID uuid.UUID) ([]fulfillment.OrderView, error) {
	return s.orders, nil
}

func (s *stubFulfillmentService) ListSellerItems(ctx context.Context, sellerID uuid.UUID) ([]fulfillment.ItemView, error) {
	return nil, nil
}

func testRouterConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "trove-test",
			ExpirationMinutes: 5,
		},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		testRouterConfig(),
		logg,
		nil,
		nil,
		nil,
		nil,
		&stubFulfillmentService{},
		nil,
		nil,
		nil,
	)
}

func TestRouterServesLiveness(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if env := resp.Header().Get("X-Trove-Env"); env != "test" {
		t.Fatalf("unexpected env header %q", env)
	}
}

func TestRouterRejectsMissingBearerToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestRouterAcceptsMintedToken(t *testing.T) {
	cfg := testRouterConfig()
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	router := NewRouter(cfg, logg, nil, nil, nil, nil, &stubFulfillmentService{}, nil, nil, nil)

	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRouterReturnsNotFoundForUnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/trovemarket/trove-backend/api/middleware"
	"github.com/trovemarket/trove-backend/internal/fulfillment"
	"github.com/trovemarket/trove-backend/pkg/db/models"
	"github.com/trovemarket/trove-backend/pkg/enums"
	pkgerrors "github.com/trovemarket/trove-backend/pkg/errors"
)

type stubFulfillmentService struct {
	item         *models.OrderItem
	err          error
	lastTarget   enums.OrderItemStatus
	lastTracking *fulfillment.TrackingInfo
}

func (s *stubFulfillmentService) AdvanceItem(ctx context.Context, actorID, itemID uuid.UUID, target enums.OrderItemStatus, tracking *fulfillment.TrackingInfo) (*models.OrderItem, error) {
	s.lastTarget = target
	s.lastTracking = tracking
	return s.item, s.err
}

func (s *stubFulfillmentService) CancelItem(ctx context.Context, actorID, itemID uuid.UUID, reason *string) (*models.OrderItem, error) {
	return s.item, s.err
}

func (s *stubFulfillmentService) ConfirmDelivery(ctx context.Context, actorID, itemID uuid.UUID) (*models.OrderItem, error) {
	return s.item, s.err
}

func (s *stubFulfillmentService) ReportIssue(ctx context.Context, actorID, itemID uuid.UUID, input fulfillment.IssueInput) (*models.OrderIssue, error) {
	return nil, s.err
}

func (s *stubFulfillmentService) RequestReturn(ctx context.Context, actorID, itemID uuid.UUID, reason string) (*models.ReturnRequest, error) {
	return nil, s.err
}

func (s *stubFulfillmentService) SubmitFeedback(ctx context.Context, actorID, orderID uuid.UUID, input fulfillment.FeedbackInput) (*models.Feedback, error) {
	return nil, s.err
}

func (s *stubFulfillmentService) GetOrder(ctx context.Context, actorID, orderID uuid.UUID) (*fulfillment.OrderView, error) {
	return nil, s.err
}

func (s *stubFulfillmentService) ListOrders(ctx context.Context, buyerID uuid.UUID) ([]fulfillment.OrderView, error) {
	return nil, s.err
}

func (s *stubFulfillmentService) ListSellerItems(ctx context.Context, sellerID uuid.UUID) ([]fulfillment.ItemView, error) {
	return nil, s.err
}

func itemRequest(t *testing.T, path, body string, itemID uuid.UUID, actorID *uuid.UUID) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("itemID", itemID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	if actorID != nil {
		ctx = middleware.WithUserID(ctx, actorID.String())
	}
	return req.WithContext(ctx)
}

func TestAdvanceItemForwardsTargetAndTracking(t *testing.T) {
	sellerID := uuid.New()
	itemID := uuid.New()
	svc := &stubFulfillmentService{item: &models.OrderItem{ID: itemID, Status: enums.OrderItemStatusShipped}}
	handler := AdvanceItem(svc, testControllerLogger())

	body := `{"target":"shipped","carrier":"usps","tracking_number":"9400 1000"}`
	resp := httptest.NewRecorder()
	handler(resp, itemRequest(t, "/api/v1/items/"+itemID.String()+"/advance", body, itemID, &sellerID))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastTarget != enums.OrderItemStatusShipped {
		t.Fatalf("unexpected target %s", svc.lastTarget)
	}
	if svc.lastTracking == nil || svc.lastTracking.Carrier != "usps" {
		t.Fatal("expected tracking info forwarded")
	}
}

func TestAdvanceItemRejectsUnknownTarget(t *testing.T) {
	sellerID := uuid.New()
	itemID := uuid.New()
	handler := AdvanceItem(&stubFulfillmentService{}, testControllerLogger())

	resp := httptest.NewRecorder()
	handler(resp, itemRequest(t, "/api/v1/items/"+itemID.String()+"/advance", `{"target":"teleported"}`, itemID, &sellerID))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestAdvanceItemMapsStateConflict(t *testing.T) {
	sellerID := uuid.New()
	itemID := uuid.New()
	svc := &stubFulfillmentService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "item can only advance to the next status")}
	handler := AdvanceItem(svc, testControllerLogger())

	resp := httptest.NewRecorder()
	handler(resp, itemRequest(t, "/api/v1/items/"+itemID.String()+"/advance", `{"target":"delivered"}`, itemID, &sellerID))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}
}

func TestCancelItemRejectsInvalidItemID(t *testing.T) {
	actorID := uuid.New()
	handler := CancelItem(&stubFulfillmentService{}, testControllerLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/not-a-uuid/cancel", strings.NewReader(`{}`))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("itemID", "not-a-uuid")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	ctx = middleware.WithUserID(ctx, actorID.String())

	resp := httptest.NewRecorder()
	handler(resp, req.WithContext(ctx))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

package fulfillment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trovemarket/trove-backend/internal/conversations"
	"github.com/trovemarket/trove-backend/pkg/db"
	"github.com/trovemarket/trove-backend/pkg/db/models"
	"github.com/trovemarket/trove-backend/pkg/enums"
	pkgerrors "github.com/trovemarket/trove-backend/pkg/errors"
	"github.com/trovemarket/trove-backend/pkg/logger"
	"github.com/trovemarket/trove-backend/pkg/metrics"
)

const minIssueDescriptionLen = 10

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type bridge interface {
	EnsureThread(ctx context.Context, thread conversations.Thread) (*models.Conversation, error)
}

// Service drives the per-item fulfillment lifecycle and the flows hanging
// off it. Every operation takes the acting user explicitly; authority is
// derived from record ownership, never from ambient session state.
type Service interface {
	AdvanceItem(ctx context.Context, actorID, itemID uuid.UUID, target enums.OrderItemStatus, tracking *TrackingInfo) (*models.OrderItem, error)
	CancelItem(ctx context.Context, actorID, itemID uuid.UUID, reason *string) (*models.OrderItem, error)
	ConfirmDelivery(ctx context.Context, actorID, itemID uuid.UUID) (*models.OrderItem, error)
	ReportIssue(ctx context.Context, actorID, itemID uuid.UUID, input IssueInput) (*models.OrderIssue, error)
	RequestReturn(ctx context.Context, actorID, itemID uuid.UUID, reason string) (*models.ReturnRequest, error)
	SubmitFeedback(ctx context.Context, actorID, orderID uuid.UUID, input FeedbackInput) (*models.Feedback, error)

	GetOrder(ctx context.Context, actorID, orderID uuid.UUID) (*OrderView, error)
	ListOrders(ctx context.Context, buyerID uuid.UUID) ([]OrderView, error)
	ListSellerItems(ctx context.Context, sellerID uuid.UUID) ([]ItemView, error)
}

type service struct {
	repo             Repository
	tx               txRunner
	bridge           bridge
	logg             *logger.Logger
	metrics          *metrics.SettlementMetrics
	feedbackCooldown time.Duration
}

// NewService builds a fulfillment service backed by the provided stack.
func NewService(repo Repository, tx txRunner, bridgeSvc bridge, logg *logger.Logger, m *metrics.SettlementMetrics, feedbackCooldown time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fulfillment repository required")
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
		repo:             repo,
		tx:               tx,
		bridge:           bridgeSvc,
		logg:             logg,
		metrics:          m,
		feedbackCooldown: feedbackCooldown,
	}, nil
}

// AdvanceItem moves an item one step along the linear chain. Seller only.
func (s *service) AdvanceItem(ctx context.Context, actorID, itemID uuid.UUID, target enums.OrderItemStatus, tracking *TrackingInfo) (*models.OrderItem, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.SellerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the seller can advance this item")
	}

	next, ok := item.Status.Next()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("item in status %q has no further transition", item.Status))
	}
	if !target.IsValid() || target != next {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("item in status %q can only advance to %q", item.Status, next))
	}

	updates := map[string]any{}
	now := time.Now().UTC()
	switch target {
	case enums.OrderItemStatusReceived:
		updates["seller_received_at"] = now
	case enums.OrderItemStatusShipped:
		updates["shipped_at"] = now
		if tracking != nil {
			if tracking.Carrier != "" {
				updates["carrier"] = tracking.Carrier
			}
			if tracking.TrackingNumber != "" {
				updates["tracking_number"] = tracking.TrackingNumber
			}
		}
	case enums.OrderItemStatusDelivered:
		updates["delivered_at"] = now
	}

	return s.applyTransition(ctx, item, item.Status, target, updates)
}

// CancelItem cancels a pre-shipped item. The buyer who owns the order and
// the seller of the item may both cancel.
func (s *service) CancelItem(ctx context.Context, actorID, itemID uuid.UUID, reason *string) (*models.OrderItem, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}
	if actorID != item.SellerID && actorID != order.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this item")
	}
	if !cancellable(item.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("item in status %q can no longer be cancelled", item.Status))
	}

	updates := map[string]any{}
	if reason != nil && strings.TrimSpace(*reason) != "" {
		updates["cancel_reason"] = strings.TrimSpace(*reason)
	}

	return s.applyTransition(ctx, item, item.Status, enums.OrderItemStatusCancelled, updates)
}

// ConfirmDelivery lets the buyer mark a shipped item delivered ahead of any
// carrier signal, unlocking rating.
func (s *service) ConfirmDelivery(ctx context.Context, actorID, itemID uuid.UUID) (*models.OrderItem, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}
	if actorID != order.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can confirm delivery")
	}
	if item.Status != enums.OrderItemStatusShipped {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("delivery can only be confirmed for shipped items, not %q", item.Status))
	}

	updates := map[string]any{"delivered_at": time.Now().UTC()}
	return s.applyTransition(ctx, item, enums.OrderItemStatusShipped, enums.OrderItemStatusDelivered, updates)
}

// ReportIssue opens a dispute record and a conversation thread for a shipped
// or delivered item. The item status does not change.
func (s *service) ReportIssue(ctx context.Context, actorID, itemID uuid.UUID, input IssueInput) (*models.OrderIssue, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown issue type")
	}
	description := strings.TrimSpace(input.Description)
	if len(description) < minIssueDescriptionLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("issue description must be at least %d characters", minIssueDescriptionLen))
	}

	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}
	if actorID != order.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can report an issue")
	}
	if item.Status != enums.OrderItemStatusShipped && item.Status != enums.OrderItemStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			"issues can only be reported for shipped or delivered items")
	}

	issue := &models.OrderIssue{
		ID:          uuid.New(),
		OrderItemID: item.ID,
		ReporterID:  actorID,
		IssueType:   input.Type,
		Description: description,
	}

	// Thread creation is best effort; the dispute record is still filed when
	// it fails and the thread can be retried later.
	productID := item.ProductID
	thread, err := s.bridge.EnsureThread(ctx, conversations.Thread{
		OrderID:   order.ID,
		BuyerID:   order.UserID,
		SellerID:  item.SellerID,
		ProductID: &productID,
	})
	if err != nil {
		s.metrics.IncBridgeFailure()
		s.logg.Warn(ctx, fmt.Sprintf("conversation thread creation failed for issue on item %s: %v", item.ID, err))
	} else {
		issue.ConversationID = &thread.ID
	}

	if err := s.repo.CreateIssue(ctx, issue); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording order issue")
	}
	return issue, nil
}

// RequestReturn files a return for a delivered item. Independent of the
// item's status field.
func (s *service) RequestReturn(ctx context.Context, actorID, itemID uuid.UUID, reason string) (*models.ReturnRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return reason is required")
	}

	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}
	if actorID != order.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can request a return")
	}
	if item.Status != enums.OrderItemStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "returns are available after delivery")
	}

	request := &models.ReturnRequest{
		ID:          uuid.New(),
		OrderItemID: item.ID,
		RequesterID: actorID,
		Reason:      reason,
		Status:      enums.ReturnStatusOpen,
	}
	if err := s.repo.CreateReturnRequest(ctx, request); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording return request")
	}
	return request, nil
}

// SubmitFeedback records one side's rating of the other, at most once per
// (order, rater role). Requires a delivered item.
func (s *service) SubmitFeedback(ctx context.Context, actorID, orderID uuid.UUID, input FeedbackInput) (*models.Feedback, error) {
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown rater role")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	sellerID, deliveredAt := orderSellerAndDelivery(order)

	subjectID := uuid.Nil
	switch input.Role {
	case enums.RaterRoleBuyer:
		if actorID != order.UserID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can rate the seller")
		}
		subjectID = sellerID
	case enums.RaterRoleSeller:
		if actorID != sellerID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the seller can rate the buyer")
		}
		subjectID = order.UserID
	}

	if deliveredAt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "feedback opens once an item is delivered")
	}
	if s.feedbackCooldown > 0 && time.Since(*deliveredAt) < s.feedbackCooldown {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "feedback is not available yet")
	}

	existing, err := s.repo.FindFeedback(ctx, order.ID, input.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up prior feedback")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "feedback already submitted for this order")
	}

	feedback := &models.Feedback{
		ID:        uuid.New(),
		OrderID:   order.ID,
		RaterRole: input.Role,
		RaterID:   actorID,
		SubjectID: subjectID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		Flags:     input.Flags,
	}
	err = s.repo.CreateFeedback(ctx, feedback)
	if err != nil {
		// A concurrent duplicate loses on the unique index rather than
		// overwriting the first record.
		if db.IsUniqueViolation(err, "idx_feedbacks_order_rater") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "feedback already submitted for this order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording feedback")
	}
	return feedback, nil
}

// GetOrder returns the buyer's view of one order.
func (s *service) GetOrder(ctx context.Context, actorID, orderID uuid.UUID) (*OrderView, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to a different buyer")
	}
	view, err := s.orderView(ctx, order)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ListOrders returns the buyer's orders, newest first.
func (s *service) ListOrders(ctx context.Context, buyerID uuid.UUID) ([]OrderView, error) {
	orders, err := s.repo.ListOrdersForBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		view, err := s.orderView(ctx, &orders[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// ListSellerItems returns the items sold by the given seller, newest first.
func (s *service) ListSellerItems(ctx context.Context, sellerID uuid.UUID) ([]ItemView, error) {
	items, err := s.repo.ListItemsForSeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing seller items")
	}
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, itemView(item))
	}
	return views, nil
}

// applyTransition performs the conditional update and refreshes the stored
// order status from the new item statuses, atomically.
func (s *service) applyTransition(ctx context.Context, item *models.OrderItem, from, to enums.OrderItemStatus, updates map[string]any) (*models.OrderItem, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		applied, err := repo.TransitionItem(ctx, item.ID, from, to, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying status transition")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "item status changed underneath, refetch and retry")
		}

		order, err := repo.GetOrder(ctx, item.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order after transition")
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "order missing for item")
		}
		derived := DeriveOrderStatus(itemStatuses(order.Items))
		if err := repo.UpdateOrderStatus(ctx, order.ID, derived); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating derived order status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(to.String())
	ctx = s.logg.WithFields(ctx, map[string]any{"item_id": item.ID.String(), "status": to.String()})
	s.logg.Info(ctx, "order item transitioned")

	return s.loadItem(ctx, item.ID)
}

func (s *service) loadItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order item")
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
	}
	return item, nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) orderView(ctx context.Context, order *models.Order) (*OrderView, error) {
	view := &OrderView{
		ID:                   order.ID,
		Status:               DeriveOrderStatus(itemStatuses(order.Items)),
		TotalCents:           order.TotalCents,
		BuyerProtectionCents: order.BuyerProtectionCents,
		Currency:             order.Currency,
		ShippingAddress:      order.ShippingAddress,
		CreatedAt:            order.CreatedAt,
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, itemView(item))
	}

	_, deliveredAt := orderSellerAndDelivery(order)
	if deliveredAt != nil {
		feedback, err := s.repo.FindFeedback(ctx, order.ID, enums.RaterRoleBuyer)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading feedback state")
		}
		view.HasRated = feedback != nil
		cooled := s.feedbackCooldown <= 0 || time.Since(*deliveredAt) >= s.feedbackCooldown
		view.CanRate = !view.HasRated && cooled
	}
	return view, nil
}

func cancellable(status enums.OrderItemStatus) bool {
	switch status {
	case enums.OrderItemStatusPending, enums.OrderItemStatusReceived, enums.OrderItemStatusProcessing:
		return true
	}
	return false
}

// orderSellerAndDelivery extracts the (single) seller behind an order's
// items and the earliest delivery time, if any item is delivered yet.
func orderSellerAndDelivery(order *models.Order) (uuid.UUID, *time.Time) {
	sellerID := uuid.Nil
	var deliveredAt *time.Time
	for _, item := range order.Items {
		if sellerID == uuid.Nil {
			sellerID = item.SellerID
		}
		if item.Status == enums.OrderItemStatusDelivered && item.DeliveredAt != nil {
			if deliveredAt == nil || item.DeliveredAt.Before(*deliveredAt) {
				deliveredAt = item.DeliveredAt
			}
		}
	}
	return sellerID, deliveredAt
}

package conversations

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/trovemarket/trove-backend/pkg/db"
	"github.com/trovemarket/trove-backend/pkg/db/models"
)

// Thread identifies the buyer-seller channel an order needs.
type Thread struct {
	OrderID   uuid.UUID
	BuyerID   uuid.UUID
	SellerID  uuid.UUID
	ProductID *uuid.UUID
}

// Service ensures conversation threads exist. All operations are idempotent
// per (order, seller); callers may retry freely.
type Service interface {
	EnsureThread(ctx context.Context, thread Thread) (*models.Conversation, error)
}

type service struct {
	repo Repository
}

// NewService builds a conversations service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("conversations repository required")
	}
	return &service{repo: repo}, nil
}

// EnsureThread returns the existing thread for (order, seller) or creates
// it. A concurrent creator winning the unique index race is resolved by
// re-querying, never surfaced as an error.
func (s *service) EnsureThread(ctx context.Context, thread Thread) (*models.Conversation, error) {
	if thread.OrderID == uuid.Nil || thread.SellerID == uuid.Nil || thread.BuyerID == uuid.Nil {
		return nil, fmt.Errorf("thread requires order, buyer and seller ids")
	}

	existing, err := s.repo.FindByOrderAndSeller(ctx, thread.OrderID, thread.SellerID)
	if err != nil {
		return nil, fmt.Errorf("looking up conversation: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	conversation := &models.Conversation{
		ID:        uuid.New(),
		OrderID:   thread.OrderID,
		BuyerID:   thread.BuyerID,
		SellerID:  thread.SellerID,
		ProductID: thread.ProductID,
	}
	err = s.repo.Create(ctx, conversation)
	if err == nil {
		return conversation, nil
	}
	if !db.IsUniqueViolation(err, "idx_conversations_order_seller") {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	existing, err = s.repo.FindByOrderAndSeller(ctx, thread.OrderID, thread.SellerID)
	if err != nil {
		return nil, fmt.Errorf("re-querying conversation after race: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("conversation vanished after unique violation")
	}
	return existing, nil
}

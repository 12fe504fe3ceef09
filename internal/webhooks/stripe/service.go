package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/trovemarket/trove-backend/internal/settlement"
	pkgerrors "github.com/trovemarket/trove-backend/pkg/errors"
	"github.com/trovemarket/trove-backend/pkg/logger"
)

type settler interface {
	Settle(ctx context.Context, sessionRef string, actor *uuid.UUID) (*settlement.Result, error)
}

type ServiceParams struct {
	Settler settler
	Guard   *EventGuard
	Logger  *logger.Logger
}

// Service feeds gateway notifications into settlement. This is the second,
// racing settlement trigger; the browser redirect is the first.
type Service struct {
	settler settler
	guard   *EventGuard
	logg    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Settler == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settlement service required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "event guard required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		settler: params.Settler,
		guard:   params.Guard,
		logg:    params.Logger,
	}, nil
}

// HandleEvent settles completed checkout sessions. Unknown event types are
// acknowledged without work.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
	}
	if session.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}

	duplicate, err := s.guard.CheckAndMark(ctx, event.ID)
	if err != nil {
		// Redis being down must not stop settlement; the unique index still
		// dedupes.
		s.logg.Warn(ctx, fmt.Sprintf("webhook idempotency check failed, proceeding: %v", err))
	}
	if duplicate {
		s.logg.Info(ctx, fmt.Sprintf("duplicate webhook delivery %s dropped", event.ID))
		return nil
	}

	ctx = s.logg.WithField(ctx, "session_id", session.ID)
	if _, err := s.settler.Settle(ctx, session.ID, nil); err != nil {
		if releaseErr := s.guard.Release(ctx, event.ID); releaseErr != nil {
			s.logg.Warn(ctx, fmt.Sprintf("releasing webhook idempotency marker failed: %v", releaseErr))
		}
		return err
	}
	return nil
}

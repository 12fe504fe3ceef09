package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/trovemarket/trove-backend/internal/settlement"
	"github.com/trovemarket/trove-backend/pkg/logger"
)

type stubSettler struct {
	calls []string
	err   error
}

func (s *stubSettler) Settle(_ context.Context, sessionRef string, actor *uuid.UUID) (*settlement.Result, error) {
	if actor != nil {
		return nil, fmt.Errorf("webhook settlement must not carry an actor")
	}
	s.calls = append(s.calls, sessionRef)
	if s.err != nil {
		return nil, s.err
	}
	return &settlement.Result{OrderID: uuid.New(), Created: true}, nil
}

type memoryStore struct {
	keys map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	return m.keys[key], nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, exists := m.keys[key]; exists {
		return false, nil
	}
	m.keys[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "trove:idempotency:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

func newWebhookService(t *testing.T, settler *stubSettler) *Service {
	t.Helper()

	guard, err := NewEventGuard(newMemoryStore(), time.Hour, "stripe-webhook")
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Settler: settler,
		Guard:   guard,
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc
}

func completedEvent(t *testing.T, eventID, sessionID string) *stripe.Event {
	t.Helper()

	raw, err := json.Marshal(&stripe.CheckoutSession{ID: sessionID})
	require.NoError(t, err)
	return &stripe.Event{
		ID:   eventID,
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEventSettlesCompletedSession(t *testing.T) {
	settler := &stubSettler{}
	svc := newWebhookService(t, settler)

	err := svc.HandleEvent(context.Background(), completedEvent(t, "evt_1", "cs_test_1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cs_test_1"}, settler.calls)
}

func TestHandleEventDropsDuplicateDelivery(t *testing.T) {
	settler := &stubSettler{}
	svc := newWebhookService(t, settler)

	event := completedEvent(t, "evt_dup", "cs_test_1")
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	assert.Len(t, settler.calls, 1)
}

func TestHandleEventReleasesGuardOnFailure(t *testing.T) {
	settler := &stubSettler{err: fmt.Errorf("gateway down")}
	svc := newWebhookService(t, settler)

	event := completedEvent(t, "evt_retry", "cs_test_1")
	require.Error(t, svc.HandleEvent(context.Background(), event))

	// The retried delivery is processed again, not dropped as a duplicate.
	settler.err = nil
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	assert.Len(t, settler.calls, 2)
}

func TestHandleEventIgnoresOtherEventTypes(t *testing.T) {
	settler := &stubSettler{}
	svc := newWebhookService(t, settler)

	raw, err := json.Marshal(&stripe.PaymentIntent{ID: "pi_1"})
	require.NoError(t, err)
	err = svc.HandleEvent(context.Background(), &stripe.Event{
		ID:   "evt_other",
		Type: stripe.EventTypePaymentIntentSucceeded,
		Data: &stripe.EventData{Raw: raw},
	})
	require.NoError(t, err)
	assert.Empty(t, settler.calls)
}

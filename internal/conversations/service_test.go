package conversations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/trovemarket/trove-backend/pkg/db/models"
)

func setupConversationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS conversations (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  buyer_id TEXT NOT NULL,
  product_id TEXT,
  created_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_conversations_order_seller
  ON conversations (order_id, seller_id);`
	require.NoError(t, conn.Exec(schema).Error)

	return conn
}

func newTestThread() Thread {
	productID := uuid.New()
	return Thread{
		OrderID:   uuid.New(),
		BuyerID:   uuid.New(),
		SellerID:  uuid.New(),
		ProductID: &productID,
	}
}

func TestEnsureThreadCreatesOnce(t *testing.T) {
	conn := setupConversationsTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	thread := newTestThread()

	first, err := svc.EnsureThread(context.Background(), thread)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, thread.OrderID, first.OrderID)

	second, err := svc.EnsureThread(context.Background(), thread)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, conn.Table("conversations").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureThreadRecoversFromUniqueRace(t *testing.T) {
	conn := setupConversationsTestDB(t)
	thread := newTestThread()

	repo := &racingRepo{inner: NewRepository(conn), thread: thread}
	svc, err := NewService(repo)
	require.NoError(t, err)

	got, err := svc.EnsureThread(context.Background(), thread)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, repo.winnerID, got.ID)

	var count int64
	require.NoError(t, conn.Table("conversations").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureThreadValidatesIDs(t *testing.T) {
	conn := setupConversationsTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	_, err = svc.EnsureThread(context.Background(), Thread{OrderID: uuid.New()})
	require.Error(t, err)
}

// racingRepo simulates a concurrent creator that wins between the service's
// lookup and its insert.
type racingRepo struct {
	inner    Repository
	thread   Thread
	raced    bool
	winnerID uuid.UUID
}

func (r *racingRepo) FindByOrderAndSeller(ctx context.Context, orderID, sellerID uuid.UUID) (*models.Conversation, error) {
	return r.inner.FindByOrderAndSeller(ctx, orderID, sellerID)
}

func (r *racingRepo) Create(ctx context.Context, conversation *models.Conversation) error {
	if !r.raced {
		r.raced = true
		winner := &models.Conversation{
			ID:       uuid.New(),
			OrderID:  r.thread.OrderID,
			BuyerID:  r.thread.BuyerID,
			SellerID: r.thread.SellerID,
		}
		if err := r.inner.Create(ctx, winner); err != nil {
			return err
		}
		r.winnerID = winner.ID
	}
	return r.inner.Create(ctx, conversation)
}

package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trovemarket/trove-backend/pkg/db/models"
	pkgerrors "github.com/trovemarket/trove-backend/pkg/errors"
)

func product(sellerID uuid.UUID, title string, priceCents int64) models.Product {
	return models.Product{
		ID:         uuid.New(),
		SellerID:   sellerID,
		Title:      title,
		PriceCents: priceCents,
		Active:     true,
	}
}

func TestPartitionSingleSeller(t *testing.T) {
	buyer := uuid.New()
	seller := uuid.New()
	lamp := product(seller, "Brass Lamp", 1000)
	chair := product(seller, "Oak Chair", 2500)
	products := map[uuid.UUID]models.Product{lamp.ID: lamp, chair.ID: chair}

	group, err := Partition([]Line{
		{ProductID: lamp.ID, Qty: 2},
		{ProductID: chair.ID, Qty: 1},
	}, products, buyer)
	require.NoError(t, err)

	assert.Equal(t, seller, group.SellerID)
	require.Len(t, group.Lines, 2)
	assert.Equal(t, int64(4500), group.ItemTotalCents())
}

func TestPartitionRejectsMissingProduct(t *testing.T) {
	buyer := uuid.New()
	seller := uuid.New()
	lamp := product(seller, "Brass Lamp", 1000)
	products := map[uuid.UUID]models.Product{lamp.ID: lamp}

	ghost := uuid.New()
	_, err := Partition([]Line{
		{ProductID: lamp.ID, Qty: 1},
		{ProductID: ghost, Qty: 1},
	}, products, buyer)

	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, ReasonMissingProduct, RejectionReason(err))
}

func TestPartitionRejectsOwnProductsWithTitles(t *testing.T) {
	buyer := uuid.New()
	other := uuid.New()
	mine := product(buyer, "My Old Coat", 800)
	theirs := product(other, "Vinyl Record", 1200)
	products := map[uuid.UUID]models.Product{mine.ID: mine, theirs.ID: theirs}

	_, err := Partition([]Line{
		{ProductID: mine.ID, Qty: 1},
		{ProductID: theirs.ID, Qty: 1},
	}, products, buyer)

	require.Error(t, err)
	assert.Equal(t, ReasonOwnProducts, RejectionReason(err))
	assert.Contains(t, err.Error(), "My Old Coat")
}

func TestPartitionRejectsMultiSeller(t *testing.T) {
	buyer := uuid.New()
	first := product(uuid.New(), "Teapot", 900)
	second := product(uuid.New(), "Bookshelf", 4000)
	products := map[uuid.UUID]models.Product{first.ID: first, second.ID: second}

	_, err := Partition([]Line{
		{ProductID: first.ID, Qty: 1},
		{ProductID: second.ID, Qty: 1},
	}, products, buyer)

	require.Error(t, err)
	assert.Equal(t, ReasonMultiSeller, RejectionReason(err))
}

func TestPartitionRejectsEmptyCart(t *testing.T) {
	_, err := Partition(nil, map[uuid.UUID]models.Product{}, uuid.New())

	require.Error(t, err)
	assert.Equal(t, ReasonMissingProducts, RejectionReason(err))
}

func TestPartitionValidatesQuantityBounds(t *testing.T) {
	buyer := uuid.New()
	lamp := product(uuid.New(), "Brass Lamp", 1000)
	products := map[uuid.UUID]models.Product{lamp.ID: lamp}

	for _, qty := range []int{0, -1, 100} {
		_, err := Partition([]Line{{ProductID: lamp.ID, Qty: qty}}, products, buyer)
		require.Error(t, err, "qty %d", qty)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	}
}

func TestPartitionMissingProductWinsOverOwnProducts(t *testing.T) {
	// Rule priority: unresolved lines reject before self-purchase.
	buyer := uuid.New()
	mine := product(buyer, "My Old Coat", 800)
	products := map[uuid.UUID]models.Product{mine.ID: mine}

	_, err := Partition([]Line{
		{ProductID: uuid.New(), Qty: 1},
		{ProductID: mine.ID, Qty: 1},
	}, products, buyer)

	require.Error(t, err)
	assert.Equal(t, ReasonMissingProduct, RejectionReason(err))
}

package cart

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trovemarket/trove-backend/pkg/db/models"
	pkgerrors "github.com/trovemarket/trove-backend/pkg/errors"
)

// Rejection reasons surfaced to the checkout UI.
const (
	ReasonMissingProduct  = "missing_product"
	ReasonOwnProducts     = "own_products"
	ReasonMultiSeller     = "multi_seller"
	ReasonMissingProducts = "missing_products"
)

const maxLineQty = 99

// Line is one client-supplied cart entry. Ephemeral; never persisted as-is.
type Line struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Qty       int
}

// GroupLine pairs a cart line with its resolved catalog product. The
// product's listed price is authoritative; the client never prices a line.
type GroupLine struct {
	Product   models.Product
	VariantID *uuid.UUID
	Qty       int
}

// SubtotalCents is the line's contribution to the item total.
func (l GroupLine) SubtotalCents() int64 {
	return l.Product.PriceCents * int64(l.Qty)
}

// Group is a settled single-seller slice of the cart, ready for checkout.
type Group struct {
	SellerID uuid.UUID
	Lines    []GroupLine
}

// ItemTotalCents sums the line subtotals.
func (g Group) ItemTotalCents() int64 {
	var total int64
	for _, line := range g.Lines {
		total += line.SubtotalCents()
	}
	return total
}

// Partition validates the cart lines against the resolved products and
// groups them under a single seller. Pure; performs no I/O.
//
// Rules apply in priority order: unresolved lines reject first, then
// self-purchase (naming the offending titles), then multi-seller carts, and
// an empty cart last.
func Partition(lines []Line, products map[uuid.UUID]models.Product, buyerID uuid.UUID) (*Group, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line is missing a product id")
		}
		if line.Qty < 1 || line.Qty > maxLineQty {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("quantity must be between 1 and %d", maxLineQty))
		}
	}

	missing := []uuid.UUID{}
	for _, line := range lines {
		if _, ok := products[line.ProductID]; !ok {
			missing = append(missing, line.ProductID)
		}
	}
	if len(missing) > 0 {
		return nil, rejection(ReasonMissingProduct, "some items are no longer available",
			map[string]any{"product_ids": missing})
	}

	ownTitles := []string{}
	for _, line := range lines {
		product := products[line.ProductID]
		if product.SellerID == buyerID {
			ownTitles = append(ownTitles, product.Title)
		}
	}
	if len(ownTitles) > 0 {
		sort.Strings(ownTitles)
		return nil, rejection(ReasonOwnProducts,
			fmt.Sprintf("you cannot buy your own items: %s", strings.Join(ownTitles, ", ")),
			map[string]any{"titles": ownTitles})
	}

	sellers := map[uuid.UUID]struct{}{}
	group := &Group{}
	for _, line := range lines {
		product := products[line.ProductID]
		sellers[product.SellerID] = struct{}{}
		group.SellerID = product.SellerID
		group.Lines = append(group.Lines, GroupLine{
			Product:   product,
			VariantID: line.VariantID,
			Qty:       line.Qty,
		})
	}
	if len(sellers) > 1 {
		return nil, rejection(ReasonMultiSeller,
			"items from multiple sellers cannot be checked out together", nil)
	}
	if len(sellers) == 0 {
		return nil, rejection(ReasonMissingProducts, "cart is empty", nil)
	}

	return group, nil
}

func rejection(reason, message string, extra map[string]any) error {
	details := map[string]any{"reason": reason}
	for k, v := range extra {
		details[k] = v
	}
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(details)
}

// RejectionReason extracts the partitioner rejection reason from an error,
// or "" when the error is not a partitioner rejection.
func RejectionReason(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return ""
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		return ""
	}
	reason, _ := details["reason"].(string)
	return reason
}

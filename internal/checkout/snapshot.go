package checkout

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Metadata keys attached to the hosted checkout session. Settlement replays
// only these; the live cart is never consulted after the session is created.
const (
	MetadataKeySnapshot = "cart_snapshot"
	MetadataKeyBuyerID  = "buyer_id"
	MetadataKeySellerID = "seller_id"
)

// SnapshotLine is one immutable line of the cart as priced at checkout time.
type SnapshotLine struct {
	ProductID  uuid.UUID  `json:"product_id"`
	VariantID  *uuid.UUID `json:"variant_id,omitempty"`
	Qty        int        `json:"qty"`
	PriceCents int64      `json:"price_cents"`
}

// EncodeSnapshot serializes the lines for gateway metadata.
func EncodeSnapshot(lines []SnapshotLine) (string, error) {
	if len(lines) == 0 {
		return "", fmt.Errorf("snapshot requires at least one line")
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("encoding cart snapshot: %w", err)
	}
	return string(raw), nil
}

// DecodeSnapshot parses a snapshot previously produced by EncodeSnapshot.
func DecodeSnapshot(raw string) ([]SnapshotLine, error) {
	if raw == "" {
		return nil, fmt.Errorf("cart snapshot is empty")
	}
	var lines []SnapshotLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("decoding cart snapshot: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("cart snapshot has no lines")
	}
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, fmt.Errorf("cart snapshot line is missing a product id")
		}
		if line.Qty < 1 {
			return nil, fmt.Errorf("cart snapshot line has invalid quantity %d", line.Qty)
		}
		if line.PriceCents < 0 {
			return nil, fmt.Errorf("cart snapshot line has negative price")
		}
	}
	return lines, nil
}

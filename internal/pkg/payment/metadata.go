package payment

import (
	"log"
	"strconv"
)

const (
	metadataKeyBuzzAmount  = "buzzAmount"
	metadataKeyBonusDetail = "bonusDescription"
)

// BuzzPriceMetadata is the buzz-granting annotation carried on credit-pack
// price metadata.
type BuzzPriceMetadata struct {
	BuzzAmount       int64
	BonusDescription string
}

// ParseBuzzPriceMetadata narrows raw price metadata to its buzz annotation.
// Prices without a buzz amount, or with one that does not parse as a
// positive integer, grant nothing; the malformed case is logged.
func ParseBuzzPriceMetadata(metadata map[string]string) (*BuzzPriceMetadata, bool) {
	raw, ok := metadata[metadataKeyBuzzAmount]
	if !ok || raw == "" {
		return nil, false
	}

	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || amount <= 0 {
		log.Printf("[Payment] ignoring unparseable buzzAmount %q", raw)
		return nil, false
	}

	return &BuzzPriceMetadata{
		BuzzAmount:       amount,
		BonusDescription: metadata[metadataKeyBonusDetail],
	}, true
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Marketplace constants. Price and lock duration are deliberately coupled:
// one currency unit buys one hour of protection.
var (
	// BasePrice is the starting price of every registry-seeded word.
	BasePrice = decimal.NewFromInt(1)

	// ClaimIncrement is added to a word's price on every successful claim.
	ClaimIncrement = decimal.NewFromInt(1)

	// CreationPrice is the flat fee for adding a new word to the registry.
	CreationPrice = decimal.NewFromInt(50)
)

const (
	MaxWordLength    = 100
	MaxNameLength    = 100
	MaxMessageLength = 140
)

// LockDuration derives the protection window from the amount paid.
func LockDuration(paid decimal.Decimal) time.Duration {
	hours, _ := paid.Float64()
	return time.Duration(hours * float64(time.Hour))
}

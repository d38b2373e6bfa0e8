package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ModerationStatus describes what a moderation collaborator decided about a
// word's owner message. It never participates in the claim algorithm.
type ModerationStatus string

const (
	ModerationUnset     ModerationStatus = "unset"
	ModerationApproved  ModerationStatus = "approved"
	ModerationRejected  ModerationStatus = "rejected"
	ModerationProtected ModerationStatus = "protected"
)

// WordState is the authoritative state of one word as held by the ledger.
// Price, owner and lock fields are only ever advanced by the claim path or
// the privileged admin reset.
type WordState struct {
	Text             string           `json:"text"`
	Price            decimal.Decimal  `json:"price"`
	OwnerName        *string          `json:"ownerName,omitempty"`
	OwnerMessage     *string          `json:"ownerMessage,omitempty"`
	LockoutEndsAt    *time.Time       `json:"lockoutEndsAt,omitempty"`
	ModerationStatus ModerationStatus `json:"moderationStatus"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// TransactionRecord is one immutable entry of the purchase log.
type TransactionRecord struct {
	ID            int64           `json:"id"`
	Word          string          `json:"word"`
	BuyerName     string          `json:"buyerName"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	Timestamp     time.Time       `json:"timestamp"`
	IsAdminAction bool            `json:"isAdminAction"`
}

// ClaimEvent is published after every successful claim so display
// collaborators can react without polling.
type ClaimEvent struct {
	ID            string          `json:"id"`
	Word          string          `json:"word"`
	BuyerName     string          `json:"buyerName"`
	Price         decimal.Decimal `json:"price"`
	LockoutEndsAt time.Time       `json:"lockoutEndsAt"`
	Timestamp     time.Time       `json:"timestamp"`
}

// IncomeStats summarizes real purchases; admin corrections are excluded.
type IncomeStats struct {
	TotalIncome       decimal.Decimal `json:"totalIncome"`
	TotalTransactions int64           `json:"totalTransactions"`
	TotalWords        int64           `json:"totalWords"`
	AvailableWords    int64           `json:"availableWords"`
}

// IsAvailable is the single availability predicate. A nil lockout or one at
// or before now means the word can be claimed; nothing re-derives this rule.
func IsAvailable(lockoutEndsAt *time.Time, now time.Time) bool {
	if lockoutEndsAt == nil {
		return true
	}
	return !now.Before(*lockoutEndsAt)
}

// Available reports whether the word itself can be claimed at now.
func (w WordState) Available(now time.Time) bool {
	return IsAvailable(w.LockoutEndsAt, now)
}

// NormalizeWord maps a user-supplied word to its canonical registry identity.
func NormalizeWord(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

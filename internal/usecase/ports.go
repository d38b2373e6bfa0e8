package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ittaigolde/spkkn-words/internal/domain"
)

// WordRepository defines the ledger operations. All writes serialize
// per-word inside the implementation.
type WordRepository interface {
	Get(ctx context.Context, text string) (domain.WordState, error)
	History(ctx context.Context, text string) ([]domain.TransactionRecord, error)
	Recent(ctx context.Context, limit int) ([]domain.TransactionRecord, error)
	ApplyClaim(ctx context.Context, text, buyerName, buyerMessage string, paid decimal.Decimal, now time.Time) (domain.WordState, domain.TransactionRecord, error)
	CreateWord(ctx context.Context, text, buyerName, buyerMessage string, paid decimal.Decimal, now time.Time) (domain.WordState, domain.TransactionRecord, error)
	AdminReset(ctx context.Context, text string, newPrice decimal.Decimal, ownerName, ownerMessage *string, now time.Time) (domain.WordState, domain.TransactionRecord, error)
	SetModerationStatus(ctx context.Context, text string, status domain.ModerationStatus, now time.Time) (domain.WordState, error)
	Stats(ctx context.Context, now time.Time) (domain.IncomeStats, error)
	LogView(ctx context.Context, text, viewerHash string, now time.Time) error
}

// PaymentConfirmation is the gate's answer for one captured payment.
// The amount is trusted as ground truth; nothing re-verifies it here.
type PaymentConfirmation struct {
	Reference string
	Word      string
	Amount    decimal.Decimal
}

// PaymentGate resolves an external payment reference. Confirming each
// payment exactly once is the gate's responsibility, not ours.
type PaymentGate interface {
	Confirm(ctx context.Context, reference string) (PaymentConfirmation, error)
}

// ContentPolicy is the moderation collaborator's pass/fail predicate.
// Implementations return domain.ContentRejectedError on failure.
type ContentPolicy interface {
	Check(text string) error
}

// ClaimNotifier publishes committed claims to display collaborators.
type ClaimNotifier interface {
	Publish(ctx context.Context, event domain.ClaimEvent) error
}

// WordCache accelerates the display read path. Never authoritative.
type WordCache interface {
	Get(text string) (domain.WordState, bool)
	Set(state domain.WordState)
	Invalidate(text string)
}

// ClaimMetrics records claim outcomes for monitoring.
type ClaimMetrics interface {
	ClaimCommitted(amount decimal.Decimal)
	ClaimRejected(reason string)
	WordCreated()
}

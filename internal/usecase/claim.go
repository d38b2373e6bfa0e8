package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/ittaigolde/spkkn-words/internal/domain"
)

var tracer = otel.Tracer("claim")

// ErrPaymentReferenceMismatch is returned when a payment confirmation
// references a different word than the one being claimed.
var ErrPaymentReferenceMismatch = fmt.Errorf("payment confirmation does not reference this word")

// ClaimInput is a validated request to transfer ownership of one word.
// ConfirmedAmount comes from the payment gate; ExpectedPrice is what the
// buyer was quoted.
type ClaimInput struct {
	Word            string
	BuyerName       string
	BuyerMessage    string
	ExpectedPrice   decimal.Decimal
	ConfirmedAmount decimal.Decimal
}

// PurchaseInput is a claim request still carrying its payment reference.
type PurchaseInput struct {
	Word             string
	BuyerName        string
	BuyerMessage     string
	ExpectedPrice    decimal.Decimal
	PaymentReference string
	IsNewWord        bool
}

// ClaimUsecase is the claim coordinator: it enforces request-shape
// invariants, price integrity and content policy, then delegates the atomic
// transition to the ledger. It is deliberately not idempotent per payment;
// deduplicating confirmations is the payment gate's job.
type ClaimUsecase struct {
	repo     WordRepository
	gate     PaymentGate
	policy   ContentPolicy
	notifier ClaimNotifier
	cache    WordCache
	metrics  ClaimMetrics
	now      func() time.Time
}

func NewClaimUsecase(
	repo WordRepository,
	gate PaymentGate,
	policy ContentPolicy,
	notifier ClaimNotifier,
	cache WordCache,
	metrics ClaimMetrics,
) *ClaimUsecase {
	return &ClaimUsecase{
		repo:     repo,
		gate:     gate,
		policy:   policy,
		notifier: notifier,
		cache:    cache,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Purchase resolves the payment reference through the gate and claims the
// word with the confirmed amount.
func (uc *ClaimUsecase) Purchase(ctx context.Context, input PurchaseInput) (domain.WordState, domain.TransactionRecord, error) {
	ctx, span := tracer.Start(ctx, "Claim.Usecase.Purchase")
	defer span.End()

	conf, err := uc.gate.Confirm(ctx, input.PaymentReference)
	if err != nil {
		span.RecordError(err)
		return domain.WordState{}, domain.TransactionRecord{}, errors.Wrap(err, "payment confirmation failed")
	}

	if domain.NormalizeWord(conf.Word) != domain.NormalizeWord(input.Word) {
		span.RecordError(ErrPaymentReferenceMismatch)
		return domain.WordState{}, domain.TransactionRecord{}, ErrPaymentReferenceMismatch
	}

	claim := ClaimInput{
		Word:            input.Word,
		BuyerName:       input.BuyerName,
		BuyerMessage:    input.BuyerMessage,
		ExpectedPrice:   input.ExpectedPrice,
		ConfirmedAmount: conf.Amount,
	}
	if input.IsNewWord {
		return uc.Create(ctx, claim)
	}
	return uc.Claim(ctx, claim)
}

// Claim attempts to transfer ownership of an existing word. On LockedError
// the caller must re-fetch current price before retrying; the coordinator
// never retries at a new price on the buyer's behalf.
func (uc *ClaimUsecase) Claim(ctx context.Context, input ClaimInput) (domain.WordState, domain.TransactionRecord, error) {
	ctx, span := tracer.Start(ctx, "Claim.Usecase.Claim")
	defer span.End()

	if err := uc.validate(input); err != nil {
		span.RecordError(err)
		uc.rejected(err)
		return domain.WordState{}, domain.TransactionRecord{}, err
	}

	state, record, err := uc.repo.ApplyClaim(
		ctx,
		input.Word,
		input.BuyerName,
		input.BuyerMessage,
		input.ConfirmedAmount,
		uc.now(),
	)
	if err != nil {
		span.RecordError(err)
		uc.rejected(err)
		return domain.WordState{}, domain.TransactionRecord{}, err
	}

	uc.committed(ctx, state, record, false)
	return state, record, nil
}

// Create registers a brand-new word for the flat creation fee.
func (uc *ClaimUsecase) Create(ctx context.Context, input ClaimInput) (domain.WordState, domain.TransactionRecord, error) {
	ctx, span := tracer.Start(ctx, "Claim.Usecase.Create")
	defer span.End()

	if err := uc.validate(input); err != nil {
		span.RecordError(err)
		uc.rejected(err)
		return domain.WordState{}, domain.TransactionRecord{}, err
	}

	state, record, err := uc.repo.CreateWord(
		ctx,
		input.Word,
		input.BuyerName,
		input.BuyerMessage,
		input.ConfirmedAmount,
		uc.now(),
	)
	if err != nil {
		span.RecordError(err)
		uc.rejected(err)
		return domain.WordState{}, domain.TransactionRecord{}, err
	}

	uc.committed(ctx, state, record, true)
	return state, record, nil
}

func (uc *ClaimUsecase) validate(input ClaimInput) error {
	word := domain.NormalizeWord(input.Word)
	if word == "" || len(word) > domain.MaxWordLength {
		return domain.ContentRejectedError{Reason: "word must be 1-100 characters"}
	}
	if input.BuyerName == "" || len(input.BuyerName) > domain.MaxNameLength {
		return domain.ContentRejectedError{Reason: "name must be 1-100 characters"}
	}
	if input.BuyerMessage == "" || len(input.BuyerMessage) > domain.MaxMessageLength {
		return domain.ContentRejectedError{Reason: "message must be 1-140 characters"}
	}

	// Price integrity: the buyer is only ever charged the amount they
	// agreed to. Never auto-adjust and proceed.
	if !input.ConfirmedAmount.Equal(input.ExpectedPrice) {
		return domain.PriceMismatchError{
			Expected:  input.ExpectedPrice,
			Confirmed: input.ConfirmedAmount,
		}
	}

	if err := uc.policy.Check(input.BuyerName); err != nil {
		return err
	}
	if err := uc.policy.Check(input.BuyerMessage); err != nil {
		return err
	}
	return nil
}

// committed runs after the ledger transaction is durable. Failures here are
// logged, never propagated: the claim stands.
func (uc *ClaimUsecase) committed(ctx context.Context, state domain.WordState, record domain.TransactionRecord, created bool) {
	if uc.cache != nil {
		uc.cache.Invalidate(state.Text)
	}

	if uc.metrics != nil {
		uc.metrics.ClaimCommitted(record.AmountPaid)
		if created {
			uc.metrics.WordCreated()
		}
	}

	if uc.notifier != nil {
		event := domain.ClaimEvent{
			ID:            uuid.New().String(),
			Word:          state.Text,
			BuyerName:     record.BuyerName,
			Price:         state.Price,
			LockoutEndsAt: *state.LockoutEndsAt,
			Timestamp:     record.Timestamp,
		}
		if err := uc.notifier.Publish(ctx, event); err != nil {
			slog.WarnContext(
				ctx, "failed to publish claim event",
				slog.String("error", err.Error()),
				slog.String("word", state.Text),
				slog.String("module", "claim"),
			)
		}
	}
}

func (uc *ClaimUsecase) rejected(err error) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.ClaimRejected(rejectionReason(err))
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrLocked):
		return "locked"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, domain.ErrPriceMismatch):
		return "price_mismatch"
	case errors.Is(err, domain.ErrContentRejected):
		return "content_rejected"
	default:
		return "storage"
	}
}

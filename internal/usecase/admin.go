package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/ittaigolde/spkkn-words/internal/domain"
)

var adminTracer = otel.Tracer("admin")

// ResetInput describes a privileged override of one word. A nil OwnerName
// clears ownership and the lock entirely.
type ResetInput struct {
	Word         string
	NewPrice     decimal.Decimal
	OwnerName    *string
	OwnerMessage *string
}

// AdminUsecase handles privileged operations. They bypass the claim
// derivations but still take the same per-word exclusive access, so an
// override can never race an in-flight claim.
type AdminUsecase struct {
	repo  WordRepository
	cache WordCache
	now   func() time.Time
}

func NewAdminUsecase(repo WordRepository, cache WordCache) *AdminUsecase {
	return &AdminUsecase{
		repo:  repo,
		cache: cache,
		now:   time.Now,
	}
}

// Reset overrides a word's price and ownership.
func (uc *AdminUsecase) Reset(ctx context.Context, input ResetInput) (domain.WordState, domain.TransactionRecord, error) {
	ctx, span := adminTracer.Start(ctx, "Admin.Usecase.Reset")
	defer span.End()

	if input.NewPrice.IsNegative() {
		err := domain.ContentRejectedError{Reason: "price must not be negative"}
		span.RecordError(err)
		return domain.WordState{}, domain.TransactionRecord{}, err
	}

	state, record, err := uc.repo.AdminReset(
		ctx,
		input.Word,
		input.NewPrice,
		input.OwnerName,
		input.OwnerMessage,
		uc.now(),
	)
	if err != nil {
		span.RecordError(err)
		return domain.WordState{}, domain.TransactionRecord{}, err
	}

	if uc.cache != nil {
		uc.cache.Invalidate(state.Text)
	}
	return state, record, nil
}

// SetModeration records a moderation verdict for a word's owner message.
func (uc *AdminUsecase) SetModeration(ctx context.Context, word string, status domain.ModerationStatus) (domain.WordState, error) {
	ctx, span := adminTracer.Start(ctx, "Admin.Usecase.SetModeration")
	defer span.End()

	switch status {
	case domain.ModerationUnset, domain.ModerationApproved,
		domain.ModerationRejected, domain.ModerationProtected:
	default:
		err := domain.ContentRejectedError{Reason: "unknown moderation status"}
		span.RecordError(err)
		return domain.WordState{}, err
	}

	state, err := uc.repo.SetModerationStatus(ctx, word, status, uc.now())
	if err != nil {
		span.RecordError(err)
		return domain.WordState{}, err
	}

	if uc.cache != nil {
		uc.cache.Invalidate(state.Text)
	}
	return state, nil
}

// Stats summarizes revenue and registry availability.
func (uc *AdminUsecase) Stats(ctx context.Context) (domain.IncomeStats, error) {
	return uc.repo.Stats(ctx, uc.now())
}

package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/ittaigolde/spkkn-words/internal/domain"
)

// WordDetail is the display-path view of one word: latest state, the
// availability verdict at read time, and the purchase history.
type WordDetail struct {
	domain.WordState
	Available        bool                       `json:"available"`
	TransactionCount int                        `json:"transactionCount"`
	Transactions     []domain.TransactionRecord `json:"transactions"`
}

// WordUsecase serves reads. Snapshots it returns are advisory: they are
// never authorization to write, and the cache in front of the ledger only
// accelerates display.
type WordUsecase struct {
	repo  WordRepository
	cache WordCache
	now   func() time.Time
}

func NewWordUsecase(repo WordRepository, cache WordCache) *WordUsecase {
	return &WordUsecase{
		repo:  repo,
		cache: cache,
		now:   time.Now,
	}
}

// Get returns one word with its history. A non-empty viewerHash logs a view
// for analytics without blocking the response.
func (uc *WordUsecase) Get(ctx context.Context, text string, viewerHash string) (WordDetail, error) {
	text = domain.NormalizeWord(text)
	now := uc.now()

	state, cached := uc.cachedState(text)
	if !cached {
		var err error
		state, err = uc.repo.Get(ctx, text)
		if err != nil {
			return WordDetail{}, err
		}
		if uc.cache != nil {
			uc.cache.Set(state)
		}
	}

	history, err := uc.repo.History(ctx, text)
	if err != nil {
		return WordDetail{}, err
	}

	if viewerHash != "" {
		go func() {
			if err := uc.repo.LogView(context.Background(), text, viewerHash, now); err != nil {
				slog.Warn(
					"failed to log word view",
					slog.String("error", err.Error()),
					slog.String("word", text),
					slog.String("module", "word"),
				)
			}
		}()
	}

	return WordDetail{
		WordState:        state,
		Available:        state.Available(now),
		TransactionCount: len(history),
		Transactions:     history,
	}, nil
}

// Availability reports whether the word can be claimed right now, and at
// what price. Advisory only; the authoritative check happens under the
// ledger's exclusive access.
func (uc *WordUsecase) Availability(ctx context.Context, text string) (domain.WordState, bool, error) {
	state, err := uc.repo.Get(ctx, domain.NormalizeWord(text))
	if err != nil {
		return domain.WordState{}, false, err
	}
	return state, state.Available(uc.now()), nil
}

// Recent returns the latest purchases across the registry.
func (uc *WordUsecase) Recent(ctx context.Context, limit int) ([]domain.TransactionRecord, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return uc.repo.Recent(ctx, limit)
}

func (uc *WordUsecase) cachedState(text string) (domain.WordState, bool) {
	if uc.cache == nil {
		return domain.WordState{}, false
	}
	return uc.cache.Get(text)
}

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ittaigolde/spkkn-words/internal/domain"
)

func TestWordGetFillsCache(t *testing.T) {
	repo := &mockWordRepo{
		state: claimedState("ocean", 2),
		history: []domain.TransactionRecord{
			{Word: "ocean", BuyerName: "alice", AmountPaid: decimal.NewFromInt(1)},
		},
	}
	cache := newMockCache()
	uc := NewWordUsecase(repo, cache)
	uc.now = fixedNow

	detail, err := uc.Get(context.Background(), "Ocean", "")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if detail.Text != "ocean" {
		t.Fatalf("expected normalized text, got %q", detail.Text)
	}
	if detail.Available {
		t.Fatal("a word locked past now must not be available")
	}
	if detail.TransactionCount != 1 || len(detail.Transactions) != 1 {
		t.Fatalf("expected history in detail, got %+v", detail)
	}
	if _, ok := cache.Get("ocean"); !ok {
		t.Fatal("expected state to be cached after a read")
	}
}

func TestWordGetServesFromCache(t *testing.T) {
	repo := &mockWordRepo{err: domain.StorageError{Err: errors.New("db down")}}
	cache := newMockCache()
	cache.Set(claimedState("ocean", 2))
	uc := NewWordUsecase(repo, cache)
	uc.now = fixedNow

	detail, err := uc.Get(context.Background(), "ocean", "")
	if err != nil {
		t.Fatalf("cached read should not hit Get: %v", err)
	}
	if !detail.Price.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected cached price 2 got %s", detail.Price)
	}
}

func TestWordGetUnknown(t *testing.T) {
	repo := &mockWordRepo{err: domain.NotFoundError{Word: "ghost"}}
	uc := NewWordUsecase(repo, newMockCache())
	uc.now = fixedNow

	_, err := uc.Get(context.Background(), "ghost", "")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestWordGetLogsViewAsync(t *testing.T) {
	repo := &mockWordRepo{state: claimedState("ocean", 2)}
	uc := NewWordUsecase(repo, nil)
	uc.now = fixedNow

	_, err := uc.Get(context.Background(), "ocean", "cafebabe")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		repo.mu.Lock()
		logged := len(repo.loggedViews)
		repo.mu.Unlock()
		if logged == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expected view to be logged")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWordAvailability(t *testing.T) {
	repo := &mockWordRepo{state: domain.WordState{
		Text:  "ocean",
		Price: decimal.NewFromInt(1),
	}}
	uc := NewWordUsecase(repo, nil)
	uc.now = fixedNow

	state, available, err := uc.Availability(context.Background(), "ocean")
	if err != nil {
		t.Fatalf("availability failed: %v", err)
	}
	if !available {
		t.Fatal("an unlocked word must be available")
	}
	if !state.Price.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected price 1 got %s", state.Price)
	}
}

func TestWordRecentClampsLimit(t *testing.T) {
	repo := &mockWordRepo{}
	uc := NewWordUsecase(repo, nil)

	if _, err := uc.Recent(context.Background(), 0); err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if repo.recentLimit != 10 {
		t.Fatalf("expected default limit 10 got %d", repo.recentLimit)
	}

	if _, err := uc.Recent(context.Background(), 5000); err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if repo.recentLimit != 100 {
		t.Fatalf("expected clamped limit 100 got %d", repo.recentLimit)
	}
}

package cache

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ittaigolde/spkkn-words/internal/domain"
)

func TestMemoryWordCache(t *testing.T) {
	c := NewMemoryWordCache()

	if _, ok := c.Get("ocean"); ok {
		t.Fatal("expected a miss on a cold cache")
	}

	owner := "alice"
	lockout := time.Now().Add(time.Hour)
	state := domain.WordState{
		Text:          "ocean",
		Price:         decimal.NewFromInt(2),
		OwnerName:     &owner,
		LockoutEndsAt: &lockout,
	}
	c.Set(state)

	got, ok := c.Get("ocean")
	if !ok {
		t.Fatal("expected a hit after Set")
	}
	if !got.Price.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected price 2 got %s", got.Price)
	}

	c.Invalidate("ocean")
	if _, ok := c.Get("ocean"); ok {
		t.Fatal("expected a miss after invalidation")
	}
}

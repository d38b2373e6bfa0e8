package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestIsAvailable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	if !IsAvailable(nil, now) {
		t.Fatal("a word with no lockout is available")
	}
	if !IsAvailable(&past, now) {
		t.Fatal("an expired lockout no longer blocks")
	}
	if !IsAvailable(&now, now) {
		t.Fatal("a lockout ending exactly now no longer blocks")
	}
	if IsAvailable(&future, now) {
		t.Fatal("an active lockout blocks")
	}
}

func TestNormalizeWord(t *testing.T) {
	cases := map[string]string{
		"Ocean":    "ocean",
		"  OCEAN ": "ocean",
		"ocean":    "ocean",
		"  ":       "",
	}
	for in, want := range cases {
		if got := NormalizeWord(in); got != want {
			t.Fatalf("NormalizeWord(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLockDuration(t *testing.T) {
	cases := []struct {
		paid decimal.Decimal
		want time.Duration
	}{
		{decimal.NewFromInt(1), time.Hour},
		{decimal.NewFromInt(5), 5 * time.Hour},
		{decimal.NewFromFloat(2.5), 2*time.Hour + 30*time.Minute},
		{decimal.NewFromInt(50), 50 * time.Hour},
	}
	for _, tc := range cases {
		if got := LockDuration(tc.paid); got != tc.want {
			t.Fatalf("LockDuration(%s) = %v, want %v", tc.paid, got, tc.want)
		}
	}
}

package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// NotFoundError means the word does not exist in the registry. Callers
// should offer the creation path instead; nothing auto-creates.
type NotFoundError struct {
	Word string
}

func (e NotFoundError) Error() string {
	if e.Word == "" {
		return "word not found"
	}
	return fmt.Sprintf("word %q not found", e.Word)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// LockedError means the availability re-check failed under exclusive access.
// Recoverable: the caller must re-fetch current state before retrying.
type LockedError struct {
	Word  string
	Until time.Time
}

func (e LockedError) Error() string {
	if e.Until.IsZero() {
		return fmt.Sprintf("word %q is currently locked", e.Word)
	}
	return fmt.Sprintf("word %q is locked until %s", e.Word, e.Until.UTC().Format(time.RFC3339))
}

func (e LockedError) Is(target error) bool {
	_, ok := target.(LockedError)
	if ok {
		return true
	}
	_, ok = target.(*LockedError)
	return ok
}

// AlreadyExistsError means the creation path collided with an existing word.
type AlreadyExistsError struct {
	Word string
}

func (e AlreadyExistsError) Error() string {
	return fmt.Sprintf("word %q already exists", e.Word)
}

func (e AlreadyExistsError) Is(target error) bool {
	_, ok := target.(AlreadyExistsError)
	if ok {
		return true
	}
	_, ok = target.(*AlreadyExistsError)
	return ok
}

// PriceMismatchError means the confirmed payment does not equal the price
// the buyer agreed to. Always fatal to the attempt; the amount is never
// silently adjusted.
type PriceMismatchError struct {
	Expected  decimal.Decimal
	Confirmed decimal.Decimal
}

func (e PriceMismatchError) Error() string {
	return fmt.Sprintf("confirmed payment %s does not match expected price %s",
		e.Confirmed.StringFixed(2), e.Expected.StringFixed(2))
}

func (e PriceMismatchError) Is(target error) bool {
	_, ok := target.(PriceMismatchError)
	if ok {
		return true
	}
	_, ok = target.(*PriceMismatchError)
	return ok
}

// ContentRejectedError means the buyer name or message failed content policy.
// Recoverable with edited content.
type ContentRejectedError struct {
	Reason string
}

func (e ContentRejectedError) Error() string {
	if e.Reason == "" {
		return "content rejected"
	}
	return fmt.Sprintf("content rejected: %s", e.Reason)
}

func (e ContentRejectedError) Is(target error) bool {
	_, ok := target.(ContentRejectedError)
	if ok {
		return true
	}
	_, ok = target.(*ContentRejectedError)
	return ok
}

// StorageError wraps unexpected storage-layer failures. Never disguised as
// LockedError; callers may retry the whole request.
type StorageError struct {
	Err error
}

func (e StorageError) Error() string {
	if e.Err == nil {
		return "storage failure"
	}
	return fmt.Sprintf("storage failure: %s", e.Err.Error())
}

func (e StorageError) Unwrap() error {
	return e.Err
}

func (e StorageError) Is(target error) bool {
	_, ok := target.(StorageError)
	if ok {
		return true
	}
	_, ok = target.(*StorageError)
	return ok
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound        = NotFoundError{}
	ErrLocked          = LockedError{}
	ErrAlreadyExists   = AlreadyExistsError{}
	ErrPriceMismatch   = PriceMismatchError{}
	ErrContentRejected = ContentRejectedError{}
	ErrStorage         = StorageError{}
)

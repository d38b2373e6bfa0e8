package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Word is one registrable term. Text is immutable once created; price, owner
// and lockout advance only through the ledger's claim path or admin reset.
type Word struct {
	ID               int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	Text             string          `json:"text" gorm:"type:varchar(100);not null;index:idx_words_text,unique"`
	Price            decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null;index:idx_words_price"`
	OwnerName        *string         `json:"ownerName" gorm:"type:varchar(100)"`
	OwnerMessage     *string         `json:"ownerMessage" gorm:"type:varchar(140)"`
	LockoutEndsAt    *time.Time      `json:"lockoutEndsAt" gorm:"index:idx_words_lockout_ends_at"`
	ModerationStatus string          `json:"moderationStatus" gorm:"type:varchar(20);not null;default:unset;index:idx_words_moderation_status"`
	CreatedAt        time.Time       `json:"createdAt" gorm:"not null"`
	UpdatedAt        time.Time       `json:"updatedAt" gorm:"not null"`
}

// Transaction is the append-only purchase log. Rows are written exactly once
// by the ledger and never mutated.
type Transaction struct {
	ID            int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	WordID        int64           `json:"wordID" gorm:"not null;index:idx_transactions_word_id"`
	Word          Word            `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	BuyerName     string          `json:"buyerName" gorm:"type:varchar(100);not null"`
	PricePaid     decimal.Decimal `json:"pricePaid" gorm:"type:numeric(10,2);not null"`
	Timestamp     time.Time       `json:"timestamp" gorm:"not null;index:idx_transactions_timestamp"`
	IsAdminAction bool            `json:"isAdminAction" gorm:"not null;default:false"`
}

// WordView is a display-path analytics row. The viewer address is stored as
// an xxh3 hash, never raw.
type WordView struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	WordID     int64     `json:"wordID" gorm:"not null;index:idx_word_views_word_id"`
	Word       Word      `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	ViewerHash string    `json:"viewerHash" gorm:"type:varchar(20)"`
	Timestamp  time.Time `json:"timestamp" gorm:"not null;index:idx_word_views_timestamp"`
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ittaigolde/spkkn-words/internal/domain"
	"github.com/ittaigolde/spkkn-words/internal/infra/database/models"
)

const adminResetBuyer = "ADMIN_RESET"

// WordRepository is the ownership ledger. The (price, owner, lockout) triple
// is only ever advanced here, under per-word exclusive access: a keyed mutex
// serializes claims in-process and a row lock covers concurrent processes on
// postgres. Word update and transaction append commit as one unit.
type WordRepository struct {
	db    *gorm.DB
	locks *keyedMutex
}

func NewWordRepository(db *gorm.DB) *WordRepository {
	return &WordRepository{
		db:    db,
		locks: newKeyedMutex(),
	}
}

// forUpdate adds a SELECT ... FOR UPDATE clause where the dialect supports
// it. The keyed mutex carries per-identity exclusion on sqlite.
func (r *WordRepository) forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Get returns the latest committed state of one word.
func (r *WordRepository) Get(ctx context.Context, text string) (domain.WordState, error) {
	text = domain.NormalizeWord(text)

	var word models.Word
	err := r.db.WithContext(ctx).
		Where("text = ?", text).
		Take(&word).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.WordState{}, domain.NotFoundError{Word: text}
		}
		return domain.WordState{}, domain.StorageError{Err: err}
	}

	return wordState(word), nil
}

// ApplyClaim is the only ordinary mutating entry point. It re-checks
// availability and price agreement under exclusive access, advances the
// price by the fixed increment, derives the lockout from the amount paid
// and appends the transaction row atomically.
func (r *WordRepository) ApplyClaim(
	ctx context.Context,
	text string,
	buyerName string,
	buyerMessage string,
	paid decimal.Decimal,
	now time.Time,
) (domain.WordState, domain.TransactionRecord, error) {
	text = domain.NormalizeWord(text)

	unlock := r.locks.Lock(text)
	defer unlock()

	var state domain.WordState
	var record domain.TransactionRecord

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var word models.Word
		if err := r.forUpdate(tx).Where("text = ?", text).Take(&word).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError{Word: text}
			}
			return domain.StorageError{Err: err}
		}

		if !domain.IsAvailable(word.LockoutEndsAt, now) {
			return domain.LockedError{Word: text, Until: *word.LockoutEndsAt}
		}

		// Re-checked under the row lock so a payment confirmed against a
		// stale quote can never buy at an outdated price.
		if !paid.Equal(word.Price) {
			return domain.PriceMismatchError{Expected: word.Price, Confirmed: paid}
		}

		newPrice := word.Price.Add(domain.ClaimIncrement)
		lockoutEndsAt := now.Add(domain.LockDuration(paid))

		updates := map[string]any{
			"price":           newPrice,
			"owner_name":      buyerName,
			"owner_message":   buyerMessage,
			"lockout_ends_at": lockoutEndsAt,
			"updated_at":      now,
		}
		if err := tx.Model(&models.Word{}).Where("id = ?", word.ID).Updates(updates).Error; err != nil {
			return domain.StorageError{Err: err}
		}

		trx := models.Transaction{
			WordID:    word.ID,
			BuyerName: buyerName,
			PricePaid: paid,
			Timestamp: now,
		}
		if err := tx.Create(&trx).Error; err != nil {
			return domain.StorageError{Err: err}
		}

		word.Price = newPrice
		word.OwnerName = &buyerName
		word.OwnerMessage = &buyerMessage
		word.LockoutEndsAt = &lockoutEndsAt
		word.UpdatedAt = now

		state = wordState(word)
		record = transactionRecord(trx, text)
		return nil
	})
	if err != nil {
		return domain.WordState{}, domain.TransactionRecord{}, err
	}

	return state, record, nil
}

// CreateWord registers a brand-new word for the flat creation fee. The new
// word starts at the flat price and is locked for the derived duration.
func (r *WordRepository) CreateWord(
	ctx context.Context,
	text string,
	buyerName string,
	buyerMessage string,
	paid decimal.Decimal,
	now time.Time,
) (domain.WordState, domain.TransactionRecord, error) {
	text = domain.NormalizeWord(text)

	unlock := r.locks.Lock(text)
	defer unlock()

	var state domain.WordState
	var record domain.TransactionRecord

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Word
		err := r.forUpdate(tx).Where("text = ?", text).Take(&existing).Error
		if err == nil {
			return domain.AlreadyExistsError{Word: text}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.StorageError{Err: err}
		}

		if !paid.Equal(domain.CreationPrice) {
			return domain.PriceMismatchError{Expected: domain.CreationPrice, Confirmed: paid}
		}

		lockoutEndsAt := now.Add(domain.LockDuration(paid))
		word := models.Word{
			Text:             text,
			Price:            domain.CreationPrice,
			OwnerName:        &buyerName,
			OwnerMessage:     &buyerMessage,
			LockoutEndsAt:    &lockoutEndsAt,
			ModerationStatus: string(domain.ModerationUnset),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.Create(&word).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.AlreadyExistsError{Word: text}
			}
			return domain.StorageError{Err: err}
		}

		trx := models.Transaction{
			WordID:    word.ID,
			BuyerName: buyerName,
			PricePaid: paid,
			Timestamp: now,
		}
		if err := tx.Create(&trx).Error; err != nil {
			return domain.StorageError{Err: err}
		}

		state = wordState(word)
		record = transactionRecord(trx, text)
		return nil
	})
	if err != nil {
		return domain.WordState{}, domain.TransactionRecord{}, err
	}

	return state, record, nil
}

// AdminReset is the privileged override. It bypasses the price increment and
// payment-derived lockout but still holds the same per-word exclusive access
// so it cannot race an ordinary claim. The transaction row is flagged so
// reporting excludes it from revenue.
func (r *WordRepository) AdminReset(
	ctx context.Context,
	text string,
	newPrice decimal.Decimal,
	ownerName *string,
	ownerMessage *string,
	now time.Time,
) (domain.WordState, domain.TransactionRecord, error) {
	text = domain.NormalizeWord(text)

	unlock := r.locks.Lock(text)
	defer unlock()

	var state domain.WordState
	var record domain.TransactionRecord

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var word models.Word
		if err := r.forUpdate(tx).Where("text = ?", text).Take(&word).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError{Word: text}
			}
			return domain.StorageError{Err: err}
		}

		updates := map[string]any{
			"price":      newPrice,
			"updated_at": now,
		}
		word.Price = newPrice
		word.UpdatedAt = now

		if ownerName != nil {
			lockoutEndsAt := now.Add(domain.LockDuration(newPrice))
			updates["owner_name"] = *ownerName
			updates["owner_message"] = ownerMessage
			updates["lockout_ends_at"] = lockoutEndsAt
			word.OwnerName = ownerName
			word.OwnerMessage = ownerMessage
			word.LockoutEndsAt = &lockoutEndsAt
		} else {
			updates["owner_name"] = nil
			updates["owner_message"] = nil
			updates["lockout_ends_at"] = nil
			word.OwnerName = nil
			word.OwnerMessage = nil
			word.LockoutEndsAt = nil
		}

		if err := tx.Model(&models.Word{}).Where("id = ?", word.ID).Updates(updates).Error; err != nil {
			return domain.StorageError{Err: err}
		}

		buyer := adminResetBuyer
		if ownerName != nil {
			buyer = *ownerName
		}
		trx := models.Transaction{
			WordID:        word.ID,
			BuyerName:     buyer,
			PricePaid:     newPrice,
			Timestamp:     now,
			IsAdminAction: true,
		}
		if err := tx.Create(&trx).Error; err != nil {
			return domain.StorageError{Err: err}
		}

		state = wordState(word)
		record = transactionRecord(trx, text)
		return nil
	})
	if err != nil {
		return domain.WordState{}, domain.TransactionRecord{}, err
	}

	return state, record, nil
}

// SetModerationStatus records a moderation verdict. A rejected verdict blanks
// the owner message unless the word is protected; price, owner and lockout
// are untouched.
func (r *WordRepository) SetModerationStatus(
	ctx context.Context,
	text string,
	status domain.ModerationStatus,
	now time.Time,
) (domain.WordState, error) {
	text = domain.NormalizeWord(text)

	unlock := r.locks.Lock(text)
	defer unlock()

	var state domain.WordState

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var word models.Word
		if err := r.forUpdate(tx).Where("text = ?", text).Take(&word).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError{Word: text}
			}
			return domain.StorageError{Err: err}
		}

		prior := domain.ModerationStatus(word.ModerationStatus)

		updates := map[string]any{
			"moderation_status": string(status),
			"updated_at":        now,
		}
		word.ModerationStatus = string(status)
		word.UpdatedAt = now

		if status == domain.ModerationRejected && prior != domain.ModerationProtected {
			updates["owner_message"] = nil
			word.OwnerMessage = nil
		}

		if err := tx.Model(&models.Word{}).Where("id = ?", word.ID).Updates(updates).Error; err != nil {
			return domain.StorageError{Err: err}
		}

		state = wordState(word)
		return nil
	})
	if err != nil {
		return domain.WordState{}, err
	}

	return state, nil
}

// History returns the transaction log of one word, newest first.
func (r *WordRepository) History(ctx context.Context, text string) ([]domain.TransactionRecord, error) {
	text = domain.NormalizeWord(text)

	var word models.Word
	err := r.db.WithContext(ctx).Where("text = ?", text).Take(&word).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Word: text}
		}
		return nil, domain.StorageError{Err: err}
	}

	var rows []models.Transaction
	err = r.db.WithContext(ctx).
		Where("word_id = ?", word.ID).
		Order("timestamp DESC").
		Find(&rows).Error
	if err != nil {
		return nil, domain.StorageError{Err: err}
	}

	records := make([]domain.TransactionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, transactionRecord(row, text))
	}
	return records, nil
}

// Recent returns the latest real purchases across all words.
func (r *WordRepository) Recent(ctx context.Context, limit int) ([]domain.TransactionRecord, error) {
	var rows []models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Word").
		Where("is_admin_action = ?", false).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, domain.StorageError{Err: err}
	}

	records := make([]domain.TransactionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, transactionRecord(row, row.Word.Text))
	}
	return records, nil
}

// Seed inserts registry words at the base price, skipping ones that already
// exist. Returns the number of rows actually inserted.
func (r *WordRepository) Seed(ctx context.Context, words []string, now time.Time) (int64, error) {
	seen := make(map[string]struct{}, len(words))
	rows := make([]models.Word, 0, len(words))
	for _, w := range words {
		text := domain.NormalizeWord(w)
		if text == "" || len(text) > MaxSeedWordLength {
			continue
		}
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		rows = append(rows, models.Word{
			Text:             text,
			Price:            domain.BasePrice,
			ModerationStatus: string(domain.ModerationUnset),
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "text"}},
			DoNothing: true,
		}).
		CreateInBatches(&rows, seedBatchSize)
	if result.Error != nil {
		return 0, domain.StorageError{Err: result.Error}
	}

	return result.RowsAffected, nil
}

// Snapshot returns the full registry and purchase log, ordered the way they
// were written. Used by the CLI to archive state before a factory reset.
func (r *WordRepository) Snapshot(ctx context.Context) ([]domain.WordState, []domain.TransactionRecord, error) {
	var words []models.Word
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&words).Error; err != nil {
		return nil, nil, domain.StorageError{Err: err}
	}

	var rows []models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Word").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, nil, domain.StorageError{Err: err}
	}

	states := make([]domain.WordState, 0, len(words))
	for _, w := range words {
		states = append(states, wordState(w))
	}
	records := make([]domain.TransactionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, transactionRecord(row, row.Word.Text))
	}
	return states, records, nil
}

// FactoryReset wipes the registry, the purchase log and the view log in one
// transaction. There is no undo beyond a prior Snapshot.
func (r *WordRepository) FactoryReset(ctx context.Context) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.WordView{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.Word{}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return domain.StorageError{Err: err}
	}
	return nil
}

// Stats summarizes revenue and registry availability for reporting.
// Admin corrections are excluded from the income figures.
func (r *WordRepository) Stats(ctx context.Context, now time.Time) (domain.IncomeStats, error) {
	var stats domain.IncomeStats

	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("is_admin_action = ?", false).
		Select("COALESCE(SUM(price_paid), 0)").
		Scan(&stats.TotalIncome).Error
	if err != nil {
		return domain.IncomeStats{}, domain.StorageError{Err: err}
	}

	err = r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("is_admin_action = ?", false).
		Count(&stats.TotalTransactions).Error
	if err != nil {
		return domain.IncomeStats{}, domain.StorageError{Err: err}
	}

	err = r.db.WithContext(ctx).
		Model(&models.Word{}).
		Count(&stats.TotalWords).Error
	if err != nil {
		return domain.IncomeStats{}, domain.StorageError{Err: err}
	}

	err = r.db.WithContext(ctx).
		Model(&models.Word{}).
		Where("lockout_ends_at IS NULL OR lockout_ends_at <= ?", now).
		Count(&stats.AvailableWords).Error
	if err != nil {
		return domain.IncomeStats{}, domain.StorageError{Err: err}
	}

	return stats, nil
}

// LogView appends one display-path analytics row.
func (r *WordRepository) LogView(ctx context.Context, text string, viewerHash string, now time.Time) error {
	text = domain.NormalizeWord(text)

	var word models.Word
	err := r.db.WithContext(ctx).Where("text = ?", text).Take(&word).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NotFoundError{Word: text}
		}
		return domain.StorageError{Err: err}
	}

	view := models.WordView{
		WordID:     word.ID,
		ViewerHash: viewerHash,
		Timestamp:  now,
	}
	if err := r.db.WithContext(ctx).Create(&view).Error; err != nil {
		return domain.StorageError{Err: err}
	}
	return nil
}

const (
	seedBatchSize     = 1000
	MaxSeedWordLength = 100
)

func wordState(m models.Word) domain.WordState {
	status := domain.ModerationStatus(m.ModerationStatus)
	if status == "" {
		status = domain.ModerationUnset
	}
	return domain.WordState{
		Text:             m.Text,
		Price:            m.Price,
		OwnerName:        m.OwnerName,
		OwnerMessage:     m.OwnerMessage,
		LockoutEndsAt:    m.LockoutEndsAt,
		ModerationStatus: status,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func transactionRecord(m models.Transaction, text string) domain.TransactionRecord {
	return domain.TransactionRecord{
		ID:            m.ID,
		Word:          text,
		BuyerName:     m.BuyerName,
		AmountPaid:    m.PricePaid,
		Timestamp:     m.Timestamp,
		IsAdminAction: m.IsAdminAction,
	}
}

package ledger

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the ledger store. Every balance mutation goes through it, and
// each mutating method supplies its own serialization point (conditional
// update or unique constraint) instead of read-modify-write.
type Repository interface {
	GetBalance(userID string) (*Balance, error)
	// EnsureBalance creates the balance row with the given grant if absent,
	// along with a single signup-bonus ledger entry. Reports whether this call
	// created the row.
	EnsureBalance(userID string, grant int) (*Balance, bool, error)
	// DebitBalance atomically subtracts amount if the balance covers it and
	// returns the remaining credits.
	DebitBalance(userID string, amount int) (int, error)
	// CreditWithKey appends a credit entry under the idempotency key and
	// increments the balance in one database transaction. A key conflict means
	// the entry was settled before; the balance is left untouched and
	// alreadyProcessed is true.
	CreditWithKey(userID string, amount int, description, idempotencyKey string) (remaining int, alreadyProcessed bool, err error)
	// AppendTransaction writes a non-authoritative audit entry.
	AppendTransaction(transaction *Transaction) error
	WasSettled(userID, orderID string) (bool, error)
	ListTransactions(userID string, limit, offset int) ([]*Transaction, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetBalance(userID string) (*Balance, error) {
	var balanceModel CreditBalanceModel
	if err := r.db.Where("user_id = ?", userID).First(&balanceModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toBalanceEntity(&balanceModel), nil
}

func (r *gormRepository) EnsureBalance(userID string, grant int) (*Balance, bool, error) {
	created := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		balanceModel := CreditBalanceModel{
			ID:      uuid.New().String(),
			UserID:  userID,
			Credits: grant,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(&balanceModel)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the insert race or the row already existed; the winner
			// owns the signup grant.
			return nil
		}

		created = true
		key := SignupBonusKey
		bonus := CreditTransactionModel{
			ID:             uuid.New().String(),
			UserID:         userID,
			Amount:         grant,
			Description:    SignupBonusDescription,
			IdempotencyKey: &key,
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&bonus).Error
	})
	if err != nil {
		return nil, false, err
	}

	balance, err := r.GetBalance(userID)
	if err != nil {
		return nil, false, err
	}
	return balance, created, nil
}

func (r *gormRepository) DebitBalance(userID string, amount int) (int, error) {
	res := r.db.Model(&CreditBalanceModel{}).
		Where("user_id = ? AND credits >= ?", userID, amount).
		Update("credits", gorm.Expr("credits - ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		// Either no balance row, or the guard rejected the spend.
		var count int64
		if err := r.db.Model(&CreditBalanceModel{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, ErrUserNotFound
		}
		return 0, ErrInsufficientCredits
	}

	balance, err := r.GetBalance(userID)
	if err != nil {
		return 0, err
	}
	return balance.Credits, nil
}

func (r *gormRepository) CreditWithKey(userID string, amount int, description, idempotencyKey string) (int, bool, error) {
	alreadyProcessed := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		key := idempotencyKey
		entry := CreditTransactionModel{
			ID:             uuid.New().String(),
			UserID:         userID,
			Amount:         amount,
			Description:    description,
			IdempotencyKey: &key,
		}
		if err := tx.Create(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				alreadyProcessed = true
				return nil
			}
			return err
		}

		res := tx.Model(&CreditBalanceModel{}).
			Where("user_id = ?", userID).
			Update("credits", gorm.Expr("credits + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// No balance row to credit; roll the entry back.
			return ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}

	balance, err := r.GetBalance(userID)
	if err != nil {
		return 0, false, err
	}
	return balance.Credits, alreadyProcessed, nil
}

func (r *gormRepository) AppendTransaction(transaction *Transaction) error {
	transactionModel := toTransactionModel(transaction)
	if transactionModel.ID == "" {
		transactionModel.ID = uuid.New().String()
	}
	if err := r.db.Create(transactionModel).Error; err != nil {
		return err
	}
	*transaction = *toTransactionEntity(transactionModel)
	return nil
}

func (r *gormRepository) WasSettled(userID, orderID string) (bool, error) {
	var count int64
	err := r.db.Model(&CreditTransactionModel{}).
		Where("user_id = ? AND idempotency_key = ?", userID, orderID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormRepository) ListTransactions(userID string, limit, offset int) ([]*Transaction, error) {
	var transactionModels []CreditTransactionModel
	query := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&transactionModels).Error; err != nil {
		return nil, err
	}

	transactions := make([]*Transaction, len(transactionModels))
	for i := range transactionModels {
		transactions[i] = toTransactionEntity(&transactionModels[i])
	}
	return transactions, nil
}

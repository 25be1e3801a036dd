package services

import (
	"context"
	"errors"

	"plated-rewards/models"
	"plated-rewards/utils"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CoinResult is returned by AddCoins.
type CoinResult struct {
	Coins       int64  `json:"coins"`
	CoinsGained int64  `json:"coins_gained"`
	Transaction string `json:"transaction_id"`
}

// LedgerService owns the coin transaction log and the denormalized balance.
type LedgerService struct {
	DB  *gorm.DB
	Log *zap.SugaredLogger
}

func NewLedgerService(db *gorm.DB, log *zap.SugaredLogger) *LedgerService {
	return &LedgerService{DB: db, Log: utils.OrNop(log)}
}

// AddCoins appends a transaction and credits the balance in one database transaction.
func (s *LedgerService) AddCoins(ctx context.Context, userID string, amount int64, reason models.CoinReason, meta models.CoinMetadata) (*CoinResult, error) {
	if err := validateID("user_id", userID); err != nil {
		return nil, err
	}

	var res *CoinResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = creditCoins(tx, userID, amount, reason, meta)
		return err
	})
	if err != nil {
		return nil, storeErr("add coins", err)
	}

	CoinsAwardedTotal.WithLabelValues(string(reason)).Add(float64(amount))
	s.Log.Infow("coins credited",
		"user_id", userID, "delta", amount, "new_coins", res.Coins, "reason", reason)
	return res, nil
}

// GetBalance returns the denormalized coin balance; zero when the user has no record.
func (s *LedgerService) GetBalance(ctx context.Context, userID string) (int64, error) {
	if err := validateID("user_id", userID); err != nil {
		return 0, err
	}
	row, err := loadStats(s.DB.WithContext(ctx), userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, storeErr("get balance", err)
	}
	return row.Coins, nil
}

// ListTransactions returns the user's ledger, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, userID string, limit int) ([]models.CoinTransaction, error) {
	if err := validateID("user_id", userID); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	var txns []models.CoinTransaction
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, storeErr("list transactions", err)
	}
	return txns, nil
}

// creditCoins must run inside a transaction. The log row and the balance are
// written together and the balance only moves by atomic increment.
func creditCoins(tx *gorm.DB, userID string, amount int64, reason models.CoinReason, meta models.CoinMetadata) (*CoinResult, error) {
	if amount <= 0 {
		return nil, invalidf("amount must be positive")
	}
	if !reason.Valid() {
		return nil, invalidf("unknown coin reason %q", reason)
	}
	if err := meta.Validate(reason); err != nil {
		return nil, invalidf("%v", err)
	}

	if err := ensureStats(tx, userID); err != nil {
		return nil, err
	}

	txn := models.CoinTransaction{
		UserID:   userID,
		Amount:   amount,
		Reason:   reason,
		Metadata: datatypes.NewJSONType(meta),
	}
	if err := tx.Create(&txn).Error; err != nil {
		return nil, err
	}

	if err := tx.Model(&models.UserGamification{}).
		Where("user_id = ?", userID).
		Update("coins", gorm.Expr("coins + ?", amount)).Error; err != nil {
		return nil, err
	}

	row, err := loadStats(tx, userID)
	if err != nil {
		return nil, err
	}
	return &CoinResult{Coins: row.Coins, CoinsGained: amount, Transaction: txn.ID}, nil
}

package services

import (
	"context"
	"errors"

	"plated-rewards/models"
	"plated-rewards/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// XPPerLevel is the flat amount of XP each level spans.
const XPPerLevel = 100

// LevelForXP returns floor(xp/100)+1. Level is never stored independently of XP.
func LevelForXP(xp int64) int {
	if xp < 0 {
		xp = 0
	}
	return int(xp/XPPerLevel) + 1
}

// XPResult is returned by AddExperience.
type XPResult struct {
	XP       int64 `json:"xp"`
	Level    int   `json:"level"`
	LevelUp  bool  `json:"level_up"`
	XPGained int64 `json:"xp_gained"`
}

type ProgressionService struct {
	DB  *gorm.DB
	Log *zap.SugaredLogger
}

func NewProgressionService(db *gorm.DB, log *zap.SugaredLogger) *ProgressionService {
	return &ProgressionService{DB: db, Log: utils.OrNop(log)}
}

// ensureStats creates a zeroed stats row for userID if none exists (idempotent).
func ensureStats(tx *gorm.DB, userID string) error {
	row := models.UserGamification{UserID: userID, Level: 1}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func loadStats(tx *gorm.DB, userID string) (*models.UserGamification, error) {
	var row models.UserGamification
	if err := tx.Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// GetUserGamificationState returns the user's stats, creating a zeroed record if absent.
func (s *ProgressionService) GetUserGamificationState(ctx context.Context, userID string) (*models.UserGamification, error) {
	if err := validateID("user_id", userID); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	row, err := loadStats(db, userID)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr("load stats", err)
	}

	if err := ensureStats(db, userID); err != nil {
		return nil, storeErr("create stats", err)
	}
	row, err = loadStats(db, userID)
	if err != nil {
		return nil, storeErr("load stats", err)
	}
	s.Log.Infow("gamification record created", "user_id", userID)
	return row, nil
}

// AddExperience atomically adds amount XP and recomputes the level.
func (s *ProgressionService) AddExperience(ctx context.Context, userID string, amount int64) (*XPResult, error) {
	if err := validateID("user_id", userID); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, invalidf("amount must be positive")
	}

	var res *XPResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = awardXP(tx, userID, amount)
		return err
	})
	if err != nil {
		return nil, storeErr("add experience", err)
	}

	recordXP(res)
	s.Log.Infow("xp awarded",
		"user_id", userID, "delta", amount, "new_xp", res.XP, "new_level", res.Level, "level_up", res.LevelUp)
	return res, nil
}

// awardXP must run inside a transaction. The increment is a single UPDATE so
// concurrent awards never lose each other; the level is then derived from the
// post-increment XP while the row lock is still held.
func awardXP(tx *gorm.DB, userID string, amount int64) (*XPResult, error) {
	if err := ensureStats(tx, userID); err != nil {
		return nil, err
	}
	if err := tx.Model(&models.UserGamification{}).
		Where("user_id = ?", userID).
		Update("xp", gorm.Expr("xp + ?", amount)).Error; err != nil {
		return nil, err
	}

	row, err := loadStats(tx, userID)
	if err != nil {
		return nil, err
	}
	prevLevel := row.Level
	newLevel := LevelForXP(row.XP)
	if newLevel != row.Level {
		if err := tx.Model(&models.UserGamification{}).
			Where("user_id = ?", userID).
			Update("level", newLevel).Error; err != nil {
			return nil, err
		}
	}

	return &XPResult{
		XP:       row.XP,
		Level:    newLevel,
		LevelUp:  newLevel > prevLevel,
		XPGained: amount,
	}, nil
}

func recordXP(res *XPResult) {
	XPAwardedTotal.Add(float64(res.XPGained))
	if res.LevelUp {
		LevelUpsTotal.Inc()
	}
}

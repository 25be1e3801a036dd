package services

import (
	"context"
	"time"

	"plated-rewards/models"
	"plated-rewards/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreakResult is returned by RecordActivity.
type StreakResult struct {
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
}

type StreakService struct {
	DB  *gorm.DB
	Log *zap.SugaredLogger
}

func NewStreakService(db *gorm.DB, log *zap.SugaredLogger) *StreakService {
	return &StreakService{DB: db, Log: utils.OrNop(log)}
}

// RecordActivity advances the user's daily streak for the calendar date of today.
// Calling it again on the same date changes nothing. A date earlier than the last
// recorded activity is rejected.
func (s *StreakService) RecordActivity(ctx context.Context, userID string, today time.Time) (*StreakResult, error) {
	if err := validateID("user_id", userID); err != nil {
		return nil, err
	}
	todayKey := models.DateKey(today)

	var (
		res        StreakResult
		transition string
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureStats(tx, userID); err != nil {
			return err
		}

		var row models.UserGamification
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&row).Error; err != nil {
			return err
		}

		current, longest := row.CurrentStreak, row.LongestStreak
		switch {
		case row.LastActivityDate == nil:
			current = 1
			transition = "started"
		default:
			diff, err := daysBetween(*row.LastActivityDate, todayKey)
			if err != nil {
				return err
			}
			switch {
			case diff < 0:
				return invalidf("activity date %s precedes last recorded activity %s", todayKey, *row.LastActivityDate)
			case diff == 0:
				res = StreakResult{CurrentStreak: current, LongestStreak: longest}
				transition = "unchanged"
				return nil
			case diff == 1:
				current++
				transition = "continued"
			default:
				current = 1
				transition = "reset"
			}
		}
		if current > longest {
			longest = current
		}

		res = StreakResult{CurrentStreak: current, LongestStreak: longest}
		return tx.Model(&models.UserGamification{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{
				"current_streak":     current,
				"longest_streak":     longest,
				"last_activity_date": todayKey,
			}).Error
	})
	if err != nil {
		return nil, storeErr("record activity", err)
	}

	StreakUpdatesTotal.WithLabelValues(transition).Inc()
	s.Log.Infow("streak updated",
		"user_id", userID, "date", todayKey, "transition", transition,
		"current_streak", res.CurrentStreak, "longest_streak", res.LongestStreak)
	return &res, nil
}

// daysBetween returns to-from in whole calendar days.
func daysBetween(from, to string) (int, error) {
	f, err := time.Parse(models.DateLayout, from)
	if err != nil {
		return 0, err
	}
	t, err := time.Parse(models.DateLayout, to)
	if err != nil {
		return 0, err
	}
	return int(t.Sub(f).Hours() / 24), nil
}

package services

import (
	"context"
	"errors"

	"plated-rewards/models"

	"gorm.io/gorm"
)

// StreakSummary is the streak block of RewardsSummary.
type StreakSummary struct {
	CurrentDays  int     `json:"currentDays"`
	FreezeTokens int     `json:"freezeTokens"`
	NextCutoff   *string `json:"nextCutoff"`
}

// RewardsSummary is the compact wallet/progress view for one user.
type RewardsSummary struct {
	XP          int64          `json:"xp"`
	Level       int            `json:"level"`
	NextLevelXP int64          `json:"nextLevelXp"`
	Coins       int64          `json:"coins"`
	Streak      StreakSummary  `json:"streak"`
	Badges      []models.Badge `json:"badges"`
}

// GetRewardsSummary reads the user's stats and badges. A user without a stats
// row gets the zero summary; no row is created.
func (s *ProgressionService) GetRewardsSummary(ctx context.Context, userID string, badges *BadgeService) (*RewardsSummary, error) {
	if err := validateID("user_id", userID); err != nil {
		return nil, err
	}

	summary := &RewardsSummary{Level: 1, NextLevelXP: XPPerLevel, Badges: []models.Badge{}}
	row, err := loadStats(s.DB.WithContext(ctx), userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return summary, nil
	}
	if err != nil {
		return nil, storeErr("load stats", err)
	}

	summary.XP = row.XP
	summary.Level = row.Level
	summary.NextLevelXP = int64(row.Level) * XPPerLevel
	summary.Coins = row.Coins
	summary.Streak = StreakSummary{
		CurrentDays:  row.CurrentStreak,
		FreezeTokens: row.FreezeTokens,
		NextCutoff:   row.LastActivityDate,
	}

	if badges != nil {
		earned, err := badges.ListUserBadges(ctx, userID)
		if err != nil {
			return nil, err
		}
		summary.Badges = earned
	}
	return summary, nil
}

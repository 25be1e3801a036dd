package models

import (
	"time"
)

// DateLayout is the calendar-date format used for streak and chaos-schedule keys.
const DateLayout = "2006-01-02"

// DateKey formats t as a calendar date in t's own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// UserGamification holds per-user reward state (denormalized for fast reads).
// Level is always derived from XP on every XP write.
type UserGamification struct {
	UserID string `gorm:"primaryKey;type:varchar(64)" json:"user_id"`

	// Core progression
	XP    int64 `json:"xp" gorm:"not null;default:0"`
	Level int   `json:"level" gorm:"not null;default:1"`
	Coins int64 `json:"coins" gorm:"not null;default:0"`

	// Streaks
	CurrentStreak    int     `json:"current_streak" gorm:"not null;default:0"`
	LongestStreak    int     `json:"longest_streak" gorm:"not null;default:0"`
	LastActivityDate *string `json:"last_activity_date" gorm:"type:varchar(10)"`
	FreezeTokens     int     `json:"freeze_tokens" gorm:"not null;default:0"` // reserved for streak protection

	Timestamps
}

func (UserGamification) TableName() string {
	return "user_gamification"
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Badge: static catalog entry (seeded from the embedded catalog)
type Badge struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Code        string    `gorm:"uniqueIndex;not null" json:"code"` // e.g., "FIRST_COOK", "STREAK_7"
	Name        string    `gorm:"not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IconEmoji   string    `gorm:"size:16" json:"icon_emoji"`
	Rarity      string    `gorm:"type:varchar(16);default:'common'" json:"rarity"` // common, rare, epic, legendary
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Badge) TableName() string {
	return "badges"
}

func (b *Badge) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// UserBadge: earned instance (many-to-many)
type UserBadge struct {
	ID       string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID   string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_badge,priority:1" json:"user_id"`
	BadgeID  string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_badge,priority:2" json:"badge_id"`
	EarnedAt time.Time `gorm:"autoCreateTime" json:"earned_at"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}

func (b *UserBadge) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Challenge is a time-boxed cooking challenge shown to users.
type Challenge struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	RewardCoins int64      `gorm:"not null;default:0" json:"reward_coins"`
	IsActive    bool       `gorm:"not null;default:true;index" json:"is_active"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Challenge) TableName() string {
	return "challenges"
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WeekKey formats t as an ISO week ("2025-W11"). Squad weekly points are
// only counted while the stored key matches the current week.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

type SquadRole string

const (
	SquadRoleLeader SquadRole = "leader"
	SquadRoleMember SquadRole = "member"
)

// Squad is a team of cooks pooling completion points.
type Squad struct {
	ID          string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string `gorm:"type:varchar(30);not null" json:"name"`
	Code        string `gorm:"type:varchar(6);uniqueIndex;not null" json:"code"`
	Description string `gorm:"type:text" json:"description"`
	CreatedBy   string `gorm:"type:varchar(64);not null" json:"created_by"`

	WeeklyPoints int64  `gorm:"not null;default:0" json:"weekly_points"`
	WeekKey      string `gorm:"type:varchar(8);index" json:"week_key"`
	TotalPoints  int64  `gorm:"not null;default:0" json:"total_points"`
	MemberCount  int    `gorm:"not null;default:0" json:"member_count"`

	Timestamps
}

func (Squad) TableName() string {
	return "squads"
}

func (s *Squad) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// SquadMember links a user to their squad. A user belongs to at most one squad.
type SquadMember struct {
	ID      string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SquadID string    `gorm:"type:varchar(36);not null;index" json:"squad_id"`
	UserID  string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"user_id"`
	Role    SquadRole `gorm:"type:varchar(16);not null;default:'member'" json:"role"`

	WeeklyContribution int64  `gorm:"not null;default:0" json:"weekly_contribution"`
	WeekKey            string `gorm:"type:varchar(8)" json:"week_key"`
	TotalContribution  int64  `gorm:"not null;default:0" json:"total_contribution"`

	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

func (SquadMember) TableName() string {
	return "squad_members"
}

func (m *SquadMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

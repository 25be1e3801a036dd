package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserProfile is a local snapshot of profile data used to render the cooked-it chain.
// Owned by the profile service; populated only by the profile sync worker.
type UserProfile struct {
	ID                string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ExternalUserID    string  `gorm:"type:varchar(64);uniqueIndex;not null" json:"external_user_id"` // the profile service's user id
	Username          string  `gorm:"index;not null" json:"username"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`
	FirstName         *string `json:"first_name,omitempty"`
	LastName          *string `json:"last_name,omitempty"`

	Timestamps
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

func (u *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

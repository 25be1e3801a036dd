package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SkillTrack is a themed recipe collection. Static catalog.
type SkillTrack struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Slug         string    `gorm:"uniqueIndex;not null" json:"slug"`
	Name         string    `gorm:"not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	Icon         string    `gorm:"size:16" json:"icon"`
	DisplayOrder int       `gorm:"not null;default:0;index" json:"display_order"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (SkillTrack) TableName() string {
	return "skill_tracks"
}

func (t *SkillTrack) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// SkillTrackRecipe is the many-to-many membership of recipes in tracks.
type SkillTrackRecipe struct {
	ID       string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TrackID  string `gorm:"type:varchar(36);not null;uniqueIndex:idx_track_recipe,priority:1" json:"track_id"`
	RecipeID string `gorm:"type:varchar(64);not null;uniqueIndex:idx_track_recipe,priority:2;index" json:"recipe_id"`
}

func (SkillTrackRecipe) TableName() string {
	return "skill_track_recipes"
}

func (r *SkillTrackRecipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// SkillTrackProgress counts a user's completions inside one track.
// CompletedAt is written once, when CompletedRecipes first reaches the threshold.
type SkillTrackProgress struct {
	ID               string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID           string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_progress_user_track,priority:1" json:"user_id"`
	TrackID          string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_progress_user_track,priority:2" json:"track_id"`
	CompletedRecipes int        `gorm:"not null;default:0" json:"completed_recipes"`
	CompletedAt      *time.Time `json:"completed_at"`

	Timestamps
}

func (SkillTrackProgress) TableName() string {
	return "skill_track_progress"
}

func (p *SkillTrackProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

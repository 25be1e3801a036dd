package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecipeCompletion records that a user cooked a recipe. One row per user and recipe.
type RecipeCompletion struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_completion_user_recipe,priority:1" json:"user_id"`
	RecipeID  string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_completion_user_recipe,priority:2;index" json:"recipe_id"`
	HasProof  bool      `gorm:"not null;default:false" json:"has_proof"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (RecipeCompletion) TableName() string {
	return "recipe_completions"
}

func (c *RecipeCompletion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// DailyIngredient is the Daily Chaos Ingredient for one calendar date.
type DailyIngredient struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Date       string    `gorm:"type:varchar(10);uniqueIndex;not null" json:"date"`
	Ingredient string    `gorm:"not null" json:"ingredient"`
	Multiplier float64   `gorm:"not null;default:1" json:"multiplier"`
	IconEmoji  string    `gorm:"size:16" json:"icon_emoji"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DailyIngredient) TableName() string {
	return "daily_ingredients"
}

func (d *DailyIngredient) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// RecipeIngredientTag links a recipe to a free-text ingredient for chaos matching.
type RecipeIngredientTag struct {
	ID         string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RecipeID   string `gorm:"type:varchar(64);index;not null" json:"recipe_id"`
	Ingredient string `gorm:"not null" json:"ingredient"`
}

func (RecipeIngredientTag) TableName() string {
	return "recipe_ingredient_tags"
}

func (r *RecipeIngredientTag) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Post is a read-only view of the post service's posts table.
// Only the columns needed to resolve a recipe's creator are mapped.
type Post struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID    string    `gorm:"type:varchar(64);index" json:"user_id"`
	PostType  string    `gorm:"type:varchar(32)" json:"post_type"`
	CreatedAt time.Time `json:"created_at"`
}

func (Post) TableName() string {
	return "posts"
}

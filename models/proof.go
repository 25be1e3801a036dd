package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProofStatus tracks the review state of a cook proof.
type ProofStatus string

const (
	ProofStatusPending  ProofStatus = "pending"
	ProofStatusVerified ProofStatus = "verified"
	ProofStatusRejected ProofStatus = "rejected"
)

// CookProof is a photo a user uploaded to show they cooked a recipe.
type CookProof struct {
	ID                string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID            string      `gorm:"type:varchar(64);not null;uniqueIndex:idx_proof_user_recipe,priority:1" json:"user_id"`
	RecipeID          string      `gorm:"type:varchar(64);not null;uniqueIndex:idx_proof_user_recipe,priority:2;index" json:"recipe_id"`
	ImageURL          string      `gorm:"type:text;not null" json:"image_url"`
	Note              *string     `gorm:"type:text" json:"note"`
	Status            ProofStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"verification_status"`
	VerificationScore *float64    `json:"verification_score"`
	CoinsAwarded      int64       `gorm:"not null;default:0" json:"coins_awarded"`

	Timestamps
}

func (CookProof) TableName() string {
	return "cook_proofs"
}

func (p *CookProof) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

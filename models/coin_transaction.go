package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CoinReason is the closed set of reasons a coin transaction can carry.
type CoinReason string

const (
	CoinReasonRecipeCompletion CoinReason = "recipe_completion"
	CoinReasonCreatorBonus     CoinReason = "creator_completion_bonus"
	CoinReasonTrackCompleted   CoinReason = "skill_track_completed"
	CoinReasonProofSubmitted   CoinReason = "proof_submitted"
	CoinReasonProofVerified    CoinReason = "proof_verified"
	CoinReasonManual           CoinReason = "manual"
)

// Valid reports whether r is one of the known reasons.
func (r CoinReason) Valid() bool {
	switch r {
	case CoinReasonRecipeCompletion, CoinReasonCreatorBonus, CoinReasonTrackCompleted,
		CoinReasonProofSubmitted, CoinReasonProofVerified, CoinReasonManual:
		return true
	}
	return false
}

// CoinMetadata is the structured payload stored alongside a transaction.
// Which fields are required depends on the reason, see Validate.
type CoinMetadata struct {
	RecipeID          string `json:"recipe_id,omitempty"`
	ChaosBonusApplied *bool  `json:"chaos_bonus_applied,omitempty"`
	FromUserID        string `json:"from_user_id,omitempty"`
	TrackID           string `json:"track_id,omitempty"`
	ProofID           string `json:"proof_id,omitempty"`
	Note              string `json:"note,omitempty"`
}

// Validate checks the metadata carries what reason r requires.
func (m CoinMetadata) Validate(r CoinReason) error {
	switch r {
	case CoinReasonRecipeCompletion:
		if m.RecipeID == "" || m.ChaosBonusApplied == nil {
			return fmt.Errorf("%s metadata needs recipe_id and chaos_bonus_applied", r)
		}
	case CoinReasonCreatorBonus:
		if m.RecipeID == "" || m.FromUserID == "" {
			return fmt.Errorf("%s metadata needs recipe_id and from_user_id", r)
		}
	case CoinReasonTrackCompleted:
		if m.TrackID == "" {
			return fmt.Errorf("%s metadata needs track_id", r)
		}
	case CoinReasonProofSubmitted, CoinReasonProofVerified:
		if m.ProofID == "" || m.RecipeID == "" {
			return fmt.Errorf("%s metadata needs proof_id and recipe_id", r)
		}
	case CoinReasonManual:
	default:
		return fmt.Errorf("unknown coin reason %q", r)
	}
	return nil
}

// CoinTransaction is an append-only ledger entry. Rows are never updated.
type CoinTransaction struct {
	ID        string                           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string                           `gorm:"type:varchar(64);index;not null" json:"user_id"`
	Amount    int64                            `gorm:"not null" json:"amount"`
	Reason    CoinReason                       `gorm:"type:varchar(32);not null;index" json:"reason"`
	Metadata  datatypes.JSONType[CoinMetadata] `json:"metadata"`
	CreatedAt time.Time                        `gorm:"autoCreateTime;index" json:"created_at"`
}

func (CoinTransaction) TableName() string {
	return "coin_transactions"
}

func (t *CoinTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// BeforeUpdate keeps the ledger append-only.
func (t *CoinTransaction) BeforeUpdate(tx *gorm.DB) error {
	return fmt.Errorf("coin transactions are immutable")
}

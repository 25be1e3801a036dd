package services

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"

	"plated-rewards/models"
	"plated-rewards/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// ProofSubmitBonus is paid when a proof photo is stored.
	ProofSubmitBonus = 5
	// ProofVerifiedBonus is paid on top when a reviewer verifies the proof.
	ProofVerifiedBonus = 10
	// recentProofLimit caps the proofs shown in ProofStats.
	recentProofLimit = 5

	defaultGalleryLimit = 20
	maxGalleryLimit     = 100
)

// ObjectStore persists uploaded images and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// ProofUpload is one SubmitProof request.
type ProofUpload struct {
	Image       io.Reader
	ContentType string
	Note        string
}

// ProofResult is returned by SubmitProof and VerifyProof.
type ProofResult struct {
	ProofID           string             `json:"proof_id"`
	Status            models.ProofStatus `json:"verification_status"`
	VerificationScore *float64           `json:"verification_score"`
	CoinsAwarded      int64              `json:"coins_awarded"`
}

// ProofStats summarizes completions and proofs for a recipe.
type ProofStats struct {
	RecipeID       string             `json:"recipe_id"`
	TotalCooks     int64              `json:"total_cooks"`
	WithProof      int64              `json:"with_proof"`
	VerifiedProofs int64              `json:"verified_proofs"`
	RecentProofs   []models.CookProof `json:"recent_proofs"`
}

// ProofPage is one page of a recipe's verified-proof gallery.
type ProofPage struct {
	Proofs  []models.CookProof `json:"proofs"`
	Total   int64              `json:"total"`
	HasMore bool               `json:"has_more"`
}

type ProofService struct {
	DB    *gorm.DB
	Log   *zap.SugaredLogger
	Store ObjectStore
}

func NewProofService(db *gorm.DB, log *zap.SugaredLogger, store ObjectStore) *ProofService {
	return &ProofService{DB: db, Log: utils.OrNop(log), Store: store}
}

// SubmitProof stores a photo for a recipe the user has completed and pays the
// submission bonus. One proof per user and recipe.
func (s *ProofService) SubmitProof(ctx context.Context, userID, recipeID string, up ProofUpload) (*ProofResult, error) {
	if err := validateID("user_id", userID); err != nil {
		return nil, err
	}
	if err := validateID("recipe_id", recipeID); err != nil {
		return nil, err
	}
	if up.Image == nil {
		return nil, invalidf("image is required for proof submission")
	}
	ext, err := imageExt(up.ContentType)
	if err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	var completed, proofs int64
	if err := db.Model(&models.RecipeCompletion{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&completed).Error; err != nil {
		return nil, storeErr("check completion", err)
	}
	if completed == 0 {
		return nil, errors.Join(ErrNotFound, errors.New("recipe has not been completed by this user"))
	}
	if err := db.Model(&models.CookProof{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&proofs).Error; err != nil {
		return nil, storeErr("check proof", err)
	}
	if proofs > 0 {
		return nil, errors.Join(ErrAlreadyExists, errors.New("proof already submitted"))
	}

	proofID := uuid.NewString()
	key := path.Join("proofs", recipeID, proofID+ext)
	url, err := s.Store.Put(ctx, key, up.Image, up.ContentType)
	if err != nil {
		return nil, storeErr("upload proof", err)
	}

	proof := models.CookProof{
		ID:           proofID,
		UserID:       userID,
		RecipeID:     recipeID,
		ImageURL:     url,
		Status:       models.ProofStatusPending,
		CoinsAwarded: ProofSubmitBonus,
	}
	if note := strings.TrimSpace(up.Note); note != "" {
		proof.Note = &note
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		insert := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&proof)
		if insert.Error != nil {
			return insert.Error
		}
		if insert.RowsAffected == 0 {
			return errors.Join(ErrAlreadyExists, errors.New("proof already submitted"))
		}
		if err := tx.Model(&models.RecipeCompletion{}).
			Where("user_id = ? AND recipe_id = ?", userID, recipeID).
			Update("has_proof", true).Error; err != nil {
			return err
		}
		_, err := creditCoins(tx, userID, ProofSubmitBonus, models.CoinReasonProofSubmitted,
			models.CoinMetadata{ProofID: proofID, RecipeID: recipeID})
		return err
	})
	if err != nil {
		return nil, storeErr("submit proof", err)
	}

	CoinsAwardedTotal.WithLabelValues(string(models.CoinReasonProofSubmitted)).Add(ProofSubmitBonus)
	s.Log.Infow("proof submitted",
		"user_id", userID, "recipe_id", recipeID, "proof_id", proofID, "coins", ProofSubmitBonus)
	return &ProofResult{ProofID: proofID, Status: proof.Status, CoinsAwarded: proof.CoinsAwarded}, nil
}

// VerifyProof records a reviewer's decision on a pending proof. Verification
// pays ProofVerifiedBonus; a proof that was already reviewed is AlreadyExists.
func (s *ProofService) VerifyProof(ctx context.Context, proofID string, verified bool, score *float64) (*ProofResult, error) {
	if _, err := uuid.Parse(proofID); err != nil {
		return nil, invalidf("proof_id must be a UUID")
	}
	if score != nil && (*score < 0 || *score > 1) {
		return nil, invalidf("verification_score must be between 0 and 1")
	}

	status := models.ProofStatusRejected
	if verified {
		status = models.ProofStatusVerified
	}

	var proof models.CookProof
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", proofID).First(&proof).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Join(ErrNotFound, errors.New("proof not found"))
			}
			return err
		}

		updates := map[string]any{"status": status, "verification_score": score}
		if verified {
			updates["coins_awarded"] = gorm.Expr("coins_awarded + ?", ProofVerifiedBonus)
		}
		flip := tx.Model(&models.CookProof{}).
			Where("id = ? AND status = ?", proofID, models.ProofStatusPending).
			Updates(updates)
		if flip.Error != nil {
			return flip.Error
		}
		if flip.RowsAffected == 0 {
			return errors.Join(ErrAlreadyExists, errors.New("proof already reviewed"))
		}

		if verified {
			if _, err := creditCoins(tx, proof.UserID, ProofVerifiedBonus, models.CoinReasonProofVerified,
				models.CoinMetadata{ProofID: proofID, RecipeID: proof.RecipeID}); err != nil {
				return err
			}
		}
		return tx.Where("id = ?", proofID).First(&proof).Error
	})
	if err != nil {
		return nil, storeErr("verify proof", err)
	}

	if verified {
		CoinsAwardedTotal.WithLabelValues(string(models.CoinReasonProofVerified)).Add(ProofVerifiedBonus)
	}
	s.Log.Infow("proof reviewed", "proof_id", proofID, "user_id", proof.UserID, "status", proof.Status)
	return &ProofResult{
		ProofID:           proof.ID,
		Status:            proof.Status,
		VerificationScore: proof.VerificationScore,
		CoinsAwarded:      proof.CoinsAwarded,
	}, nil
}

// GetProofStats counts completions and proofs for recipeID.
func (s *ProofService) GetProofStats(ctx context.Context, recipeID string) (*ProofStats, error) {
	if err := validateID("recipe_id", recipeID); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	stats := &ProofStats{RecipeID: recipeID, RecentProofs: []models.CookProof{}}

	if err := db.Model(&models.RecipeCompletion{}).Where("recipe_id = ?", recipeID).Count(&stats.TotalCooks).Error; err != nil {
		return nil, storeErr("count completions", err)
	}
	if err := db.Model(&models.CookProof{}).Where("recipe_id = ?", recipeID).Count(&stats.WithProof).Error; err != nil {
		return nil, storeErr("count proofs", err)
	}
	if err := db.Model(&models.CookProof{}).
		Where("recipe_id = ? AND status = ?", recipeID, models.ProofStatusVerified).
		Count(&stats.VerifiedProofs).Error; err != nil {
		return nil, storeErr("count verified proofs", err)
	}
	if err := db.Where("recipe_id = ? AND status = ?", recipeID, models.ProofStatusVerified).
		Order("created_at DESC").
		Limit(recentProofLimit).
		Find(&stats.RecentProofs).Error; err != nil {
		return nil, storeErr("list recent proofs", err)
	}
	return stats, nil
}

// ListVerifiedProofs pages through verified proofs for recipeID, newest first.
// A limit outside [1, 100] falls back to 20; a negative offset is treated as 0.
func (s *ProofService) ListVerifiedProofs(ctx context.Context, recipeID string, limit, offset int) (*ProofPage, error) {
	if err := validateID("recipe_id", recipeID); err != nil {
		return nil, err
	}
	if limit < 1 || limit > maxGalleryLimit {
		limit = defaultGalleryLimit
	}
	if offset < 0 {
		offset = 0
	}

	verified := s.DB.WithContext(ctx).Model(&models.CookProof{}).
		Where("recipe_id = ? AND status = ?", recipeID, models.ProofStatusVerified)

	page := &ProofPage{Proofs: []models.CookProof{}}
	if err := verified.Session(&gorm.Session{}).Count(&page.Total).Error; err != nil {
		return nil, storeErr("count verified proofs", err)
	}
	if err := verified.Session(&gorm.Session{}).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&page.Proofs).Error; err != nil {
		return nil, storeErr("list verified proofs", err)
	}
	page.HasMore = int64(offset+limit) < page.Total
	return page, nil
}

func imageExt(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", invalidf("invalid content type %q", contentType)
	}
	switch mediaType {
	case "image/jpeg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	}
	return "", invalidf("unsupported image type %q", mediaType)
}

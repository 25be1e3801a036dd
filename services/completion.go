package services

import (
	"context"
	"errors"
	"math"
	"time"

	"plated-rewards/models"
	"plated-rewards/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// BaseCompletionCoins is paid to the cook for every first completion.
	BaseCompletionCoins = 10
	// BaseCompletionXP is the XP for every first completion, before chaos.
	BaseCompletionXP = 15
	// CreatorCompletionBonus is paid to the recipe's creator when someone else cooks it.
	CreatorCompletionBonus = 5
	// CompletionChainLimit caps the cooked-it chain.
	CompletionChainLimit = 50
)

// RewardResult is returned by CompleteRecipe.
type RewardResult struct {
	Reward           int64          `json:"reward"`
	CreatorBonus     int64          `json:"creator_bonus"`
	ChaosBonus       int64          `json:"chaos_bonus"`
	XPGained         int64          `json:"xp_gained"`
	LevelUp          bool           `json:"level_up"`
	SquadPoints      int64          `json:"squad_points,omitempty"`
	Tracks           []TrackAdvance `json:"tracks,omitempty"`
	AlreadyCompleted bool           `json:"-"`
	Message          string         `json:"message,omitempty"`
}

// ChainEntry is one user in a recipe's cooked-it chain.
type ChainEntry struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// CompletionService turns "I cooked this recipe" into coins, XP, creator
// bonuses, squad points and skill-track progress. Squad points equal the XP gained.
type CompletionService struct {
	DB       *gorm.DB
	Log      *zap.SugaredLogger
	Chaos    *ChaosService
	Recipes  RecipeDirectory
	Profiles ProfileDirectory
	Now      func() time.Time
}

func NewCompletionService(db *gorm.DB, log *zap.SugaredLogger, chaos *ChaosService, recipes RecipeDirectory, profiles ProfileDirectory) *CompletionService {
	return &CompletionService{
		DB:       db,
		Log:      utils.OrNop(log),
		Chaos:    chaos,
		Recipes:  recipes,
		Profiles: profiles,
		Now:      time.Now,
	}
}

// CompleteRecipe records the user's first completion of recipeID on date today
// and pays every reward it triggers. A repeat completion returns a zero result
// with AlreadyCompleted set and writes nothing.
//
// Precondition: userID is the authenticated caller; the HTTP layer checks this.
func (s *CompletionService) CompleteRecipe(ctx context.Context, userID, recipeID string, today time.Time) (*RewardResult, error) {
	if err := validateID("user_id", userID); err != nil {
		return nil, err
	}
	if err := validateID("recipe_id", recipeID); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)

	// Cheap pre-check; the unique index below is what actually guards races.
	var existing int64
	if err := db.Model(&models.RecipeCompletion{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&existing).Error; err != nil {
		return nil, storeErr("check completion", err)
	}
	if existing > 0 {
		return s.alreadyCompleted(userID, recipeID), nil
	}

	// Collaborator reads happen before the write transaction opens.
	chaos, err := s.Chaos.ResolveChaosBonus(ctx, recipeID, today)
	if err != nil {
		return nil, err
	}
	creatorID, hasCreator, err := s.Recipes.GetRecipeOwner(ctx, recipeID)
	if err != nil {
		return nil, storeErr("get recipe owner", err)
	}

	chaosCoins, xpGain := int64(0), int64(BaseCompletionXP)
	if chaos.Active {
		chaosCoins = int64(math.Floor(BaseCompletionCoins * (chaos.Multiplier - 1)))
		xpGain = int64(math.Floor(BaseCompletionXP * chaos.Multiplier))
	}
	total := BaseCompletionCoins + chaosCoins
	now := s.Now()

	res := &RewardResult{Reward: total, ChaosBonus: chaosCoins, XPGained: xpGain}
	err = db.Transaction(func(tx *gorm.DB) error {
		completion := models.RecipeCompletion{UserID: userID, RecipeID: recipeID, HasProof: false}
		insert := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&completion)
		if insert.Error != nil {
			return insert.Error
		}
		if insert.RowsAffected == 0 {
			return errCompletionRace
		}

		applied := chaosCoins > 0
		if _, err := creditCoins(tx, userID, total, models.CoinReasonRecipeCompletion,
			models.CoinMetadata{RecipeID: recipeID, ChaosBonusApplied: &applied}); err != nil {
			return err
		}

		xp, err := awardXP(tx, userID, xpGain)
		if err != nil {
			return err
		}
		res.LevelUp = xp.LevelUp

		if hasCreator && creatorID != userID {
			if _, err := creditCoins(tx, creatorID, CreatorCompletionBonus, models.CoinReasonCreatorBonus,
				models.CoinMetadata{RecipeID: recipeID, FromUserID: userID}); err != nil {
				return err
			}
			res.CreatorBonus = CreatorCompletionBonus
		}

		inSquad, err := addSquadPoints(tx, userID, xpGain, today)
		if err != nil {
			return err
		}
		if inSquad {
			res.SquadPoints = xpGain
		}

		res.Tracks, err = advanceTracks(tx, userID, recipeID, now)
		return err
	})
	if errors.Is(err, errCompletionRace) {
		return s.alreadyCompleted(userID, recipeID), nil
	}
	if err != nil {
		RecipeCompletionsTotal.WithLabelValues("error").Inc()
		return nil, storeErr("complete recipe", err)
	}

	s.recordMetrics(res, chaos)
	s.Log.Infow("recipe completed",
		"user_id", userID, "recipe_id", recipeID, "reward", res.Reward, "chaos_bonus", res.ChaosBonus,
		"chaos_ingredient", chaos.Ingredient, "xp", res.XPGained, "level_up", res.LevelUp,
		"creator_id", creatorID, "creator_bonus", res.CreatorBonus)
	for _, t := range res.Tracks {
		if t.Completed {
			s.Log.Infow("skill track completed", "user_id", userID, "track_id", t.TrackID, "bonus", TrackCompletionBonus)
		} else {
			s.Log.Debugw("skill track progress", "user_id", userID, "track_id", t.TrackID,
				"completed_recipes", t.CompletedRecipes, "threshold", TrackCompletionThreshold)
		}
	}
	return res, nil
}

var errCompletionRace = errors.New("completion inserted concurrently")

func (s *CompletionService) alreadyCompleted(userID, recipeID string) *RewardResult {
	RecipeCompletionsTotal.WithLabelValues("already_completed").Inc()
	s.Log.Infow("recipe already completed", "user_id", userID, "recipe_id", recipeID)
	return &RewardResult{AlreadyCompleted: true, Message: "Already completed"}
}

func (s *CompletionService) recordMetrics(res *RewardResult, chaos ChaosBonus) {
	RecipeCompletionsTotal.WithLabelValues("completed").Inc()
	XPAwardedTotal.Add(float64(res.XPGained))
	if res.LevelUp {
		LevelUpsTotal.Inc()
	}
	if chaos.Active {
		ChaosBonusesTotal.Inc()
	}
	SquadPointsTotal.Add(float64(res.SquadPoints))
	CoinsAwardedTotal.WithLabelValues(string(models.CoinReasonRecipeCompletion)).Add(float64(res.Reward))
	if res.CreatorBonus > 0 {
		CoinsAwardedTotal.WithLabelValues(string(models.CoinReasonCreatorBonus)).Add(float64(res.CreatorBonus))
	}
	for _, t := range res.Tracks {
		if t.Completed {
			CoinsAwardedTotal.WithLabelValues(string(models.CoinReasonTrackCompleted)).Add(TrackCompletionBonus)
		}
	}
}

// ListCompletions returns the most recent completions of recipeID, oldest first,
// enriched with display profiles where known.
func (s *CompletionService) ListCompletions(ctx context.Context, recipeID string) ([]ChainEntry, error) {
	if err := validateID("recipe_id", recipeID); err != nil {
		return nil, err
	}

	var rows []models.RecipeCompletion
	if err := s.DB.WithContext(ctx).
		Where("recipe_id = ?", recipeID).
		Order("created_at DESC").
		Limit(CompletionChainLimit).
		Find(&rows).Error; err != nil {
		return nil, storeErr("list completions", err)
	}

	out := make([]ChainEntry, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		c := rows[i]
		entry := ChainEntry{UserID: c.UserID, Username: "Unknown User", CreatedAt: c.CreatedAt}
		if s.Profiles != nil {
			profile, err := s.Profiles.GetUser(ctx, c.UserID)
			if err != nil {
				s.Log.Warnw("profile lookup failed", "user_id", c.UserID, "error", err)
			} else if profile != nil {
				entry.Username = profile.Username
				entry.AvatarURL = profile.ProfilePictureURL
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

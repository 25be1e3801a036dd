package services

import (
	"context"
	"errors"
	"time"

	"plated-rewards/models"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

// RecipeDirectory resolves recipe facts owned by the post service.
type RecipeDirectory interface {
	// GetRecipeOwner returns the creator's user id, or ok=false when unknown.
	GetRecipeOwner(ctx context.Context, recipeID string) (userID string, ok bool, err error)
	GetIngredientTags(ctx context.Context, recipeID string) ([]string, error)
}

// IngredientSchedule returns the Daily Chaos Ingredient for a date key, or nil.
type IngredientSchedule interface {
	GetActiveDailyIngredient(ctx context.Context, date string) (*models.DailyIngredient, error)
}

// ProfileDirectory resolves display profiles. Not needed for reward correctness.
type ProfileDirectory interface {
	GetUser(ctx context.Context, userID string) (*models.UserProfile, error)
}

// GormRecipeDirectory reads posts and ingredient tags from the shared database.
type GormRecipeDirectory struct {
	DB *gorm.DB
}

func (d GormRecipeDirectory) GetRecipeOwner(ctx context.Context, recipeID string) (string, bool, error) {
	var post models.Post
	err := d.DB.WithContext(ctx).Select("id", "user_id").Where("id = ?", recipeID).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if post.UserID == "" {
		return "", false, nil
	}
	return post.UserID, true, nil
}

func (d GormRecipeDirectory) GetIngredientTags(ctx context.Context, recipeID string) ([]string, error) {
	var tags []string
	err := d.DB.WithContext(ctx).
		Model(&models.RecipeIngredientTag{}).
		Where("recipe_id = ?", recipeID).
		Pluck("ingredient", &tags).Error
	return tags, err
}

// GormIngredientSchedule reads daily_ingredients. When Cache is set, found rows
// are memoized; misses always go to the database so a late-seeded day shows up.
type GormIngredientSchedule struct {
	DB    *gorm.DB
	Cache *cache.Cache
}

func NewGormIngredientSchedule(db *gorm.DB, ttl time.Duration) *GormIngredientSchedule {
	s := &GormIngredientSchedule{DB: db}
	if ttl > 0 {
		s.Cache = cache.New(ttl, 2*ttl)
	}
	return s
}

func (s *GormIngredientSchedule) GetActiveDailyIngredient(ctx context.Context, date string) (*models.DailyIngredient, error) {
	if s.Cache != nil {
		if cached, found := s.Cache.Get(date); found {
			row := cached.(models.DailyIngredient)
			return &row, nil
		}
	}

	var row models.DailyIngredient
	err := s.DB.WithContext(ctx).Where("date = ?", date).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		s.Cache.Set(date, row, cache.DefaultExpiration)
	}
	return &row, nil
}

// GormProfileDirectory reads the local profile snapshot kept by the sync worker.
type GormProfileDirectory struct {
	DB *gorm.DB
}

func (d GormProfileDirectory) GetUser(ctx context.Context, userID string) (*models.UserProfile, error) {
	var u models.UserProfile
	err := d.DB.WithContext(ctx).Where("external_user_id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

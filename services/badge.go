package services

import (
	"context"

	"plated-rewards/models"

	"gorm.io/gorm"
)

type BadgeService struct {
	DB *gorm.DB
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{DB: db}
}

// ListBadges returns the whole badge catalog.
func (s *BadgeService) ListBadges(ctx context.Context) ([]models.Badge, error) {
	badges := []models.Badge{}
	if err := s.DB.WithContext(ctx).Order("code ASC").Find(&badges).Error; err != nil {
		return nil, storeErr("list badges", err)
	}
	return badges, nil
}

// ListUserBadges returns the badges userID has earned.
func (s *BadgeService) ListUserBadges(ctx context.Context, userID string) ([]models.Badge, error) {
	if err := validateID("user_id", userID); err != nil {
		return nil, err
	}
	badges := []models.Badge{}
	err := s.DB.WithContext(ctx).
		Joins("JOIN user_badges ON user_badges.badge_id = badges.id").
		Where("user_badges.user_id = ?", userID).
		Order("user_badges.earned_at ASC").
		Find(&badges).Error
	if err != nil {
		return nil, storeErr("list user badges", err)
	}
	return badges, nil
}

// ListActiveChallenges returns active challenges, newest first.
func (s *BadgeService) ListActiveChallenges(ctx context.Context) ([]models.Challenge, error) {
	challenges := []models.Challenge{}
	err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&challenges).Error
	if err != nil {
		return nil, storeErr("list challenges", err)
	}
	return challenges, nil
}

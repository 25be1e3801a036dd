package services

import (
	"context"
	"math"
	"strings"
	"time"

	"plated-rewards/models"
)

// MaxChaosMultiplier caps a scheduled multiplier. Rows outside [1, Max] are
// clamped when read.
const MaxChaosMultiplier = 10.0

// ChaosBonus is the resolved Daily Chaos Ingredient effect for one recipe.
type ChaosBonus struct {
	Active     bool    `json:"active"`
	Ingredient string  `json:"ingredient,omitempty"`
	Multiplier float64 `json:"multiplier"`
}

// DailyIngredientView is today's chaos ingredient as shown to clients.
type DailyIngredientView struct {
	Active     bool    `json:"active"`
	Ingredient string  `json:"ingredient,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty"`
	Date       string  `json:"date,omitempty"`
	IconEmoji  string  `json:"icon_emoji,omitempty"`
}

type ChaosService struct {
	Schedule IngredientSchedule
	Recipes  RecipeDirectory
}

func NewChaosService(schedule IngredientSchedule, recipes RecipeDirectory) *ChaosService {
	return &ChaosService{Schedule: schedule, Recipes: recipes}
}

// GetDailyIngredient returns the chaos ingredient scheduled for today's date.
func (s *ChaosService) GetDailyIngredient(ctx context.Context, today time.Time) (*DailyIngredientView, error) {
	row, err := s.Schedule.GetActiveDailyIngredient(ctx, models.DateKey(today))
	if err != nil {
		return nil, storeErr("get daily ingredient", err)
	}
	if row == nil {
		return &DailyIngredientView{Active: false}, nil
	}
	return &DailyIngredientView{
		Active:     true,
		Ingredient: row.Ingredient,
		Multiplier: clampMultiplier(row.Multiplier),
		Date:       row.Date,
		IconEmoji:  row.IconEmoji,
	}, nil
}

// ResolveChaosBonus reports whether any of the recipe's ingredient tags contains
// today's chaos ingredient (case-insensitive substring, so "egg" matches "eggplant").
func (s *ChaosService) ResolveChaosBonus(ctx context.Context, recipeID string, today time.Time) (ChaosBonus, error) {
	inactive := ChaosBonus{Multiplier: 1}

	daily, err := s.Schedule.GetActiveDailyIngredient(ctx, models.DateKey(today))
	if err != nil {
		return inactive, storeErr("get daily ingredient", err)
	}
	if daily == nil || strings.TrimSpace(daily.Ingredient) == "" {
		return inactive, nil
	}

	tags, err := s.Recipes.GetIngredientTags(ctx, recipeID)
	if err != nil {
		return inactive, storeErr("get ingredient tags", err)
	}
	if !ingredientMatches(daily.Ingredient, tags) {
		return inactive, nil
	}

	return ChaosBonus{Active: true, Ingredient: daily.Ingredient, Multiplier: clampMultiplier(daily.Multiplier)}, nil
}

func clampMultiplier(m float64) float64 {
	switch {
	case math.IsNaN(m) || m < 1:
		return 1
	case m > MaxChaosMultiplier:
		return MaxChaosMultiplier
	}
	return m
}

func ingredientMatches(ingredient string, tags []string) bool {
	needle := strings.ToLower(strings.TrimSpace(ingredient))
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

package services

import (
	"context"
	"time"

	"plated-rewards/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// TrackCompletionThreshold is how many recipes in a track complete it.
	TrackCompletionThreshold = 5
	// TrackCompletionBonus is the one-time coin reward for completing a track.
	TrackCompletionBonus = 50
)

// TrackView is one catalog track joined with a user's progress on it.
type TrackView struct {
	ID               string     `json:"id"`
	Slug             string     `json:"slug"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Icon             string     `json:"icon"`
	TotalRecipes     int64      `json:"totalRecipes"`
	CompletedRecipes int        `json:"completedRecipes"`
	CompletedAt      *time.Time `json:"completedAt"`
}

// TrackListing is the result of ListTracksWithProgress. Placeholder is true when
// the catalog is empty and Tracks holds the illustrative fallback set instead.
type TrackListing struct {
	Tracks      []TrackView `json:"tracks"`
	Placeholder bool        `json:"placeholder"`
}

// TrackAdvance describes what one completion did to one track.
type TrackAdvance struct {
	TrackID          string `json:"track_id"`
	CompletedRecipes int    `json:"completed_recipes"`
	Completed        bool   `json:"completed"`
}

type SkillTrackService struct {
	DB *gorm.DB
}

func NewSkillTrackService(db *gorm.DB) *SkillTrackService {
	return &SkillTrackService{DB: db}
}

var placeholderCompletedAt = time.Date(2025, 1, 15, 15, 0, 0, 0, time.UTC)

// placeholderTracks is what the UI renders before the catalog is provisioned.
var placeholderTracks = []TrackView{
	{
		ID:               "mock-microwave-master",
		Slug:             "microwave-master",
		Name:             "Microwave Master",
		Description:      "Master the art of microwave-only cooking with zero kitchen cleanup.",
		Icon:             "🔥",
		TotalRecipes:     10,
		CompletedRecipes: 3,
	},
	{
		ID:               "mock-five-ingredient-hero",
		Slug:             "five-ingredient-hero",
		Name:             "5-Ingredient Hero",
		Description:      "Flex your creativity when the pantry is almost empty.",
		Icon:             "🧠",
		TotalRecipes:     8,
		CompletedRecipes: 5,
		CompletedAt:      &placeholderCompletedAt,
	},
	{
		ID:               "mock-budget-pro",
		Slug:             "five-dollar-dinners",
		Name:             "$5 Dinner Pro",
		Description:      "Stack coins by cooking dinners that cost less than a latte.",
		Icon:             "💰",
		TotalRecipes:     7,
		CompletedRecipes: 2,
	},
	{
		ID:               "mock-late-night-noodles",
		Slug:             "late-night-noodles",
		Name:             "Late-Night Noodles",
		Description:      "Instant noodle glow-ups tailor-made for all-nighter study sessions.",
		Icon:             "🍜",
		TotalRecipes:     9,
		CompletedRecipes: 7,
	},
}

// ListTracksWithProgress joins every catalog track with its recipe count and the
// user's progress. Read-only.
func (s *SkillTrackService) ListTracksWithProgress(ctx context.Context, userID string) (*TrackListing, error) {
	if err := validateID("user_id", userID); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)

	var tracks []models.SkillTrack
	if err := db.Order("display_order ASC").Find(&tracks).Error; err != nil {
		return nil, storeErr("list tracks", err)
	}
	if len(tracks) == 0 {
		out := make([]TrackView, len(placeholderTracks))
		copy(out, placeholderTracks)
		return &TrackListing{Tracks: out, Placeholder: true}, nil
	}

	var counts []struct {
		TrackID string
		Total   int64
	}
	if err := db.Model(&models.SkillTrackRecipe{}).
		Select("track_id, COUNT(*) AS total").
		Group("track_id").
		Scan(&counts).Error; err != nil {
		return nil, storeErr("count track recipes", err)
	}
	totals := make(map[string]int64, len(counts))
	for _, c := range counts {
		totals[c.TrackID] = c.Total
	}

	var progress []models.SkillTrackProgress
	if err := db.Where("user_id = ?", userID).Find(&progress).Error; err != nil {
		return nil, storeErr("load track progress", err)
	}
	byTrack := make(map[string]models.SkillTrackProgress, len(progress))
	for _, p := range progress {
		byTrack[p.TrackID] = p
	}

	out := make([]TrackView, 0, len(tracks))
	for _, t := range tracks {
		v := TrackView{
			ID:           t.ID,
			Slug:         t.Slug,
			Name:         t.Name,
			Description:  t.Description,
			Icon:         t.Icon,
			TotalRecipes: totals[t.ID],
		}
		if p, ok := byTrack[t.ID]; ok {
			v.CompletedRecipes = p.CompletedRecipes
			v.CompletedAt = p.CompletedAt
		}
		out = append(out, v)
	}
	return &TrackListing{Tracks: out}, nil
}

// advanceTracks must run inside a transaction. It bumps the user's progress on
// every track containing recipeID and pays the completion bonus at most once per
// track: completed_at is set by a conditional UPDATE ... WHERE completed_at IS NULL,
// and only the writer that flips it grants coins.
func advanceTracks(tx *gorm.DB, userID, recipeID string, now time.Time) ([]TrackAdvance, error) {
	var trackIDs []string
	if err := tx.Model(&models.SkillTrackRecipe{}).
		Where("recipe_id = ?", recipeID).
		Order("track_id").
		Pluck("track_id", &trackIDs).Error; err != nil {
		return nil, err
	}

	advances := make([]TrackAdvance, 0, len(trackIDs))
	for _, trackID := range trackIDs {
		row := models.SkillTrackProgress{UserID: userID, TrackID: trackID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return nil, err
		}

		scope := tx.Model(&models.SkillTrackProgress{}).Where("user_id = ? AND track_id = ?", userID, trackID)
		if err := scope.Update("completed_recipes", gorm.Expr("completed_recipes + 1")).Error; err != nil {
			return nil, err
		}

		var progress models.SkillTrackProgress
		if err := tx.Where("user_id = ? AND track_id = ?", userID, trackID).First(&progress).Error; err != nil {
			return nil, err
		}

		adv := TrackAdvance{TrackID: trackID, CompletedRecipes: progress.CompletedRecipes}
		if progress.CompletedRecipes >= TrackCompletionThreshold && progress.CompletedAt == nil {
			flip := tx.Model(&models.SkillTrackProgress{}).
				Where("user_id = ? AND track_id = ? AND completed_at IS NULL", userID, trackID).
				Update("completed_at", now)
			if flip.Error != nil {
				return nil, flip.Error
			}
			if flip.RowsAffected == 1 {
				if _, err := creditCoins(tx, userID, TrackCompletionBonus, models.CoinReasonTrackCompleted,
					models.CoinMetadata{TrackID: trackID}); err != nil {
					return nil, err
				}
				adv.Completed = true
			}
		}
		advances = append(advances, adv)
	}
	return advances, nil
}

package testutil

import (
	"testing"
	"time"

	"plated-rewards/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Logger returns a sugared logger that writes through tb.
func Logger(tb testing.TB) *zap.SugaredLogger {
	tb.Helper()
	return zaptest.NewLogger(tb, zaptest.Level(zap.WarnLevel)).Sugar()
}

// DB opens a private in-memory SQLite database migrated with the production
// model list. The database is dropped when tb finishes.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

// Day returns midnight UTC of the given date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SeedRecipe inserts a post owned by ownerID tagged with the given ingredients.
func SeedRecipe(tb testing.TB, db *gorm.DB, recipeID, ownerID string, ingredients ...string) {
	tb.Helper()
	if err := db.Create(&models.Post{ID: recipeID, UserID: ownerID, PostType: "recipe"}).Error; err != nil {
		tb.Fatalf("seed post %s: %v", recipeID, err)
	}
	for _, ing := range ingredients {
		if err := db.Create(&models.RecipeIngredientTag{RecipeID: recipeID, Ingredient: ing}).Error; err != nil {
			tb.Fatalf("seed ingredient %s/%s: %v", recipeID, ing, err)
		}
	}
}

// SeedChaos schedules ingredient with multiplier on day.
func SeedChaos(tb testing.TB, db *gorm.DB, day time.Time, ingredient string, multiplier float64) {
	tb.Helper()
	row := models.DailyIngredient{Date: models.DateKey(day), Ingredient: ingredient, Multiplier: multiplier}
	if err := db.Create(&row).Error; err != nil {
		tb.Fatalf("seed chaos %s: %v", row.Date, err)
	}
}

// SeedTrack creates a skill track containing recipeIDs and returns its id.
func SeedTrack(tb testing.TB, db *gorm.DB, slug string, recipeIDs ...string) string {
	tb.Helper()
	track := models.SkillTrack{Slug: slug, Name: slug}
	if err := db.Create(&track).Error; err != nil {
		tb.Fatalf("seed track %s: %v", slug, err)
	}
	for _, id := range recipeIDs {
		if err := db.Create(&models.SkillTrackRecipe{TrackID: track.ID, RecipeID: id}).Error; err != nil {
			tb.Fatalf("seed track recipe %s/%s: %v", slug, id, err)
		}
	}
	return track.ID
}

package services

import (
	"testing"
	"time"

	"plated-rewards/models"
	"plated-rewards/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testDay = testutil.Day(2025, time.March, 10)

type engine struct {
	db          *gorm.DB
	progression *ProgressionService
	ledger      *LedgerService
	streak      *StreakService
	chaos       *ChaosService
	completions *CompletionService
	tracks      *SkillTrackService
	badges      *BadgeService
	squads      *SquadService
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	recipes := GormRecipeDirectory{DB: db}
	chaos := NewChaosService(NewGormIngredientSchedule(db, 0), recipes)
	completions := NewCompletionService(db, log, chaos, recipes, GormProfileDirectory{DB: db})
	completions.Now = func() time.Time { return testDay.Add(12 * time.Hour) }
	squads := NewSquadService(db, log, GormProfileDirectory{DB: db})
	squads.Now = completions.Now
	return &engine{
		db:          db,
		progression: NewProgressionService(db, log),
		ledger:      NewLedgerService(db, log),
		streak:      NewStreakService(db, log),
		chaos:       chaos,
		completions: completions,
		tracks:      NewSkillTrackService(db),
		badges:      NewBadgeService(db),
		squads:      squads,
	}
}

func (e *engine) stats(t *testing.T, userID string) models.UserGamification {
	t.Helper()
	var row models.UserGamification
	require.NoError(t, e.db.Where("user_id = ?", userID).First(&row).Error)
	return row
}

func (e *engine) txns(t *testing.T, userID string) []models.CoinTransaction {
	t.Helper()
	var rows []models.CoinTransaction
	require.NoError(t, e.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&rows).Error)
	return rows
}

func (e *engine) hasStats(t *testing.T, userID string) bool {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.UserGamification{}).Where("user_id = ?", userID).Count(&n).Error)
	return n > 0
}

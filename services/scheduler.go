// services/scheduler.go
package services

import (
	"context"
	"errors"
	"time"

	"plated-rewards/models"
	"plated-rewards/utils"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChaosScheduler keeps the Daily Chaos Ingredient table filled a few days ahead.
// It only ever inserts missing dates; a scheduled day is never rewritten.
type ChaosScheduler struct {
	DB       *gorm.DB
	Log      *zap.SugaredLogger
	Rotation []ChaosRotationEntry
	Days     int
	Now      func() time.Time
}

func NewChaosScheduler(db *gorm.DB, log *zap.SugaredLogger, rotation []ChaosRotationEntry, days int) *ChaosScheduler {
	return &ChaosScheduler{DB: db, Log: utils.OrNop(log), Rotation: rotation, Days: days, Now: time.Now}
}

// rotationEntry picks the rotation slot for a date by its day number, so the
// same date always maps to the same ingredient regardless of when seeding ran.
func (s *ChaosScheduler) rotationEntry(day time.Time) ChaosRotationEntry {
	n := int64(len(s.Rotation))
	idx := (day.Unix() / 86400) % n
	if idx < 0 {
		idx += n
	}
	return s.Rotation[idx]
}

// EnsureSchedule inserts a DailyIngredient for each of the Days dates starting
// at from that has none yet. Returns how many rows were created.
func (s *ChaosScheduler) EnsureSchedule(ctx context.Context, from time.Time) (int, error) {
	if len(s.Rotation) == 0 {
		return 0, errors.New("chaos rotation is empty")
	}
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)

	created := 0
	db := s.DB.WithContext(ctx)
	for i := 0; i < s.Days; i++ {
		day := start.AddDate(0, 0, i)
		entry := s.rotationEntry(day)
		row := models.DailyIngredient{
			Date:       models.DateKey(day),
			Ingredient: entry.Ingredient,
			Multiplier: entry.Multiplier,
			IconEmoji:  entry.IconEmoji,
		}
		res := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "date"}}, DoNothing: true}).Create(&row)
		if res.Error != nil {
			return created, res.Error
		}
		created += int(res.RowsAffected)
	}
	return created, nil
}

// Start runs EnsureSchedule once immediately and then daily shortly after midnight.
func (s *ChaosScheduler) Start(ctx context.Context) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
		gocron.NewTask(func() {
			n, err := s.EnsureSchedule(ctx, s.Now())
			if err != nil {
				s.Log.Errorw("chaos schedule top-up failed", "error", err)
				return
			}
			if n > 0 {
				s.Log.Infow("chaos schedule extended", "created", n, "days", s.Days)
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}

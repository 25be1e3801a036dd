package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	XPAwardedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plated_xp_awarded_total",
			Help: "Total experience points awarded",
		},
	)

	LevelUpsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plated_level_ups_total",
			Help: "Number of XP awards that raised a user's level",
		},
	)

	CoinsAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plated_coins_awarded_total",
			Help: "Total coins credited to users, by ledger reason",
		},
		[]string{"reason"},
	)

	RecipeCompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plated_recipe_completions_total",
			Help: "Recipe completion requests, by outcome",
		},
		[]string{"outcome"},
	)

	StreakUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plated_streak_updates_total",
			Help: "Streak state transitions",
		},
		[]string{"transition"},
	)

	ChaosBonusesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plated_chaos_bonuses_total",
			Help: "Completions that matched the Daily Chaos Ingredient",
		},
	)

	SquadPointsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plated_squad_points_total",
			Help: "Points credited to squads from recipe completions",
		},
	)
)

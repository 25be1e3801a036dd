// handlers/gamification_routes.go
package handlers

import (
	"time"

	"plated-rewards/middleware"
	"plated-rewards/models"
	"plated-rewards/services"

	"github.com/gofiber/fiber/v2"
)

// Services bundles the engine services the HTTP layer calls.
type Services struct {
	Progression *services.ProgressionService
	Ledger      *services.LedgerService
	Streak      *services.StreakService
	Chaos       *services.ChaosService
	Completions *services.CompletionService
	Tracks      *services.SkillTrackService
	Badges      *services.BadgeService
	Proofs      *services.ProofService
	Squads      *services.SquadService

	// Now returns the request time; the calendar date is taken in UTC.
	Now func() time.Time
}

func (s *Services) today() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

type amountRequest struct {
	Amount int64  `json:"amount"`
	Note   string `json:"note"`
}

// SetupRoutes mounts every engine route behind a single user-context check.
func SetupRoutes(app *fiber.App, svc *Services) {
	secured := app.Group("/", middleware.UserContextMiddleware())
	SetupGamificationRoutes(secured, svc)
	SetupProofRoutes(secured, svc)
	SetupSquadRoutes(secured, svc)
}

// SetupGamificationRoutes expects secured to already carry the user context.
func SetupGamificationRoutes(secured fiber.Router, svc *Services) {
	// Static paths are registered before /gamification/:user_id so they win.
	secured.Get("/gamification/daily-ingredient", func(c *fiber.Ctx) error {
		view, err := svc.Chaos.GetDailyIngredient(c.UserContext(), svc.today())
		if err != nil {
			return fail(c, "failed to get daily ingredient", err)
		}
		return c.JSON(view)
	})

	secured.Get("/gamification/skill-tracks", func(c *fiber.Ctx) error {
		listing, err := svc.Tracks.ListTracksWithProgress(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to list skill tracks", err)
		}
		return c.JSON(listing)
	})

	secured.Post("/gamification/recipes/:recipe_id/complete", func(c *fiber.Ctx) error {
		res, err := svc.Completions.CompleteRecipe(c.UserContext(), middleware.UserID(c), c.Params("recipe_id"), svc.today())
		if err != nil {
			return fail(c, "failed to complete recipe", err)
		}
		if res.AlreadyCompleted {
			return c.Status(fiber.StatusOK).JSON(res)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	secured.Get("/gamification/recipes/:recipe_id/completions", func(c *fiber.Ctx) error {
		chain, err := svc.Completions.ListCompletions(c.UserContext(), c.Params("recipe_id"))
		if err != nil {
			return fail(c, "failed to list completions", err)
		}
		return c.JSON(chain)
	})

	secured.Get("/gamification/:user_id", selfOnly(func(c *fiber.Ctx, userID string) error {
		stats, err := svc.Progression.GetUserGamificationState(c.UserContext(), userID)
		if err != nil {
			return fail(c, "failed to get gamification stats", err)
		}
		return c.JSON(stats)
	}))

	secured.Post("/gamification/:user_id/xp", selfOnly(func(c *fiber.Ctx, userID string) error {
		var req amountRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		res, err := svc.Progression.AddExperience(c.UserContext(), userID, req.Amount)
		if err != nil {
			return fail(c, "XP award failed", err)
		}
		return c.JSON(fiber.Map{
			"xp":        res.XP,
			"level":     res.Level,
			"level_up":  res.LevelUp,
			"xp_gained": res.XPGained,
		})
	}))

	secured.Post("/gamification/:user_id/coins", selfOnly(func(c *fiber.Ctx, userID string) error {
		var req amountRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		res, err := svc.Ledger.AddCoins(c.UserContext(), userID, req.Amount, models.CoinReasonManual,
			models.CoinMetadata{Note: req.Note})
		if err != nil {
			return fail(c, "coin award failed", err)
		}
		return c.JSON(fiber.Map{
			"coins":        res.Coins,
			"coins_gained": res.CoinsGained,
		})
	}))

	secured.Get("/gamification/:user_id/transactions", selfOnly(func(c *fiber.Ctx, userID string) error {
		balance, err := svc.Ledger.GetBalance(c.UserContext(), userID)
		if err != nil {
			return fail(c, "failed to get balance", err)
		}
		txns, err := svc.Ledger.ListTransactions(c.UserContext(), userID, c.QueryInt("limit", 50))
		if err != nil {
			return fail(c, "failed to list transactions", err)
		}
		return c.JSON(fiber.Map{
			"coins":        balance,
			"transactions": txns,
		})
	}))

	secured.Post("/gamification/:user_id/streak", selfOnly(func(c *fiber.Ctx, userID string) error {
		res, err := svc.Streak.RecordActivity(c.UserContext(), userID, svc.today())
		if err != nil {
			return fail(c, "failed to record activity", err)
		}
		return c.JSON(res)
	}))

	secured.Get("/gamification/:user_id/badges", selfOnly(func(c *fiber.Ctx, userID string) error {
		badges, err := svc.Badges.ListUserBadges(c.UserContext(), userID)
		if err != nil {
			return fail(c, "failed to get badges", err)
		}
		return c.JSON(badges)
	}))

	secured.Get("/badges", func(c *fiber.Ctx) error {
		badges, err := svc.Badges.ListBadges(c.UserContext())
		if err != nil {
			return fail(c, "failed to list badges", err)
		}
		return c.JSON(badges)
	})

	secured.Get("/challenges", func(c *fiber.Ctx) error {
		challenges, err := svc.Badges.ListActiveChallenges(c.UserContext())
		if err != nil {
			return fail(c, "failed to list challenges", err)
		}
		return c.JSON(challenges)
	})

	secured.Get("/rewards/summary", func(c *fiber.Ctx) error {
		summary, err := svc.Progression.GetRewardsSummary(c.UserContext(), middleware.UserID(c), svc.Badges)
		if err != nil {
			return fail(c, "failed to get rewards summary", err)
		}
		return c.JSON(summary)
	})
}

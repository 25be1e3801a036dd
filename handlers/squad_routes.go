// handlers/squad_routes.go
package handlers

import (
	"plated-rewards/middleware"

	"github.com/gofiber/fiber/v2"
)

type createSquadRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type joinSquadRequest struct {
	Code string `json:"code"`
}

func SetupSquadRoutes(secured fiber.Router, svc *Services) {
	secured.Get("/squads", func(c *fiber.Ctx) error {
		board, err := svc.Squads.Leaderboard(c.UserContext(), c.QueryInt("limit", 10))
		if err != nil {
			return fail(c, "failed to get squad leaderboard", err)
		}
		return c.JSON(fiber.Map{"squads": board})
	})

	secured.Post("/squads", func(c *fiber.Ctx) error {
		var req createSquadRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		squad, err := svc.Squads.CreateSquad(c.UserContext(), middleware.UserID(c), req.Name, req.Description)
		if err != nil {
			return fail(c, "failed to create squad", err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"squad":       squad,
			"invite_code": squad.Code,
		})
	})

	// Static paths before /squads/:squad_id.
	secured.Get("/squads/my", func(c *fiber.Ctx) error {
		detail, err := svc.Squads.GetMySquad(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to get squad", err)
		}
		return c.JSON(detail)
	})

	secured.Post("/squads/join", func(c *fiber.Ctx) error {
		var req joinSquadRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		squad, err := svc.Squads.JoinSquad(c.UserContext(), middleware.UserID(c), req.Code)
		if err != nil {
			return fail(c, "failed to join squad", err)
		}
		return c.JSON(fiber.Map{
			"squad":   squad,
			"message": "Successfully joined " + squad.Name + "!",
		})
	})

	secured.Post("/squads/leave", func(c *fiber.Ctx) error {
		if err := svc.Squads.LeaveSquad(c.UserContext(), middleware.UserID(c)); err != nil {
			return fail(c, "failed to leave squad", err)
		}
		return c.JSON(fiber.Map{"message": "Successfully left the squad"})
	})

	secured.Get("/squads/user/:user_id/badge", func(c *fiber.Ctx) error {
		badge, err := svc.Squads.GetUserSquadBadge(c.UserContext(), c.Params("user_id"))
		if err != nil {
			return fail(c, "failed to get squad badge", err)
		}
		return c.JSON(badge)
	})

	secured.Get("/squads/:squad_id", func(c *fiber.Ctx) error {
		detail, err := svc.Squads.GetSquad(c.UserContext(), c.Params("squad_id"))
		if err != nil {
			return fail(c, "failed to get squad", err)
		}
		return c.JSON(detail)
	})
}

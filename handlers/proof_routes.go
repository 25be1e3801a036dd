// handlers/proof_routes.go
package handlers

import (
	"plated-rewards/middleware"
	"plated-rewards/services"

	"github.com/gofiber/fiber/v2"
)

// maxProofImageSize bounds a single proof photo.
const maxProofImageSize = 10 * 1024 * 1024

type verifyRequest struct {
	Verified          bool     `json:"verified"`
	VerificationScore *float64 `json:"verification_score"`
}

func SetupProofRoutes(secured fiber.Router, svc *Services) {

	secured.Post("/recipes/:recipe_id/proof", func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("image")
		if err != nil {
			return badRequest(c, "image is required for proof submission", err)
		}
		if fileHeader.Size > maxProofImageSize {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"error": "image too large",
				"cause": "proof images are limited to 10MB",
			})
		}

		file, err := fileHeader.Open()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to read uploaded image",
				"cause": err.Error(),
			})
		}
		defer file.Close()

		res, err := svc.Proofs.SubmitProof(c.UserContext(), middleware.UserID(c), c.Params("recipe_id"), services.ProofUpload{
			Image:       file,
			ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
			Note:        c.FormValue("note"),
		})
		if err != nil {
			return fail(c, "failed to submit proof", err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	secured.Get("/recipes/:recipe_id/proof/stats", func(c *fiber.Ctx) error {
		stats, err := svc.Proofs.GetProofStats(c.UserContext(), c.Params("recipe_id"))
		if err != nil {
			return fail(c, "failed to get proof stats", err)
		}
		return c.JSON(stats)
	})

	secured.Get("/recipes/:recipe_id/proofs", func(c *fiber.Ctx) error {
		page, err := svc.Proofs.ListVerifiedProofs(c.UserContext(), c.Params("recipe_id"),
			c.QueryInt("limit", 20), c.QueryInt("offset", 0))
		if err != nil {
			return fail(c, "failed to list proofs", err)
		}
		return c.JSON(page)
	})

	admin := secured.Group("/admin", middleware.RequireRole("admin"))

	admin.Post("/proof/:proof_id/verify", func(c *fiber.Ctx) error {
		var req verifyRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		res, err := svc.Proofs.VerifyProof(c.UserContext(), c.Params("proof_id"), req.Verified, req.VerificationScore)
		if err != nil {
			return fail(c, "failed to verify proof", err)
		}
		return c.JSON(res)
	})
}

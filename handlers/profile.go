// handlers/profile_routes.go
package handlers

import (
	"strconv"

	"github.com/SAT-Duel/satduel/middleware"
	"github.com/SAT-Duel/satduel/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProfileRoutes(app *fiber.App, profileService *services.ProfileService) {
	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		profiles, err := profileService.Leaderboard(limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load leaderboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(profiles)
	})

	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/profile", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		profile, err := profileService.EnsureProfile(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load profile",
				"cause": err.Error(),
			})
		}
		return c.JSON(profile)
	})

	secured.Get("/profile/:user_id", func(c *fiber.Ctx) error {
		profile, err := profileService.GetProfile(c.Params("user_id"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.JSON(profile)
	})

	secured.Patch("/profile/update_streak", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			MaxStreak *int `json:"max_streak"`
		}
		if err := c.BodyParser(&req); err != nil || req.MaxStreak == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "max_streak is required"})
		}

		best, err := profileService.UpdateMaxStreak(userID, *req.MaxStreak)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to update streak",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"max_streak": best})
	})

	secured.Get("/profile/:user_id/ranking", func(c *fiber.Ctx) error {
		ranking, err := profileService.GetRanking(c.Params("user_id"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No ranking yet"})
		}
		return c.JSON(ranking)
	})
}

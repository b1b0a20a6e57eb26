// handlers/question_routes.go
package handlers

import (
	"strconv"

	"github.com/SAT-Duel/satduel/middleware"
	"github.com/SAT-Duel/satduel/services"

	"github.com/gofiber/fiber/v2"
)

func SetupQuestionRoutes(app *fiber.App, bank *services.QuestionBank, practiceService *services.PracticeService) {
	// Public reads — still behind gateway auth, no user context needed.
	app.Get("/questions", func(c *fiber.Ctx) error {
		num, err := strconv.Atoi(c.Query("num", "5"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid number format"})
		}

		filter := services.QuestionFilter{Categories: nil}
		if category := c.Query("category"); category != "" {
			filter.Categories = []string{category}
		}
		if difficulty := c.Query("difficulty"); difficulty != "" {
			d, err := strconv.Atoi(difficulty)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid difficulty"})
			}
			filter.Difficulty = d
		}

		questions, err := bank.Sample(num, filter)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to sample questions"})
		}
		return c.JSON(questions)
	})

	app.Post("/questions/get_question", func(c *fiber.Ctx) error {
		var req struct {
			QuestionID string `json:"question_id"`
		}
		if err := c.BodyParser(&req); err != nil || req.QuestionID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing question_id"})
		}
		question, err := practiceService.GetQuestion(req.QuestionID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question does not exist"})
		}
		return c.JSON(question)
	})

	app.Post("/questions/get_answer", func(c *fiber.Ctx) error {
		var req struct {
			QuestionID string `json:"question_id"`
		}
		if err := c.BodyParser(&req); err != nil || req.QuestionID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing question_id"})
		}
		answer, choice, explanation, err := practiceService.RevealAnswer(req.QuestionID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question does not exist"})
		}
		return c.JSON(fiber.Map{
			"answer":        answer,
			"answer_choice": choice,
			"explanation":   explanation,
		})
	})

	// Grading moves ratings, so it needs to know who is answering.
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/questions/check_answer", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			QuestionID     string `json:"question_id"`
			SelectedChoice string `json:"selected_choice"`
		}
		if err := c.BodyParser(&req); err != nil || req.QuestionID == "" || req.SelectedChoice == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing question_id or selected_choice"})
		}

		result, err := practiceService.CheckAnswer(userID, req.QuestionID, req.SelectedChoice)
		if err != nil {
			if err == services.ErrQuestionNotFound {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question does not exist"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to check answer"})
		}

		verdict := "incorrect"
		if result.Correct {
			verdict = "correct"
		}
		return c.JSON(fiber.Map{
			"result":          verdict,
			"user_rating":     result.UserRating,
			"question_rating": result.QuestionRating,
			"current_streak":  result.CurrentStreak,
		})
	})
}

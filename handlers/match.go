// handlers/match_routes.go
package handlers

import (
	"github.com/SAT-Duel/satduel/middleware"
	"github.com/SAT-Duel/satduel/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMatchRoutes(app *fiber.App, matchService *services.MatchService) {
	// Everything under /match needs user context from the gateway.
	match := app.Group("/match", middleware.UserContextMiddleware())

	match.Get("/", matchService.HandleMatch)
	match.Post("/questions", matchService.HandleMatchQuestions)
	match.Post("/update", matchService.HandleUpdateMatchQuestion)
	match.Get("/status", matchService.HandleRoomStatus)
	match.Post("/get_opponent_progress", matchService.HandleOpponentProgress)
	match.Post("/get_end_time", matchService.HandleGetEndTime)
	match.Post("/end_match", matchService.HandleEndMatch)
	match.Post("/set_winner", matchService.HandleSetWinner)
	match.Post("/set_score", matchService.HandleSetScore)
	match.Post("/cancel_match", matchService.HandleCancelMatch)
	match.Post("/get_results", matchService.HandleMatchResults)
	match.Post("/info", matchService.HandleMatchInfo)
	match.Get("/get_match_history", matchService.HandleMatchHistory)
	match.Get("/get_match_history/:user_id", matchService.HandleMatchHistory)
	match.Get("/rejoin", matchService.HandleRejoin)
}

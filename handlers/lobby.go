// handlers/lobby_routes.go
package handlers

import (
	"github.com/SAT-Duel/satduel/middleware"
	"github.com/SAT-Duel/satduel/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLobbyRoutes(app *fiber.App, lobbyService *services.LobbyService) {
	lobby := app.Group("/lobby", middleware.UserContextMiddleware())

	lobby.Get("/", lobbyService.HandleListWaitingGames)
	lobby.Post("/", lobbyService.HandleCreateGame)
	lobby.Get("/:game_id", lobbyService.HandleGetGame)
	lobby.Get("/:game_id/status", lobbyService.HandleGameStatus)
	lobby.Post("/:game_id/join", lobbyService.HandleJoinGame)
	lobby.Post("/:game_id/start", lobbyService.HandleStartGame)
	lobby.Delete("/:game_id", lobbyService.HandleDeleteGame)
}

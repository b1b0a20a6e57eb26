package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/SAT-Duel/satduel/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LobbyService handles hosted multiplayer games: a host opens a room with a
// player cap and optional password, players join while it waits, and the
// host starts the battle. Clients learn about the start through a
// single-round-trip status read instead of a held request.
type LobbyService struct {
	DB *gorm.DB
}

func NewLobbyService(db *gorm.DB) *LobbyService {
	return &LobbyService{DB: db}
}

type createGameRequest struct {
	MaxPlayers     int    `json:"max_players"`
	QuestionNumber int    `json:"question_number"`
	BattleDuration int    `json:"battle_duration"`
	Password       string `json:"password"`
}

// HandleCreateGame is POST /lobby — open a new waiting game with the caller
// as host.
func (s *LobbyService) HandleCreateGame(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	req := createGameRequest{MaxPlayers: 2, QuestionNumber: 10, BattleDuration: 600}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.MaxPlayers < 2 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Max players must be at least 2"})
	}
	if req.QuestionNumber < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Question number must be at least 1"})
	}
	if req.BattleDuration < 60 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Battle duration must be at least 60 seconds"})
	}

	game := &models.LobbyGame{
		ID:             uuid.NewString(),
		HostID:         userID,
		MaxPlayers:     req.MaxPlayers,
		QuestionNumber: req.QuestionNumber,
		BattleDuration: req.BattleDuration,
		Password:       req.Password,
		HasPassword:    req.Password != "",
		Status:         models.GameWaiting,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(game).Error; err != nil {
			return err
		}
		// The host occupies a seat too.
		return tx.Create(&models.LobbyPlayer{
			ID:     uuid.NewString(),
			GameID: game.ID,
			UserID: userID,
		}).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create game"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Game created successfully.",
		"game_id": game.ID,
	})
}

// JoinGame seats userID in a waiting game. The seat claim counts existing
// players inside the transaction so the cap holds under concurrent joins.
func (s *LobbyService) JoinGame(gameID, userID, password string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var game models.LobbyGame
		if err := tx.First(&game, "id = ?", gameID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGameNotFound
			}
			return fmt.Errorf("failed to load game: %w", err)
		}

		if game.HostID == userID {
			return ErrGameNotJoinable
		}
		if game.HasPassword && game.Password != password {
			return ErrWrongPassword
		}
		if game.Status != models.GameWaiting {
			return ErrGameNotJoinable
		}

		var seated int64
		if err := tx.Model(&models.LobbyPlayer{}).
			Where("game_id = ?", gameID).
			Count(&seated).Error; err != nil {
			return fmt.Errorf("failed to count players: %w", err)
		}
		if seated >= int64(game.MaxPlayers) {
			return ErrGameFull
		}

		var existing int64
		if err := tx.Model(&models.LobbyPlayer{}).
			Where("game_id = ? AND user_id = ?", gameID, userID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if existing > 0 {
			return nil
		}

		return tx.Create(&models.LobbyPlayer{
			ID:     uuid.NewString(),
			GameID: gameID,
			UserID: userID,
		}).Error
	})
}

// StartGame flips a waiting game to Battling and stamps the start time.
// Host only; starting twice fails on the status guard.
func (s *LobbyService) StartGame(gameID, userID string) (*models.LobbyGame, error) {
	var game models.LobbyGame
	if err := s.DB.First(&game, "id = ?", gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	if game.HostID != userID {
		return nil, ErrNotHost
	}

	now := time.Now().UTC()
	res := s.DB.Model(&models.LobbyGame{}).
		Where("id = ? AND status = ?", gameID, models.GameWaiting).
		Updates(map[string]interface{}{
			"status":            models.GameBattling,
			"battle_start_time": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to start game: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrGameNotJoinable
	}

	game.Status = models.GameBattling
	game.BattleStartTime = &now
	return &game, nil
}

// HandleJoinGame is POST /lobby/:game_id/join.
func (s *LobbyService) HandleJoinGame(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		Password string `json:"password"`
	}
	_ = c.BodyParser(&req)

	err := s.JoinGame(c.Params("game_id"), userID, req.Password)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"message": "Joined the game successfully."})
	case errors.Is(err, ErrGameNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game does not exist"})
	case errors.Is(err, ErrWrongPassword):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Incorrect password."})
	case errors.Is(err, ErrGameFull):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Room is full."})
	case errors.Is(err, ErrGameNotJoinable):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Game is not open for joining."})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to join game"})
}

// HandleStartGame is POST /lobby/:game_id/start.
func (s *LobbyService) HandleStartGame(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	game, err := s.StartGame(c.Params("game_id"), userID)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{
			"message":           "Game started successfully.",
			"battle_start_time": game.BattleStartTime,
		})
	case errors.Is(err, ErrGameNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game does not exist"})
	case errors.Is(err, ErrNotHost):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the host can start the game."})
	case errors.Is(err, ErrGameNotJoinable):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Game cannot be started."})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to start game"})
}

// HandleListWaitingGames is GET /lobby — games still open for joining.
func (s *LobbyService) HandleListWaitingGames(c *fiber.Ctx) error {
	var games []models.LobbyGame
	if err := s.DB.Preload("Players").
		Where("status = ?", models.GameWaiting).
		Order("created_at DESC").
		Find(&games).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list games"})
	}
	return c.JSON(games)
}

// HandleGetGame is GET /lobby/:game_id.
func (s *LobbyService) HandleGetGame(c *fiber.Ctx) error {
	var game models.LobbyGame
	if err := s.DB.Preload("Players").First(&game, "id = ?", c.Params("game_id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game does not exist"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load game"})
	}
	return c.JSON(game)
}

// HandleGameStatus is GET /lobby/:game_id/status — the short-poll the
// clients use while waiting for the host to start.
func (s *LobbyService) HandleGameStatus(c *fiber.Ctx) error {
	var game models.LobbyGame
	if err := s.DB.First(&game, "id = ?", c.Params("game_id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game does not exist"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load game"})
	}
	return c.JSON(fiber.Map{"status": game.Status})
}

// HandleDeleteGame is DELETE /lobby/:game_id — host only.
func (s *LobbyService) HandleDeleteGame(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	gameID := c.Params("game_id")

	var game models.LobbyGame
	if err := s.DB.First(&game, "id = ?", gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game does not exist"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load game"})
	}
	if game.HostID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the host can delete the game."})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", gameID).Delete(&models.LobbyPlayer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&game).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete game"})
	}
	return c.JSON(fiber.Map{"message": "Game deleted successfully."})
}

package services

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Fiber handlers for the /match surface. Core logic lives in
// match_service.go; this file only parses requests and maps errors to
// status codes.

type roomRequest struct {
	RoomID string `json:"room_id"`
}

// HandleMatch is GET /match — enqueue the caller.
func (s *MatchService) HandleMatch(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	room, err := s.Enqueue(userID)
	if err != nil {
		if errors.Is(err, ErrAlreadyMatching) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You are already matching or in a room"})
		}
		log.Printf("[Match] Enqueue failed for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "matchmaking failed"})
	}

	if room.IsFull() {
		return c.JSON(fiber.Map{"id": room.ID, "full": "true"})
	}
	return c.JSON(room)
}

// HandleMatchQuestions is POST /match/questions — the caller's own ordered
// attempt records.
func (s *MatchService) HandleMatchQuestions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req roomRequest
	if err := c.BodyParser(&req); err != nil || req.RoomID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing room_id"})
	}

	tracked, err := s.Progress(req.RoomID, userID)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(tracked)
}

// HandleUpdateMatchQuestion is POST /match/update — submit one answer.
func (s *MatchService) HandleUpdateMatchQuestion(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		TrackedQuestionID string `json:"tracked_question_id"`
		Result            string `json:"result"`
	}
	if err := c.BodyParser(&req); err != nil || req.TrackedQuestionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing tracked_question_id"})
	}

	if _, err := s.SubmitAnswer(req.TrackedQuestionID, userID, req.Result == "correct"); err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}

// HandleRoomStatus is GET /match/status?room_id= — fullness poll while the
// caller waits for an opponent.
func (s *MatchService) HandleRoomStatus(c *fiber.Ctx) error {
	roomID := c.Query("room_id")
	if roomID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing room_id"})
	}

	room, err := s.GetRoom(roomID)
	if err != nil {
		return s.mapError(c, err)
	}
	if room.IsFull() {
		return c.JSON(fiber.Map{"status": "full"})
	}
	return c.JSON(fiber.Map{"status": "waiting"})
}

// HandleOpponentProgress is POST /match/get_opponent_progress.
func (s *MatchService) HandleOpponentProgress(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req roomRequest
	if err := c.BodyParser(&req); err != nil || req.RoomID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing room_id"})
	}

	tracked, err := s.OpponentProgress(req.RoomID, userID)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(tracked)
}

// HandleGetEndTime is POST /match/get_end_time — stamps the battle start on
// first call.
func (s *MatchService) HandleGetEndTime(c *fiber.Ctx) error {
	var req roomRequest
	if err := c.BodyParser(&req); err != nil || req.RoomID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing room_id"})
	}

	endTime, duration, err := s.GetEndTime(req.RoomID)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(fiber.Map{
		"end_time":        endTime.UTC().Format(time.RFC3339Nano),
		"battle_duration": duration,
	})
}

// HandleEndMatch is POST /match/end_match — explicit end. Ending an ended
// room reports success.
func (s *MatchService) HandleEndMatch(c *fiber.Ctx) error {
	var req roomRequest
	if err := c.BodyParser(&req); err != nil || req.RoomID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing room_id"})
	}

	if err := s.EndRoom(req.RoomID, EndTriggerExplicit, nil); err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}

// HandleSetWinner is POST /match/set_winner.
func (s *MatchService) HandleSetWinner(c *fiber.Ctx) error {
	var req struct {
		RoomID string `json:"room_id"`
		Winner string `json:"winner"`
	}
	if err := c.BodyParser(&req); err != nil || req.RoomID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing room_id"})
	}

	if err := s.ResolveWinner(req.RoomID, req.Winner); err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}

// HandleSetScore is POST /match/set_score.
func (s *MatchService) HandleSetScore(c *fiber.Ctx) error {
	var req struct {
		RoomID     string `json:"room_id"`
		User1Score int    `json:"user1_score"`
		User2Score int    `json:"user2_score"`
	}
	if err := c.BodyParser(&req); err != nil || req.RoomID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing room_id"})
	}

	if err := s.SetScore(req.RoomID, req.User1Score, req.User2Score); err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}

// HandleCancelMatch is POST /match/cancel_match — leave the queue.
func (s *MatchService) HandleCancelMatch(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req roomRequest
	if err := c.BodyParser(&req); err != nil || req.RoomID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing room_id"})
	}

	if err := s.CancelSearch(userID, req.RoomID); err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}

// HandleMatchHistory is GET /match/get_match_history[/:user_id].
func (s *MatchService) HandleMatchHistory(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if userID == "" {
		userID = c.Locals("user_id").(string)
	}

	rooms, err := s.History(userID)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(rooms)
}

// HandleRejoin is GET /match/rejoin — find active rooms after a reconnect.
func (s *MatchService) HandleRejoin(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	battling, searching, err := s.Rejoin(userID)
	if err != nil {
		return s.mapError(c, err)
	}
	if battling == nil && searching == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No room found"})
	}

	resp := fiber.Map{"battle_room_id": nil, "searching_room_id": nil}
	if battling != nil {
		resp["battle_room_id"] = battling.ID
	}
	if searching != nil {
		resp["searching_room_id"] = searching.ID
	}
	return c.JSON(resp)
}

// HandleMatchResults is POST /match/get_results — both sides' attempts for
// the result screen.
func (s *MatchService) HandleMatchResults(c *fiber.Ctx) error {
	var req roomRequest
	if err := c.BodyParser(&req); err != nil || req.RoomID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing room_id"})
	}

	room, err := s.GetRoom(req.RoomID)
	if err != nil {
		return s.mapError(c, err)
	}

	user1Results, err := s.Progress(room.ID, room.User1ID)
	if err != nil {
		return s.mapError(c, err)
	}
	resp := fiber.Map{"user1_results": user1Results, "user2_results": nil}
	if room.User2ID != nil {
		user2Results, err := s.Progress(room.ID, *room.User2ID)
		if err != nil {
			return s.mapError(c, err)
		}
		resp["user2_results"] = user2Results
	}
	return c.JSON(resp)
}

// HandleMatchInfo is POST /match/info — both participants' profiles.
func (s *MatchService) HandleMatchInfo(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req roomRequest
	if err := c.BodyParser(&req); err != nil || req.RoomID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing room_id"})
	}

	room, err := s.GetRoom(req.RoomID)
	if err != nil {
		return s.mapError(c, err)
	}
	opponent := room.Opponent(userID)
	if opponent == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Room has no opponent yet"})
	}

	own, err := s.Profiles.EnsureProfile(userID)
	if err != nil {
		return s.mapError(c, err)
	}
	opp, err := s.Profiles.EnsureProfile(*opponent)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(fiber.Map{"currentUser": own, "opponent": opp})
}

func (s *MatchService) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Room does not exist"})
	case errors.Is(err, ErrAttemptNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Tracked question does not exist"})
	case errors.Is(err, ErrProfileNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
	case errors.Is(err, ErrNotParticipant):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not a participant of this room"})
	case errors.Is(err, ErrRoomNotSearching):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Room is no longer searching"})
	case errors.Is(err, ErrResubmitNotAllowed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Question was already answered"})
	}
	log.Printf("[Match] Unexpected error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/SAT-Duel/satduel/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MatchService owns the 1v1 queue and battle lifecycle: pairing searchers
// into rooms, assigning question sets, tracking answers, timing the battle
// window and resolving ratings when a room ends.
type MatchService struct {
	DB       *gorm.DB
	Profiles *ProfileService

	// AllowResubmit keeps the last-write-wins behavior for already-answered
	// questions. Set ALLOW_ANSWER_RESUBMIT=false to reject overwrites.
	AllowResubmit bool
}

func NewMatchService(db *gorm.DB, profiles *ProfileService) *MatchService {
	return &MatchService{
		DB:            db,
		Profiles:      profiles,
		AllowResubmit: os.Getenv("ALLOW_ANSWER_RESUBMIT") != "false",
	}
}

// End triggers, recorded for match history and logs.
const (
	EndTriggerExplicit = "explicit"
	EndTriggerTimeout  = "timeout"
	EndTriggerWinner   = "winner-report"
)

// Enqueue puts userID into matchmaking. It either claims the open slot of a
// Searching room (flipping it to Battling and assigning questions) or opens
// a fresh room with the caller as user1. The claim is a conditional UPDATE:
// of two concurrent callers exactly one wins the slot and the other falls
// through and creates its own room.
func (s *MatchService) Enqueue(userID string) (*models.Room, error) {
	if _, err := s.Profiles.EnsureProfile(userID); err != nil {
		return nil, err
	}

	var result *models.Room
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// One active room per user, checked on both sides.
		var active int64
		if err := tx.Model(&models.Room{}).
			Where("(user1_id = ? OR user2_id = ?) AND status <> ?", userID, userID, models.RoomEnded).
			Count(&active).Error; err != nil {
			return fmt.Errorf("failed to check active rooms: %w", err)
		}
		if active > 0 {
			return ErrAlreadyMatching
		}

		var candidates []models.Room
		if err := tx.
			Where("status = ? AND user2_id IS NULL AND user1_id <> ?", models.RoomSearching, userID).
			Order("created_at ASC").
			Limit(5).
			Find(&candidates).Error; err != nil {
			return fmt.Errorf("failed to list open rooms: %w", err)
		}

		for i := range candidates {
			room := candidates[i]
			claim := tx.Model(&models.Room{}).
				Where("id = ? AND status = ? AND user2_id IS NULL", room.ID, models.RoomSearching).
				Updates(map[string]interface{}{
					"user2_id": userID,
					"status":   models.RoomBattling,
				})
			if claim.Error != nil {
				return fmt.Errorf("failed to claim room %s: %w", room.ID, claim.Error)
			}
			if claim.RowsAffected == 0 {
				// Someone else took the slot between the read and the
				// update; try the next candidate.
				continue
			}

			room.User2ID = &userID
			room.Status = models.RoomBattling
			if err := s.assignQuestions(tx, &room); err != nil {
				return err
			}
			result = &room
			return nil
		}

		room := &models.Room{
			ID:             uuid.NewString(),
			User1ID:        userID,
			Status:         models.RoomSearching,
			BattleDuration: models.DefaultBattleDuration,
			QuestionCount:  models.DefaultQuestionCount,
		}
		if err := tx.Create(room).Error; err != nil {
			return fmt.Errorf("failed to create room: %w", err)
		}
		result = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// assignQuestions samples the room's question set and creates one Blank
// TrackedQuestion per side per question, all inside the caller's
// transaction. A full room with N questions therefore always owns exactly
// 2×N attempt rows.
func (s *MatchService) assignQuestions(tx *gorm.DB, room *models.Room) error {
	bank := NewQuestionBank(tx)
	questions, err := bank.SampleDefault(room.QuestionCount)
	if err != nil {
		return err
	}
	if len(questions) < room.QuestionCount {
		room.QuestionCount = len(questions)
		if err := tx.Model(room).Update("question_count", room.QuestionCount).Error; err != nil {
			return fmt.Errorf("failed to shrink question count: %w", err)
		}
	}

	tracked := make([]models.TrackedQuestion, 0, 2*len(questions))
	for pos, q := range questions {
		for _, uid := range []string{room.User1ID, *room.User2ID} {
			tracked = append(tracked, models.TrackedQuestion{
				ID:         uuid.NewString(),
				UserID:     uid,
				RoomID:     room.ID,
				QuestionID: q.ID,
				Position:   pos,
				Status:     models.AttemptBlank,
			})
		}
	}
	if len(tracked) == 0 {
		return nil
	}
	if err := tx.Create(&tracked).Error; err != nil {
		return fmt.Errorf("failed to create tracked questions: %w", err)
	}
	return nil
}

// CancelSearch deletes the caller's own Searching room. A room that already
// started battling cannot be cancelled.
func (s *MatchService) CancelSearch(userID, roomID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var room models.Room
		if err := tx.First(&room, "id = ?", roomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return fmt.Errorf("failed to load room: %w", err)
		}
		if room.User1ID != userID {
			return ErrNotParticipant
		}
		res := tx.Where("id = ? AND status = ?", roomID, models.RoomSearching).Delete(&models.Room{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete room: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrRoomNotSearching
		}
		return nil
	})
}

// GetRoom loads a room by id.
func (s *MatchService) GetRoom(roomID string) (*models.Room, error) {
	var room models.Room
	if err := s.DB.First(&room, "id = ?", roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to load room: %w", err)
	}
	return &room, nil
}

// Progress returns userID's ordered attempt list for a room.
func (s *MatchService) Progress(roomID, userID string) ([]models.TrackedQuestion, error) {
	if _, err := s.GetRoom(roomID); err != nil {
		return nil, err
	}
	var tracked []models.TrackedQuestion
	if err := s.DB.Preload("Question").
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Order("position ASC").
		Find(&tracked).Error; err != nil {
		return nil, fmt.Errorf("failed to load tracked questions: %w", err)
	}
	return tracked, nil
}

// OpponentProgress returns the other side's ordered attempt list, used by
// the live-progress poll.
func (s *MatchService) OpponentProgress(roomID, userID string) ([]models.TrackedQuestion, error) {
	room, err := s.GetRoom(roomID)
	if err != nil {
		return nil, err
	}
	opponent := room.Opponent(userID)
	if opponent == nil {
		if !room.HasParticipant(userID) {
			return nil, ErrNotParticipant
		}
		return nil, nil
	}
	return s.Progress(roomID, *opponent)
}

// SubmitAnswer flips one attempt record to Correct or Incorrect. Whether an
// already-answered record may be overwritten is the AllowResubmit policy.
func (s *MatchService) SubmitAnswer(attemptID, userID string, correct bool) (*models.TrackedQuestion, error) {
	var attempt models.TrackedQuestion
	if err := s.DB.First(&attempt, "id = ?", attemptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to load tracked question: %w", err)
	}
	if attempt.UserID != userID {
		return nil, ErrNotParticipant
	}
	if attempt.Status != models.AttemptBlank && !s.AllowResubmit {
		return nil, ErrResubmitNotAllowed
	}

	status := models.AttemptIncorrect
	if correct {
		status = models.AttemptCorrect
	}
	if err := s.DB.Model(&attempt).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update tracked question: %w", err)
	}
	attempt.Status = status
	return &attempt, nil
}

// GetEndTime stamps the battle start on first call and returns the window's
// end. Subsequent calls return the same end time.
func (s *MatchService) GetEndTime(roomID string) (time.Time, int, error) {
	var room models.Room
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&room, "id = ?", roomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return fmt.Errorf("failed to load room: %w", err)
		}
		if room.BattleStartTime != nil {
			return nil
		}

		now := time.Now().UTC()
		res := tx.Model(&models.Room{}).
			Where("id = ? AND battle_start_time IS NULL", roomID).
			Update("battle_start_time", now)
		if res.Error != nil {
			return fmt.Errorf("failed to stamp battle start: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			room.BattleStartTime = &now
			return nil
		}
		// Lost a concurrent first call; read the winner's stamp.
		return tx.First(&room, "id = ?", roomID).Error
	})
	if err != nil {
		return time.Time{}, 0, err
	}
	end := room.BattleStartTime.Add(time.Duration(room.BattleDuration) * time.Second)
	return end, room.BattleDuration, nil
}

// SetScore records both sides' running scores. Scores freeze once the room
// has ended.
func (s *MatchService) SetScore(roomID string, user1Score, user2Score int) error {
	res := s.DB.Model(&models.Room{}).
		Where("id = ? AND status <> ?", roomID, models.RoomEnded).
		Updates(map[string]interface{}{
			"user1_score": user1Score,
			"user2_score": user2Score,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to set scores: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetRoom(roomID); err != nil {
			return err
		}
	}
	return nil
}

// EndRoom resolves a room. resultUser1 overrides the score-derived outcome
// (used by the winner-report path); pass nil to compute win/loss/draw from
// the stored scores. The Battling→Ended flip is a conditional UPDATE, so a
// timeout sweep racing an explicit end applies ratings exactly once; ending
// an already-Ended room is a no-op.
func (s *MatchService) EndRoom(roomID, trigger string, resultUser1 *float64) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var room models.Room
		if err := tx.First(&room, "id = ?", roomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return fmt.Errorf("failed to load room: %w", err)
		}
		if room.Status == models.RoomEnded {
			return nil
		}

		result := ResultDraw
		switch {
		case resultUser1 != nil:
			result = *resultUser1
		case room.User1Score > room.User2Score:
			result = ResultWin
		case room.User2Score > room.User1Score:
			result = ResultLoss
		}

		var winnerID *string
		switch result {
		case ResultWin:
			winnerID = &room.User1ID
		case ResultLoss:
			winnerID = room.User2ID
		}

		flip := tx.Model(&models.Room{}).
			Where("id = ? AND status <> ?", roomID, models.RoomEnded).
			Updates(map[string]interface{}{
				"status":    models.RoomEnded,
				"winner_id": winnerID,
			})
		if flip.Error != nil {
			return fmt.Errorf("failed to end room: %w", flip.Error)
		}
		if flip.RowsAffected == 0 {
			// The concurrent caller that won the flip applies the ratings.
			return nil
		}

		log.Printf("[Match] Room %s ended (%s), result=%.1f", roomID, trigger, result)

		if room.User2ID == nil {
			// A half-empty room can only be ended by cleanup; no opponent,
			// no rating to settle.
			return nil
		}
		return s.applyRatings(tx, &room, result)
	})
}

// applyRatings settles both duel ratings and solved counts for a resolved
// room. Runs exactly once per room, inside the ending transaction.
func (s *MatchService) applyRatings(tx *gorm.DB, room *models.Room, resultUser1 float64) error {
	p1, err := loadProfileTx(tx, room.User1ID)
	if err != nil {
		return err
	}
	p2, err := loadProfileTx(tx, *room.User2ID)
	if err != nil {
		return err
	}

	newRating1, newRating2 := UpdateDuelRatings(resultUser1, p1.DuelRating, p2.DuelRating)

	if err := tx.Model(p1).Updates(map[string]interface{}{
		"duel_rating":     newRating1,
		"problems_solved": gorm.Expr("problems_solved + ?", room.QuestionCount),
	}).Error; err != nil {
		return fmt.Errorf("failed to update profile %s: %w", p1.ExternalUserID, err)
	}
	if err := tx.Model(p2).Updates(map[string]interface{}{
		"duel_rating":     newRating2,
		"problems_solved": gorm.Expr("problems_solved + ?", room.QuestionCount),
	}).Error; err != nil {
		return fmt.Errorf("failed to update profile %s: %w", p2.ExternalUserID, err)
	}
	return nil
}

// ResolveWinner handles the winner-report path: the client names the winner
// (or "Tie") and the room ends through the usual resolution.
func (s *MatchService) ResolveWinner(roomID, winner string) error {
	room, err := s.GetRoom(roomID)
	if err != nil {
		return err
	}

	result := ResultDraw
	if winner != "" && winner != "Tie" {
		switch {
		case winner == room.User1ID:
			result = ResultWin
		case room.User2ID != nil && winner == *room.User2ID:
			result = ResultLoss
		default:
			return ErrNotParticipant
		}
	}
	return s.EndRoom(roomID, EndTriggerWinner, &result)
}

// History returns a user's ended rooms, newest first.
func (s *MatchService) History(userID string) ([]models.Room, error) {
	var rooms []models.Room
	if err := s.DB.
		Where("(user1_id = ? OR user2_id = ?) AND status = ?", userID, userID, models.RoomEnded).
		Order("created_at DESC").
		Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to load match history: %w", err)
	}
	return rooms, nil
}

// Rejoin finds the caller's active rooms after a reconnect: at most one
// Battling room (either side) and at most one Searching room they own.
func (s *MatchService) Rejoin(userID string) (battling *models.Room, searching *models.Room, err error) {
	var battlingRoom models.Room
	res := s.DB.
		Where("(user1_id = ? OR user2_id = ?) AND status = ?", userID, userID, models.RoomBattling).
		First(&battlingRoom)
	if res.Error == nil {
		battling = &battlingRoom
	} else if !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to look up battling room: %w", res.Error)
	}

	var searchingRoom models.Room
	res = s.DB.
		Where("user1_id = ? AND status = ?", userID, models.RoomSearching).
		First(&searchingRoom)
	if res.Error == nil {
		searching = &searchingRoom
	} else if !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to look up searching room: %w", res.Error)
	}

	return battling, searching, nil
}

// SweepExpired ends every Battling room whose window has closed. Called by
// the scheduler; one bad room must not stop the sweep.
func (s *MatchService) SweepExpired(now time.Time) {
	var rooms []models.Room
	if err := s.DB.
		Where("status = ? AND battle_start_time IS NOT NULL", models.RoomBattling).
		Find(&rooms).Error; err != nil {
		log.Printf("[Sweep] DB error: %v", err)
		return
	}

	for _, room := range rooms {
		if !room.IsExpired(now) {
			continue
		}
		if err := s.EndRoom(room.ID, EndTriggerTimeout, nil); err != nil {
			log.Printf("[Sweep] Failed to end expired room %s: %v", room.ID, err)
		}
	}
}

func loadProfileTx(tx *gorm.DB, externalUserID string) (*models.Profile, error) {
	var profile models.Profile
	if err := tx.First(&profile, "external_user_id = ?", externalUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load profile %s: %w", externalUserID, err)
	}
	return &profile, nil
}

package models

import (
	"time"
)

// Room statuses. A room is created Searching with only user1 set, flips to
// Battling the moment user2 claims the open slot, and Ended is terminal.
const (
	RoomSearching = "Searching"
	RoomBattling  = "Battling"
	RoomEnded     = "Ended"
)

// DefaultBattleDuration is the battle window in seconds.
const DefaultBattleDuration = 300

// DefaultQuestionCount is the size of a room's question set.
const DefaultQuestionCount = 10

// Room is a 1v1 battle session between two profiles.
// Invariant: at most one non-Ended room references a given user as either side.
type Room struct {
	ID      string  `gorm:"primaryKey;type:uuid" json:"id"`
	User1ID string  `gorm:"index;not null" json:"user1_id"`
	User2ID *string `gorm:"index" json:"user2_id,omitempty"`

	Status string `gorm:"type:varchar(16);index;check:status IN ('Searching','Battling','Ended')" json:"status"`

	// BattleStartTime is stamped lazily on the first end-time request once
	// the room is full; the window is BattleStartTime + BattleDuration.
	BattleStartTime *time.Time `json:"battle_start_time,omitempty"`
	BattleDuration  int        `gorm:"default:300" json:"battle_duration"`

	QuestionCount int `gorm:"default:10" json:"question_count"`

	User1Score int     `gorm:"default:0" json:"user1_score"`
	User2Score int     `gorm:"default:0" json:"user2_score"`
	WinnerID   *string `json:"winner_id,omitempty"`

	Timestamps
}

func (r *Room) IsFull() bool {
	return r.User2ID != nil
}

// IsExpired reports whether the battle window has closed on a room that is
// still Battling.
func (r *Room) IsExpired(now time.Time) bool {
	if r.Status != RoomBattling || r.BattleStartTime == nil {
		return false
	}
	return now.After(r.BattleStartTime.Add(time.Duration(r.BattleDuration) * time.Second))
}

// Opponent returns the other side's user id, or nil for a half-empty room.
func (r *Room) Opponent(userID string) *string {
	if r.User1ID == userID {
		return r.User2ID
	}
	if r.User2ID != nil && *r.User2ID == userID {
		u1 := r.User1ID
		return &u1
	}
	return nil
}

// HasParticipant reports whether userID occupies either side of the room.
func (r *Room) HasParticipant(userID string) bool {
	return r.User1ID == userID || (r.User2ID != nil && *r.User2ID == userID)
}

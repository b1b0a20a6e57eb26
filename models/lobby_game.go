package models

import (
	"time"
)

// Lobby game statuses.
const (
	GameWaiting  = "Waiting"
	GameBattling = "Battling"
	GameEnded    = "Ended"
)

// LobbyGame is a hosted multiplayer session: the host opens a room, players
// join while it is Waiting, and only the host may start it.
type LobbyGame struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	HostID string `gorm:"index;not null" json:"host_id"`

	MaxPlayers     int `gorm:"default:2" json:"max_players"`
	QuestionNumber int `gorm:"default:10" json:"question_number"`
	BattleDuration int `gorm:"default:600" json:"battle_duration"`

	Status          string     `gorm:"type:varchar(16);index;check:status IN ('Waiting','Battling','Ended')" json:"status"`
	BattleStartTime *time.Time `json:"battle_start_time,omitempty"`

	Password    string `gorm:"type:varchar(255)" json:"-"`
	HasPassword bool   `gorm:"default:false" json:"has_password"`

	Players []LobbyPlayer `gorm:"foreignKey:GameID" json:"players,omitempty"`

	Timestamps
}

// LobbyPlayer is a membership row: one user seated in one lobby game.
// The host is seated too, so Players counts everyone in the room.
type LobbyPlayer struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	GameID string `gorm:"index;not null" json:"game_id"`
	UserID string `gorm:"index;not null" json:"user_id"`

	// QuestionsStatus maps question position -> status for this player,
	// stored as serialized JSON.
	QuestionsStatus string `gorm:"type:text" json:"questions_status,omitempty"`

	Timestamps
}

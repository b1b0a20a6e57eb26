package models

import "time"

// Ranking is the materialized leaderboard position for one profile,
// refreshed in bulk by the scheduler (duel rating desc, solved count as
// tiebreaker).
type Ranking struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Rank           int       `gorm:"index;not null" json:"rank"`
	LastUpdated    time.Time `gorm:"autoUpdateTime" json:"last_updated"`
}

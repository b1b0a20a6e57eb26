package models

// Profile is the local per-player record this service owns: skill ratings
// and cumulative stats. Identity lives in the profile service; we only key
// on its external user id, same pattern as the tournament user mirror.
type Profile struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Username       string `gorm:"index" json:"username"`

	// DuelRating is the 1v1 battle rating, PracticeRating the solo one.
	DuelRating     int `gorm:"default:1500" json:"duel_rating"`
	PracticeRating int `gorm:"default:1200" json:"practice_rating"`

	ProblemsSolved int `gorm:"default:0" json:"problems_solved"`
	MaxStreak      int `gorm:"default:0" json:"max_streak"`

	// Practice counters (correct/incorrect/current streak).
	CorrectCount   int `gorm:"default:0" json:"correct_count"`
	IncorrectCount int `gorm:"default:0" json:"incorrect_count"`
	CurrentStreak  int `gorm:"default:0" json:"current_streak"`

	Timestamps
}

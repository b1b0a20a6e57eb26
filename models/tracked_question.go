package models

// Attempt statuses for a tracked question.
const (
	AttemptBlank     = "Blank"
	AttemptCorrect   = "Correct"
	AttemptIncorrect = "Incorrect"
)

// TrackedQuestion is one participant's answer slot for one question inside
// one room. A full room with N questions owns exactly 2×N of these, all
// created Blank in the same transaction that fills the room.
type TrackedQuestion struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string `gorm:"index;not null" json:"user_id"`
	RoomID     string `gorm:"index;not null" json:"room_id"`
	QuestionID string `gorm:"not null" json:"question_id"`

	// Position preserves the question-set order within the room so both
	// sides render the same sequence.
	Position int    `gorm:"not null" json:"position"`
	Status   string `gorm:"type:varchar(10);check:status IN ('Blank','Correct','Incorrect')" json:"status"`

	Question Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`

	Timestamps
}

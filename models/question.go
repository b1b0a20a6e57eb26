package models

import (
	"gorm.io/gorm"
)

// Question is an immutable piece of quiz content. Only SkillRating mutates
// after creation (practice mode rates the question like an opponent).
type Question struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	Prompt  string `gorm:"type:text;not null" json:"question"`
	ChoiceA string `gorm:"type:varchar(1000)" json:"choice_a"`
	ChoiceB string `gorm:"type:varchar(1000)" json:"choice_b"`
	ChoiceC string `gorm:"type:varchar(1000)" json:"choice_c"`
	ChoiceD string `gorm:"type:varchar(1000)" json:"choice_d"`

	// Answer is one of A/B/C/D.
	Answer     string `gorm:"type:varchar(1);check:answer IN ('A','B','C','D')" json:"answer"`
	Difficulty int    `gorm:"check:difficulty BETWEEN 1 AND 5" json:"difficulty"`

	Category     string `gorm:"index;type:varchar(255)" json:"category"`
	CategorySlug string `gorm:"index;type:varchar(255)" json:"category_slug"`
	Explanation  string `gorm:"type:text" json:"explanation,omitempty"`

	// SkillRating is the question's practice-mode rating. Zero means
	// "not seeded yet"; BeforeCreate fills it in from the difficulty.
	SkillRating int `gorm:"default:0" json:"skill_rating"`

	// SourceKey records which import batch produced this question.
	SourceKey string `gorm:"index" json:"-"`

	Timestamps
}

// Difficulty 1..5 maps onto a seed practice rating so fresh questions start
// roughly where the rating engine would eventually place them.
var difficultySeedRating = map[int]int{
	1: 600,
	2: 800,
	3: 1200,
	4: 1600,
	5: 2000,
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.SkillRating == 0 {
		if seed, ok := difficultySeedRating[q.Difficulty]; ok {
			q.SkillRating = seed
		} else {
			q.SkillRating = 1200
		}
	}
	return nil
}

// AnswerText returns the text of the correct choice.
func (q *Question) AnswerText() string {
	switch q.Answer {
	case "A":
		return q.ChoiceA
	case "B":
		return q.ChoiceB
	case "C":
		return q.ChoiceC
	case "D":
		return q.ChoiceD
	}
	return ""
}

// DefaultCategories is the category filter used when a battle room assigns
// its question set.
var DefaultCategories = []string{
	"Cross-Text Connections", "Text Structure and Purpose", "Words in Context",
	"Rhetorical Synthesis", "Transitions", "Central Ideas and Details",
	"Command of Evidence", "Inferences", "Boundaries", "Form, Structure, and Sense",
}

package services

import (
	"errors"
	"fmt"

	"github.com/SAT-Duel/satduel/models"

	"gorm.io/gorm"
)

// PracticeService is solo play: random questions, answer checking, and the
// practice-vs-question rating exchange.
type PracticeService struct {
	DB       *gorm.DB
	Bank     *QuestionBank
	Profiles *ProfileService
}

func NewPracticeService(db *gorm.DB, bank *QuestionBank, profiles *ProfileService) *PracticeService {
	return &PracticeService{DB: db, Bank: bank, Profiles: profiles}
}

// PracticeResult is what one answered practice question did to the numbers.
type PracticeResult struct {
	Correct           bool `json:"correct"`
	UserRating        int  `json:"user_rating"`
	QuestionRating    int  `json:"question_rating"`
	CurrentStreak     int  `json:"current_streak"`
	ProblemsAttempted int  `json:"problems_attempted"`
}

// GetQuestion loads one question by id.
func (s *PracticeService) GetQuestion(questionID string) (*models.Question, error) {
	var question models.Question
	if err := s.DB.First(&question, "id = ?", questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	return &question, nil
}

// CheckAnswer grades a selected choice, moves the user's practice rating and
// the question's skill rating through the rating engine (the question is the
// opponent), and updates the user's practice counters.
func (s *PracticeService) CheckAnswer(userID, questionID, selectedChoice string) (*PracticeResult, error) {
	if _, err := s.Profiles.EnsureProfile(userID); err != nil {
		return nil, err
	}

	var result *PracticeResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var question models.Question
		if err := tx.First(&question, "id = ?", questionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("failed to load question: %w", err)
		}

		profile, err := loadProfileTx(tx, userID)
		if err != nil {
			return err
		}

		correct := question.AnswerText() == selectedChoice
		newUserRating, newQuestionRating := UpdatePracticeRatings(correct, profile.PracticeRating, question.SkillRating)

		updates := map[string]interface{}{
			"practice_rating": newUserRating,
		}
		if correct {
			updates["correct_count"] = gorm.Expr("correct_count + 1")
			updates["current_streak"] = gorm.Expr("current_streak + 1")
		} else {
			updates["incorrect_count"] = gorm.Expr("incorrect_count + 1")
			updates["current_streak"] = 0
		}
		if err := tx.Model(profile).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update practice stats: %w", err)
		}
		if err := tx.Model(&question).Update("skill_rating", newQuestionRating).Error; err != nil {
			return fmt.Errorf("failed to update question rating: %w", err)
		}

		var fresh models.Profile
		if err := tx.First(&fresh, "external_user_id = ?", userID).Error; err != nil {
			return fmt.Errorf("failed to reload profile: %w", err)
		}

		result = &PracticeResult{
			Correct:           correct,
			UserRating:        fresh.PracticeRating,
			QuestionRating:    newQuestionRating,
			CurrentStreak:     fresh.CurrentStreak,
			ProblemsAttempted: fresh.CorrectCount + fresh.IncorrectCount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RevealAnswer returns the correct choice and explanation for a question.
func (s *PracticeService) RevealAnswer(questionID string) (answerText, answerChoice, explanation string, err error) {
	question, err := s.GetQuestion(questionID)
	if err != nil {
		return "", "", "", err
	}
	return question.AnswerText(), question.Answer, question.Explanation, nil
}

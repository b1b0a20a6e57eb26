package services

import (
	"testing"

	"github.com/SAT-Duel/satduel/models"

	"github.com/stretchr/testify/require"
)

func TestCheckAnswer_CorrectMovesBothRatings(t *testing.T) {
	db := openTestDB(t)
	s := NewPracticeService(db, NewQuestionBank(db), NewProfileService(db))
	question := seedQuestions(t, db, 1, "Transitions", 3)[0] // seeds at 1200

	result, err := s.CheckAnswer("alice", question.ID, question.ChoiceA)
	require.NoError(t, err)
	require.True(t, result.Correct)

	wantUser, wantQuestion := UpdatePracticeRatings(true, 1200, 1200)
	require.Equal(t, wantUser, result.UserRating)
	require.Equal(t, wantQuestion, result.QuestionRating)
	require.Equal(t, 1, result.CurrentStreak)
	require.Equal(t, 1, result.ProblemsAttempted)

	var stored models.Question
	require.NoError(t, db.First(&stored, "id = ?", question.ID).Error)
	require.Equal(t, wantQuestion, stored.SkillRating)
}

func TestCheckAnswer_IncorrectResetsStreak(t *testing.T) {
	db := openTestDB(t)
	s := NewPracticeService(db, NewQuestionBank(db), NewProfileService(db))
	questions := seedQuestions(t, db, 3, "Inferences", 3)

	_, err := s.CheckAnswer("alice", questions[0].ID, questions[0].ChoiceA)
	require.NoError(t, err)
	_, err = s.CheckAnswer("alice", questions[1].ID, questions[1].ChoiceA)
	require.NoError(t, err)

	result, err := s.CheckAnswer("alice", questions[2].ID, questions[2].ChoiceB)
	require.NoError(t, err)
	require.False(t, result.Correct)
	require.Equal(t, 0, result.CurrentStreak)
	require.Equal(t, 3, result.ProblemsAttempted)

	profile, err := NewProfileService(db).GetProfile("alice")
	require.NoError(t, err)
	require.Equal(t, 2, profile.CorrectCount)
	require.Equal(t, 1, profile.IncorrectCount)
}

func TestCheckAnswer_UnknownQuestion(t *testing.T) {
	db := openTestDB(t)
	s := NewPracticeService(db, NewQuestionBank(db), NewProfileService(db))

	_, err := s.CheckAnswer("alice", "missing", "whatever")
	require.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestRevealAnswer(t *testing.T) {
	db := openTestDB(t)
	s := NewPracticeService(db, NewQuestionBank(db), NewProfileService(db))
	question := seedQuestions(t, db, 1, "Boundaries", 2)[0]

	text, choice, _, err := s.RevealAnswer(question.ID)
	require.NoError(t, err)
	require.Equal(t, "A", choice)
	require.Equal(t, question.ChoiceA, text)
}

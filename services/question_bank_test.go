package services

import (
	"testing"

	"github.com/SAT-Duel/satduel/models"

	"github.com/stretchr/testify/require"
)

func TestQuestionBank_SampleNoDuplicates(t *testing.T) {
	db := openTestDB(t)
	qb := NewQuestionBank(db)
	seedQuestions(t, db, 20, "Transitions", 3)

	questions, err := qb.Sample(10, QuestionFilter{Categories: []string{"Transitions"}})
	require.NoError(t, err)
	require.Len(t, questions, 10)

	seen := make(map[string]bool)
	for _, q := range questions {
		require.False(t, seen[q.ID], "question %s drawn twice", q.ID)
		seen[q.ID] = true
	}
}

func TestQuestionBank_ShortPoolReturnsWholePool(t *testing.T) {
	db := openTestDB(t)
	qb := NewQuestionBank(db)
	seedQuestions(t, db, 3, "Inferences", 2)

	questions, err := qb.Sample(5, QuestionFilter{Categories: []string{"Inferences"}})
	require.NoError(t, err)
	require.Len(t, questions, 3)
}

func TestQuestionBank_Filters(t *testing.T) {
	db := openTestDB(t)
	qb := NewQuestionBank(db)
	seedQuestions(t, db, 5, "Transitions", 2)
	seedQuestions(t, db, 5, "Inferences", 4)

	questions, err := qb.Sample(10, QuestionFilter{Categories: []string{"Inferences"}, Difficulty: 4})
	require.NoError(t, err)
	require.Len(t, questions, 5)
	for _, q := range questions {
		require.Equal(t, "Inferences", q.Category)
		require.Equal(t, 4, q.Difficulty)
	}

	// Difficulty filter with no categories.
	questions, err = qb.Sample(10, QuestionFilter{Difficulty: 2})
	require.NoError(t, err)
	require.Len(t, questions, 5)
}

func TestQuestionBank_DefaultCategoryDraw(t *testing.T) {
	db := openTestDB(t)
	qb := NewQuestionBank(db)
	seedDefaultQuestions(t, db, 12)
	seedQuestions(t, db, 4, "Not A Real Category", 3)

	questions, err := qb.SampleDefault(models.DefaultQuestionCount)
	require.NoError(t, err)
	require.Len(t, questions, models.DefaultQuestionCount)
	for _, q := range questions {
		require.Contains(t, models.DefaultCategories, q.Category)
	}
}

func TestQuestionBank_SeedsSkillRatingByDifficulty(t *testing.T) {
	db := openTestDB(t)
	q := seedQuestions(t, db, 1, "Boundaries", 5)[0]
	require.Equal(t, 2000, q.SkillRating)

	q = seedQuestions(t, db, 1, "Boundaries", 1)[0]
	require.Equal(t, 600, q.SkillRating)
}

package services

import (
	"fmt"
	"testing"

	"github.com/SAT-Duel/satduel/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB gives each test its own in-memory database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache DB keeps every pooled connection on the same
	// in-memory database while still isolating tests from each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Question{},
		&models.Profile{},
		&models.Room{},
		&models.TrackedQuestion{},
		&models.Ranking{},
		&models.LobbyGame{},
		&models.LobbyPlayer{},
	))

	return db
}

func seedProfile(t *testing.T, db *gorm.DB, username string) *models.Profile {
	t.Helper()

	p := &models.Profile{
		ID:             uuid.NewString(),
		ExternalUserID: uuid.NewString(),
		Username:       username,
		DuelRating:     1500,
		PracticeRating: 1200,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedQuestions(t *testing.T, db *gorm.DB, n int, category string, difficulty int) []models.Question {
	t.Helper()

	questions := make([]models.Question, 0, n)
	for i := 0; i < n; i++ {
		q := models.Question{
			ID:         uuid.NewString(),
			Prompt:     fmt.Sprintf("%s question %d", category, i),
			ChoiceA:    "a",
			ChoiceB:    "b",
			ChoiceC:    "c",
			ChoiceD:    "d",
			Answer:     "A",
			Difficulty: difficulty,
			Category:   category,
		}
		require.NoError(t, db.Create(&q).Error)
		questions = append(questions, q)
	}
	return questions
}

func seedDefaultQuestions(t *testing.T, db *gorm.DB, n int) []models.Question {
	t.Helper()

	questions := make([]models.Question, 0, n)
	for i := 0; i < n; i++ {
		category := models.DefaultCategories[i%len(models.DefaultCategories)]
		questions = append(questions, seedQuestions(t, db, 1, category, 3)...)
	}
	return questions
}

package services

import (
	"fmt"
	"math/rand"

	"github.com/SAT-Duel/satduel/models"

	"gorm.io/gorm"
)

// QuestionBank samples random, non-repeating question sets out of the
// question table.
type QuestionBank struct {
	DB *gorm.DB
}

func NewQuestionBank(db *gorm.DB) *QuestionBank {
	return &QuestionBank{DB: db}
}

// QuestionFilter narrows the eligible pool. Zero values mean "no filter".
type QuestionFilter struct {
	Categories []string
	Difficulty int
}

// Sample draws up to n distinct questions uniformly at random. A pool
// smaller than n returns the whole pool; that is not an error.
func (qb *QuestionBank) Sample(n int, filter QuestionFilter) ([]models.Question, error) {
	if n <= 0 {
		return nil, nil
	}

	query := qb.DB.Model(&models.Question{})
	if len(filter.Categories) > 0 {
		query = query.Where("category IN ?", filter.Categories)
	}
	if filter.Difficulty != 0 {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}

	var pool []models.Question
	if err := query.Find(&pool).Error; err != nil {
		return nil, fmt.Errorf("failed to load question pool: %w", err)
	}

	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if n > len(pool) {
		n = len(pool)
	}
	return pool[:n], nil
}

// SampleDefault draws from the default duel categories.
func (qb *QuestionBank) SampleDefault(n int) ([]models.Question, error) {
	return qb.Sample(n, QuestionFilter{Categories: models.DefaultCategories})
}

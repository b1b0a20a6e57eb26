package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/SAT-Duel/satduel/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileService owns the local player records: rating seeds, streaks and
// the materialized leaderboard.
type ProfileService struct {
	DB *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db}
}

// EnsureProfile returns the profile for an external user id, creating it
// with the seed ratings (duel 1500, practice 1200) on first contact.
func (s *ProfileService) EnsureProfile(externalUserID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.DB.First(&profile, "external_user_id = ?", externalUserID).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	profile = models.Profile{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		DuelRating:     1500,
		PracticeRating: 1200,
	}
	if err := s.DB.Create(&profile).Error; err != nil {
		// A concurrent first request may have created it already.
		var existing models.Profile
		if lookupErr := s.DB.First(&existing, "external_user_id = ?", externalUserID).Error; lookupErr == nil {
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return &profile, nil
}

// GetProfile loads a profile without creating it.
func (s *ProfileService) GetProfile(externalUserID string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.DB.First(&profile, "external_user_id = ?", externalUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &profile, nil
}

// UpdateMaxStreak raises the stored max streak if the reported one beats it.
func (s *ProfileService) UpdateMaxStreak(externalUserID string, streak int) (int, error) {
	profile, err := s.EnsureProfile(externalUserID)
	if err != nil {
		return 0, err
	}
	if streak <= profile.MaxStreak {
		return profile.MaxStreak, nil
	}
	if err := s.DB.Model(profile).Update("max_streak", streak).Error; err != nil {
		return 0, fmt.Errorf("failed to update max streak: %w", err)
	}
	return streak, nil
}

// Leaderboard returns the top profiles by duel rating.
func (s *ProfileService) Leaderboard(limit int) ([]models.Profile, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var profiles []models.Profile
	if err := s.DB.
		Order("duel_rating DESC, problems_solved DESC").
		Limit(limit).
		Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return profiles, nil
}

// RefreshRankings rebuilds the rankings table from scratch: duel rating
// descending, solved count as tiebreaker. Called by the scheduler.
func (s *ProfileService) RefreshRankings() error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var profiles []models.Profile
		if err := tx.
			Order("duel_rating DESC, problems_solved DESC").
			Find(&profiles).Error; err != nil {
			return fmt.Errorf("failed to load profiles for ranking: %w", err)
		}

		for i, p := range profiles {
			rank := i + 1
			res := tx.Model(&models.Ranking{}).
				Where("external_user_id = ?", p.ExternalUserID).
				Update("rank", rank)
			if res.Error != nil {
				return fmt.Errorf("failed to update ranking: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				entry := models.Ranking{
					ID:             uuid.NewString(),
					ExternalUserID: p.ExternalUserID,
					Rank:           rank,
				}
				if err := tx.Create(&entry).Error; err != nil {
					return fmt.Errorf("failed to create ranking: %w", err)
				}
			}
		}

		log.Printf("[Ranking] Refreshed %d entries", len(profiles))
		return nil
	})
}

// GetRanking returns a user's materialized leaderboard position.
func (s *ProfileService) GetRanking(externalUserID string) (*models.Ranking, error) {
	var ranking models.Ranking
	if err := s.DB.First(&ranking, "external_user_id = ?", externalUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load ranking: %w", err)
	}
	return &ranking, nil
}

package services

import (
	"testing"

	"github.com/SAT-Duel/satduel/models"

	"github.com/stretchr/testify/require"
)

func TestEnsureProfile_SeedsRatings(t *testing.T) {
	db := openTestDB(t)
	s := NewProfileService(db)

	profile, err := s.EnsureProfile("alice")
	require.NoError(t, err)
	require.Equal(t, 1500, profile.DuelRating)
	require.Equal(t, 1200, profile.PracticeRating)

	again, err := s.EnsureProfile("alice")
	require.NoError(t, err)
	require.Equal(t, profile.ID, again.ID)

	var count int64
	require.NoError(t, db.Model(&models.Profile{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestUpdateMaxStreak_OnlyRaises(t *testing.T) {
	db := openTestDB(t)
	s := NewProfileService(db)

	best, err := s.UpdateMaxStreak("alice", 7)
	require.NoError(t, err)
	require.Equal(t, 7, best)

	best, err = s.UpdateMaxStreak("alice", 3)
	require.NoError(t, err)
	require.Equal(t, 7, best)

	best, err = s.UpdateMaxStreak("alice", 11)
	require.NoError(t, err)
	require.Equal(t, 11, best)
}

func TestRefreshRankings(t *testing.T) {
	db := openTestDB(t)
	s := NewProfileService(db)

	for _, seed := range []struct {
		user   string
		rating int
	}{
		{"alice", 1700},
		{"bob", 1500},
		{"carol", 1600},
	} {
		p, err := s.EnsureProfile(seed.user)
		require.NoError(t, err)
		require.NoError(t, db.Model(p).Update("duel_rating", seed.rating).Error)
	}

	require.NoError(t, s.RefreshRankings())

	for user, want := range map[string]int{"alice": 1, "carol": 2, "bob": 3} {
		ranking, err := s.GetRanking(user)
		require.NoError(t, err)
		require.Equal(t, want, ranking.Rank, "rank for %s", user)
	}

	// Ratings move, refresh reorders without duplicating rows.
	p, err := s.GetProfile("bob")
	require.NoError(t, err)
	require.NoError(t, db.Model(p).Update("duel_rating", 1800).Error)
	require.NoError(t, s.RefreshRankings())

	ranking, err := s.GetRanking("bob")
	require.NoError(t, err)
	require.Equal(t, 1, ranking.Rank)

	var count int64
	require.NoError(t, db.Model(&models.Ranking{}).Count(&count).Error)
	require.EqualValues(t, 3, count)
}

func TestLeaderboard(t *testing.T) {
	db := openTestDB(t)
	s := NewProfileService(db)

	for i, user := range []string{"alice", "bob", "carol", "dave"} {
		p, err := s.EnsureProfile(user)
		require.NoError(t, err)
		require.NoError(t, db.Model(p).Update("duel_rating", 1500+10*i).Error)
	}

	top, err := s.Leaderboard(2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "dave", top[0].ExternalUserID)
	require.Equal(t, "carol", top[1].ExternalUserID)
}

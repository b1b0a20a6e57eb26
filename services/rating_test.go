package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdateRatings_EqualDraw(t *testing.T) {
	a, b := UpdateRatings(ResultDraw, 1500, 1500, DefaultKappa, DefaultKFactor)
	require.Equal(t, 1500, a)
	require.Equal(t, 1500, b)
}

func TestUpdateRatings_Symmetry(t *testing.T) {
	cases := []struct {
		name    string
		result  float64
		ratingA int
		ratingB int
	}{
		{"win equal", ResultWin, 1500, 1500},
		{"loss underdog", ResultLoss, 1200, 1800},
		{"draw uneven", ResultDraw, 1640, 1410},
		{"win favorite", ResultWin, 2000, 1100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a1, b1 := UpdateRatings(tc.result, tc.ratingA, tc.ratingB, DefaultKappa, DefaultKFactor)
			b2, a2 := UpdateRatings(1-tc.result, tc.ratingB, tc.ratingA, DefaultKappa, DefaultKFactor)
			require.Equal(t, a1, a2, "side A rating must not depend on call order")
			require.Equal(t, b1, b2, "side B rating must not depend on call order")
		})
	}
}

func TestUpdateRatings_WinMovesRatingsInOppositeDirections(t *testing.T) {
	a, b := UpdateDuelRatings(ResultWin, 1500, 1500)
	require.Greater(t, a, 1500)
	require.Less(t, b, 1500)

	// With equal ratings and kappa=1 the expected score is 0.5, so a win
	// moves each side by K/2 = 8, truncated.
	require.Equal(t, 1508, a)
	require.Equal(t, 1492, b)
}

func TestUpdateRatings_Truncates(t *testing.T) {
	// An uneven pairing produces fractional deltas; the stored ratings must
	// truncate, not round.
	a, b := UpdateDuelRatings(ResultWin, 1400, 1600)
	require.Equal(t, 1413, a)
	require.Equal(t, 1586, b)

	gained := float64(1400) + DefaultKFactor*(1-gFunction(-200, DefaultKappa))
	require.Equal(t, int(gained), a)
}

func TestUpdatePracticeRatings(t *testing.T) {
	user, question := UpdatePracticeRatings(true, 1200, 1200)
	require.Equal(t, 1208, user)
	require.Equal(t, 1192, question)

	user, question = UpdatePracticeRatings(false, 1200, 1200)
	require.Equal(t, 1192, user)
	require.Equal(t, 1208, question)
}

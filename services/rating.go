package services

import "math"

// Elo-Davidson rating updates. Both duel and practice ratings move through
// the same formula; practice treats the question's skill rating as the
// opponent.

const (
	// ratingScale is the s parameter of the Elo-Davidson model.
	ratingScale = 400.0

	// DefaultKappa controls draw sharpness.
	DefaultKappa = 1.0

	// DefaultKFactor applies to duel and practice updates alike.
	DefaultKFactor = 16.0
)

// Match results from side A's perspective.
const (
	ResultLoss = 0.0
	ResultDraw = 0.5
	ResultWin  = 1.0
)

// gFunction is g(r; kappa) from the Elo-Davidson model: the expected score
// for a player whose rating advantage is r.
func gFunction(r, kappa float64) float64 {
	e := math.Pow(10, r/ratingScale)
	return (e + kappa/2) / (math.Pow(10, -r/ratingScale) + kappa + e)
}

// UpdateRatings returns both players' new ratings given the result from A's
// perspective (1 win, 0.5 draw, 0 loss). Ratings truncate toward zero, not
// round; history depends on that staying stable.
func UpdateRatings(result float64, ratingA, ratingB int, kappa, k float64) (int, int) {
	expectedA := gFunction(float64(ratingA-ratingB), kappa)
	expectedB := 1 - expectedA

	newA := float64(ratingA) + k*(result-expectedA)
	newB := float64(ratingB) + k*((1-result)-expectedB)

	return int(newA), int(newB)
}

// UpdateDuelRatings applies the default duel parameters.
func UpdateDuelRatings(result float64, ratingA, ratingB int) (int, int) {
	return UpdateRatings(result, ratingA, ratingB, DefaultKappa, DefaultKFactor)
}

// UpdatePracticeRatings rates a user against a question. A correct answer is
// a win for the user and a loss for the question.
func UpdatePracticeRatings(correct bool, userRating, questionRating int) (int, int) {
	result := ResultLoss
	if correct {
		result = ResultWin
	}
	return UpdateRatings(result, userRating, questionRating, DefaultKappa, DefaultKFactor)
}

package ratings

import "math"

// DefaultKFactor используется, когда у лестницы не задан собственный k_factor.
const DefaultKFactor = 32

// RatingFloor — нижняя граница рейтинга проигравшего.
const RatingFloor = 0

const deviation = 400

// Apply computes the post-match ratings for a winner/loser pair using the
// logistic Elo formula. The delta is rounded half away from zero (math.Round),
// so identical inputs always produce identical outputs. The loser's rating is
// clamped at RatingFloor.
func Apply(winnerRating, loserRating, kFactor int) (newWinnerRating, newLoserRating int) {
	if kFactor <= 0 {
		kFactor = DefaultKFactor
	}

	expected := expectedScore(float64(winnerRating), float64(loserRating))
	delta := int(math.Round(float64(kFactor) * (1 - expected)))

	newWinnerRating = winnerRating + delta
	newLoserRating = loserRating - delta
	if newLoserRating < RatingFloor {
		newLoserRating = RatingFloor
	}
	return newWinnerRating, newLoserRating
}

// expectedScore возвращает ожидаемый результат для рейтинга a против b.
func expectedScore(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/deviation))
}

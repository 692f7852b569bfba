// Package elo maintains learner ability and question difficulty on a
// shared Elo scale, the paired-comparison system adapted here so that a
// learner "plays" each question.
package elo

import "math"

// Default rating parameters. The learner K-factor governs how quickly a
// rating reacts to a single outcome; the question K-factor must stay at or
// below it so the question pool drifts more slowly than any one learner.
const (
	DefaultInitial   = 1200.0
	DefaultK         = 24.0
	DefaultQuestionK = 16.0
	DefaultTolerance = 50.0
)

// Expected returns the probability that a learner at studentRating answers
// a question at questionRating correctly, under the logistic Elo model.
func Expected(studentRating, questionRating float64) float64 {
	return 1 / (1 + math.Pow(10, (questionRating-studentRating)/400))
}

// Update returns the learner's new rating after one outcome.
// actual is 1.0 for a correct answer and 0.0 otherwise.
func Update(studentRating, questionRating float64, correct bool, k float64) float64 {
	actual := 0.0
	if correct {
		actual = 1.0
	}
	return studentRating + k*(actual-Expected(studentRating, questionRating))
}

// UpdateQuestion returns the question's new rating after one outcome,
// the symmetric side of Update. Ratings floor at zero. A k of zero
// disables question-side adjustment entirely.
func UpdateQuestion(studentRating, questionRating float64, correct bool, k float64) float64 {
	if k == 0 {
		return questionRating
	}
	actual := 1.0
	if correct {
		actual = 0.0 // the question "lost"
	}
	updated := questionRating + k*(actual-(1-Expected(studentRating, questionRating)))
	return math.Max(0, updated)
}

// MatchRange returns the [min, max] difficulty band for question matching
// around a learner's rating.
func MatchRange(studentRating, tolerance float64) (float64, float64) {
	return math.Max(0, studentRating-tolerance), studentRating + tolerance
}

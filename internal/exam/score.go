package exam

import (
	"math"

	"github.com/google/uuid"
	"github.com/studymate/studymate-backend/internal/model"
)

// IsCorrect reports whether selected equals the question's correct choice set.
// Missing or extra choices both make the answer wrong.
func IsCorrect(q *model.Question, selected []uuid.UUID) bool {
	want := toSet(q.CorrectChoiceIDs())
	got := toSet(selected)
	if len(want) != len(got) {
		return false
	}
	for id := range got {
		if _, ok := want[id]; !ok {
			return false
		}
	}
	return true
}

// Score grades every question of the note against sel. The percentage uses
// batchCount, the number of questions in the current window, as denominator.
func Score(questions []model.Question, sel model.Selection, batchCount int) model.ScoreSummary {
	correct := 0
	for i := range questions {
		if IsCorrect(&questions[i], sel[questions[i].ID]) {
			correct++
		}
	}

	pct := 0
	if batchCount > 0 {
		pct = int(math.Round(float64(correct) / float64(batchCount) * 100))
	}

	return model.ScoreSummary{
		Correct:    correct,
		Total:      batchCount,
		Percentage: pct,
	}
}

func toSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

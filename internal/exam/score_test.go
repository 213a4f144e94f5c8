package exam

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/studymate/studymate-backend/internal/model"
)

func TestIsCorrectRequiresExactSet(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	q := &model.Question{Choices: []model.Choice{
		{ID: a, Answer: true},
		{ID: b, Answer: true},
		{ID: c},
	}}

	assert.True(t, IsCorrect(q, []uuid.UUID{a, b}))
	assert.True(t, IsCorrect(q, []uuid.UUID{b, a}))
	assert.False(t, IsCorrect(q, []uuid.UUID{a}))
	assert.False(t, IsCorrect(q, []uuid.UUID{a, b, c}))
	assert.False(t, IsCorrect(q, nil))
}

func TestIsCorrectMultipleOnSingleAnswer(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	q := &model.Question{Choices: []model.Choice{{ID: a, Answer: true}, {ID: b}}}

	assert.False(t, IsCorrect(q, []uuid.UUID{a, b}))
	assert.True(t, IsCorrect(q, []uuid.UUID{a, a}))
}

func TestIsCorrectNoCorrectChoices(t *testing.T) {
	q := &model.Question{Choices: []model.Choice{{ID: uuid.New()}}}

	assert.True(t, IsCorrect(q, nil))
	assert.False(t, IsCorrect(q, []uuid.UUID{q.Choices[0].ID}))
}

func TestScoreHalfCorrect(t *testing.T) {
	note := makeNote(2)
	sel := model.Selection{
		note.Questions[0].ID: {note.Questions[0].Choices[0].ID},
	}

	got := Score(note.Questions, sel, len(note.Questions))

	assert.Equal(t, model.ScoreSummary{Correct: 1, Total: 2, Percentage: 50}, got)
}

func TestScoreRoundsPercentage(t *testing.T) {
	note := makeNote(3)
	sel := model.Selection{
		note.Questions[0].ID: {note.Questions[0].Choices[0].ID},
		note.Questions[1].ID: {note.Questions[1].Choices[0].ID},
	}

	got := Score(note.Questions, sel, 3)

	assert.Equal(t, 67, got.Percentage)
}

func TestScoreEmptyBatch(t *testing.T) {
	got := Score(nil, model.Selection{}, 0)

	assert.Equal(t, model.ScoreSummary{}, got)
}

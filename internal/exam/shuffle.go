package exam

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/studymate/studymate-backend/internal/model"
)

// Shuffle returns a uniformly permuted copy of items (Fisher-Yates).
// A nil rng uses the global source.
func Shuffle[T any](rng *rand.Rand, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)

	for i := len(out) - 1; i > 0; i-- {
		var j int
		if rng != nil {
			j = rng.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// NewRand returns a deterministic source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// windowKey identifies a BatchWindow. Same key, same presentation order.
type windowKey struct {
	noteID    uuid.UUID
	updatedAt time.Time
	count     int
	batch     Batch
	size      int
}

// Deck caches the shuffled order of the current BatchWindow and only
// reshuffles when the window identity changes.
type Deck struct {
	rng   *rand.Rand
	key   windowKey
	order []model.Question
	dealt bool
}

// NewDeck creates a Deck drawing from rng (nil uses the global source).
func NewDeck(rng *rand.Rand) *Deck {
	return &Deck{rng: rng}
}

// Deal returns the shuffled BatchWindow of note for batch b.
func (d *Deck) Deal(note *model.Note, b Batch, size int) []model.Question {
	key := windowKey{
		noteID:    note.ID,
		updatedAt: note.UpdatedAt,
		count:     len(note.Questions),
		batch:     b,
		size:      size,
	}
	if d.dealt && d.key == key {
		return d.order
	}

	d.order = Shuffle(d.rng, Window(note.Questions, b, size))
	d.key = key
	d.dealt = true
	return d.order
}

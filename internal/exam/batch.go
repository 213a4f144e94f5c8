package exam

import (
	"strconv"
	"strings"

	"github.com/studymate/studymate-backend/internal/model"
)

// DefaultBatchSize is the number of questions presented in one sitting.
const DefaultBatchSize = 60

// Batch is a zero-based batch index. An invalid Batch means "no batching".
type Batch struct {
	Index int
	Valid bool
}

// NoBatch presents the whole question list.
func NoBatch() Batch { return Batch{} }

// BatchAt selects batch i. Negative indexes mean no batching.
func BatchAt(i int) Batch {
	if i < 0 {
		return NoBatch()
	}
	return Batch{Index: i, Valid: true}
}

// ParseBatch reads the batch query parameter. Anything that is not a
// non-negative integer yields NoBatch.
func ParseBatch(raw string) Batch {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NoBatch()
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return NoBatch()
	}
	return BatchAt(n)
}

// Ptr returns the index as *int, nil when batching is off.
func (b Batch) Ptr() *int {
	if !b.Valid {
		return nil
	}
	i := b.Index
	return &i
}

// Window returns the contiguous slice of questions for batch b.
//
// The batch at index totalBatches-2 runs to the end of the list, so the last
// two nominal batches are merged. The last nominal batch stays addressable
// and holds only the remainder. Out-of-range indexes return the whole list.
func Window(questions []model.Question, b Batch, size int) []model.Question {
	total := len(questions)
	if !b.Valid || size <= 0 {
		return questions
	}

	totalBatches := (total + size - 1) / size
	if b.Index >= totalBatches {
		return questions
	}

	start := b.Index * size
	end := start + size
	if b.Index == totalBatches-2 {
		end = total
	}
	if end > total {
		end = total
	}
	return questions[start:end]
}

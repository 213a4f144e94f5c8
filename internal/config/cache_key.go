package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamClockKey returns the key holding a user's remaining exam time (ms) for a note.
// One clock per (user, note) lets a reload resume the same deadline.
func (r *CacheKeyStruct) ExamClockKey(userID, noteID string) string {
	return fmt.Sprintf("exam:clock:%s:%s", userID, noteID)
}

var CacheKey = NewCacheKeyStruct()

package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// HandoffKey returns the key holding a fetched quiz payload until the
// runner redeems it.
func (r *CacheKeyStruct) HandoffKey(handoffID string) string {
	return fmt.Sprintf("quiz:handoff:%s", handoffID)
}

var CacheKey = NewCacheKeyStruct()

package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// TabSwitchRateKey returns the limiter counter key for one student's tab-switch
// reports on one quiz within the given window slot.
func (r *CacheKeyStruct) TabSwitchRateKey(quizID, studentID int64, slot int64) string {
	return fmt.Sprintf("ratelimit:quiz:%d:student:%d:tab_switch:%d", quizID, studentID, slot)
}

// MonitorChannel returns the Redis PubSub channel the teacher monitor listens on.
func (r *CacheKeyStruct) MonitorChannel() string {
	return "quiz:monitor"
}

var CacheKey = NewCacheKeyStruct()

package introspect

import "sync/atomic"

// Trigger query levels. Each level omits catalog columns that the previous
// one selected.
const (
	LevelFull   = 0 // TRIGGER_TYPE, WHEN_CLAUSE and DESCRIPTION present
	LevelNoType = 1 // no TRIGGER_TYPE or DESCRIPTION
	LevelNoWhen = 2 // additionally no WHEN_CLAUSE
)

// TriggerLevel caches the trigger query shape the catalog accepts. The level
// only moves forward; racing transitions are settled by compare-and-swap.
type TriggerLevel struct {
	v atomic.Int32
}

// NewTriggerLevel returns a cache starting at LevelFull.
func NewTriggerLevel() *TriggerLevel {
	return &TriggerLevel{}
}

// Load returns the current level.
func (l *TriggerLevel) Load() int {
	return int(l.v.Load())
}

// Advance moves the level from from to to. It reports false when to does not
// lie ahead of from or another caller already moved the level.
func (l *TriggerLevel) Advance(from, to int) bool {
	if to <= from || to > LevelNoWhen {
		return false
	}
	return l.v.CompareAndSwap(int32(from), int32(to))
}

func levelName(level int) string {
	switch level {
	case LevelFull:
		return "full"
	case LevelNoType:
		return "no-type"
	case LevelNoWhen:
		return "no-when"
	default:
		return "unknown"
	}
}

package security

import "sync/atomic"

// Static is a push-updatable provider. The session layer calls Set when the
// external signal changes; the gate sees the new level on its next check.
type Static struct {
	level atomic.Value
}

func NewStatic(level Level) *Static {
	s := &Static{}
	s.level.Store(level)
	return s
}

func (s *Static) Level() Level {
	return s.level.Load().(Level)
}

func (s *Static) Set(level Level) {
	s.level.Store(level)
}

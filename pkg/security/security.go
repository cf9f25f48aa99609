// Package security exposes the external security signal consumed by the
// engine's permission gate. The engine only ever reads the current level;
// how the level changes (push from a session layer, polling a backend) is the
// provider's business.
package security

import (
	"fmt"
	"strings"
)

type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(s)) {
	case LevelLow:
		return LevelLow, nil
	case LevelMedium:
		return LevelMedium, nil
	case LevelHigh:
		return LevelHigh, nil
	default:
		return "", fmt.Errorf("unknown security level %q", s)
	}
}

type Provider interface {
	Level() Level
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func() Level

func (f ProviderFunc) Level() Level {
	return f()
}

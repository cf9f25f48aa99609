package engine

import "github.com/sentinelhaus/confd/pkg/security"

// Gate derives editability from the external security signal. It carries no
// state of its own; every mutating operation consults it at the moment of
// mutation.
type Gate struct {
	provider security.Provider
}

func NewGate(provider security.Provider) *Gate {
	return &Gate{provider: provider}
}

func (g *Gate) Editable() bool {
	return g.provider.Level() != security.LevelLow
}

func (g *Gate) Level() security.Level {
	return g.provider.Level()
}

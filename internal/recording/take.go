package recording

import (
	"fmt"
	"sync/atomic"
)

// TakeGenerator hands out identifiers for finalized recordings.
type TakeGenerator struct {
	counter uint64
}

// NewTakeGenerator creates a generator starting at take 1.
func NewTakeGenerator() *TakeGenerator {
	return &TakeGenerator{}
}

// Next returns the next take identifier for a session.
func (g *TakeGenerator) Next(sessionID string) string {
	n := atomic.AddUint64(&g.counter, 1)
	return fmt.Sprintf("%s-take-%d", sessionID, n)
}

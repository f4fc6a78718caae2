package tensor

import "sync"

// Deterministic execution mode. When enabled, backends must produce
// bit-identical results across runs: parallel reductions fall back to a fixed
// sequential accumulation order. The flag is scoped to this package rather
// than the process environment so callers can toggle it explicitly.

var (
	deterministicMu sync.RWMutex
	deterministic   bool
)

// SetDeterministic toggles deterministic execution for all backends.
func SetDeterministic(on bool) {
	deterministicMu.Lock()
	deterministic = on
	deterministicMu.Unlock()
}

// Deterministic reports whether deterministic execution is enabled.
func Deterministic() bool {
	deterministicMu.RLock()
	defer deterministicMu.RUnlock()
	return deterministic
}

package relay

import "sync"

// GateComponent is one independent input of the relay gate conjunction.
type GateComponent int

const (
	// GateHostReady tracks whether the USB host has configured the gadget.
	GateHostReady GateComponent = iota
	// GateDevicesPresent tracks whether at least one device is relayed.
	GateDevicesPresent
	// GateManual is the shortcut-toggled manual override.
	GateManual
	gateComponents
)

func (c GateComponent) String() string {
	switch c {
	case GateHostReady:
		return "host-ready"
	case GateDevicesPresent:
		return "devices-present"
	case GateManual:
		return "manual"
	}
	return "unknown"
}

// Gate is the combined permission to forward events: the conjunction of
// whichever components are enabled for this deployment. Components that are
// not enabled may still be set and cleared but do not affect Active.
//
// Set and Clear are idempotent; each reports whether the component actually
// changed, so callers can log transitions exactly once.
type Gate struct {
	mu      sync.RWMutex
	enabled [gateComponents]bool
	value   [gateComponents]bool
}

// NewGate builds a gate requiring the given components. The manual override
// starts set (relaying allowed until toggled off); everything else starts
// clear.
func NewGate(require ...GateComponent) *Gate {
	g := &Gate{}
	g.value[GateManual] = true
	for _, c := range require {
		g.enabled[c] = true
	}
	return g
}

// Enable adds a component to the conjunction at runtime (used when a
// shortcut toggler is attached).
func (g *Gate) Enable(c GateComponent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enabled[c] = true
}

// Set marks the component satisfied. Returns true if it was clear before.
func (g *Gate) Set(c GateComponent) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	changed := !g.value[c]
	g.value[c] = true
	return changed
}

// Clear marks the component unsatisfied. Returns true if it was set before.
func (g *Gate) Clear(c GateComponent) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	changed := g.value[c]
	g.value[c] = false
	return changed
}

// Toggle flips the component and returns its new value.
func (g *Gate) Toggle(c GateComponent) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value[c] = !g.value[c]
	return g.value[c]
}

// Get returns the component's current value regardless of whether it is
// part of the conjunction.
func (g *Gate) Get(c GateComponent) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value[c]
}

// Active reports whether every enabled component is satisfied. A gate with
// no enabled components is always active.
func (g *Gate) Active() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for c := GateComponent(0); c < gateComponents; c++ {
		if g.enabled[c] && !g.value[c] {
			return false
		}
	}
	return true
}

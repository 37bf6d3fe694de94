package state

import "sync"

// Container is the explicit state holder owned by the application root.
// There is no ambient global: commands, feed handlers, and bus listeners
// all hold a reference to the same Container.
//
// Each Apply swaps in the state produced by the pure transition function
// under a mutex, so concurrent appliers (command goroutine, change-feed
// pump, bus listener) serialize cleanly. Snapshots returned by State are
// immutable and remain valid after subsequent applies.
type Container struct {
	mu    sync.Mutex
	state AppState
}

// NewContainer creates a container holding the empty initial state.
func NewContainer() *Container {
	return &Container{state: NewAppState()}
}

// Apply runs the transition function against the current state and
// installs the result. Returns the new state.
func (c *Container) Apply(a Action) AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Apply(c.state, a)
	return c.state
}

// Update atomically replaces the state with the result of fn, which
// receives the current snapshot and must not mutate it. Transitions
// that read the current state before choosing what to apply (the
// range-load merge) run inside Update so no concurrent Apply can land
// between the read and the swap. Returns the new state.
func (c *Container) Update(fn func(AppState) AppState) AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = fn(c.state)
	return c.state
}

// State returns the current snapshot. The caller must not mutate it.
func (c *Container) State() AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

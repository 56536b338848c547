// Package loopguard provides named stacks of keys currently being visited,
// used to stop recursive traversals from revisiting an element that is
// already on the current path.
package loopguard

// Guard holds one stack per traversal purpose. The zero value is ready to use.
// A Guard is not safe for concurrent use.
type Guard struct {
	stacks map[string]*stack
}

type stack struct {
	keys  []any
	count map[any]int
}

// New returns an empty Guard.
func New() *Guard {
	return &Guard{}
}

func (g *Guard) get(id string, create bool) *stack {
	s := g.stacks[id]
	if s == nil && create {
		if g.stacks == nil {
			g.stacks = make(map[string]*stack)
		}
		s = &stack{count: make(map[any]int)}
		g.stacks[id] = s
	}
	return s
}

// Push adds key to the stack named id. It returns false, and does not push,
// when key is already on that stack. Keys must be comparable.
func (g *Guard) Push(id string, key any) bool {
	s := g.get(id, true)
	if s.count[key] > 0 {
		return false
	}
	s.keys = append(s.keys, key)
	s.count[key]++
	return true
}

// Pop removes the most recently pushed key of the stack named id.
// Popping an empty stack does nothing.
func (g *Guard) Pop(id string) {
	s := g.get(id, false)
	if s == nil || len(s.keys) == 0 {
		return
	}
	last := s.keys[len(s.keys)-1]
	s.keys = s.keys[:len(s.keys)-1]
	if s.count[last]--; s.count[last] <= 0 {
		delete(s.count, last)
	}
}

// Clear empties the stack named id.
func (g *Guard) Clear(id string) {
	delete(g.stacks, id)
}

// Contains reports whether key is on the stack named id.
func (g *Guard) Contains(id string, key any) bool {
	s := g.get(id, false)
	return s != nil && s.count[key] > 0
}

// Depth returns the number of keys on the stack named id.
func (g *Guard) Depth(id string) int {
	s := g.get(id, false)
	if s == nil {
		return 0
	}
	return len(s.keys)
}

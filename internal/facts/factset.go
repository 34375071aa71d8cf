// Package facts derives boolean facts from raw applicant input.
package facts

// Set is an ordered, deduplicated working set of fact codes scoped to one
// evaluation. Insertion order is preserved so explanation generation stays
// deterministic. Not safe for concurrent use; every evaluation owns its own.
type Set struct {
	present map[string]struct{}
	order   []string
}

// NewSet creates an empty fact set.
func NewSet() *Set {
	return &Set{present: make(map[string]struct{})}
}

// Add inserts a fact code. Re-adding an existing code is a no-op.
func (s *Set) Add(code string) {
	if _, ok := s.present[code]; ok {
		return
	}
	s.present[code] = struct{}{}
	s.order = append(s.order, code)
}

// Has reports whether a fact code is in the set.
func (s *Set) Has(code string) bool {
	_, ok := s.present[code]
	return ok
}

// Len returns the number of facts in the set.
func (s *Set) Len() int {
	return len(s.order)
}

// Codes returns the fact codes in insertion order. The returned slice is a
// copy.
func (s *Set) Codes() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

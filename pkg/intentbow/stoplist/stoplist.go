package stoplist

import "sort"

// DefaultIgnore lists the punctuation tokens that carry no meaning for
// intent classification. They are dropped before lemmatization.
var DefaultIgnore = []string{"?", "!", ".", ","}

// Manager holds a set of tokens that are dropped from the vocabulary.
// Matching is exact: the raw token is compared, not its lemma or a
// case-folded form.
type Manager struct {
	stops map[string]struct{}
}

// NewManager creates a new stoplist manager
func NewManager(initialStops []string) *Manager {
	stops := make(map[string]struct{}, len(initialStops))
	for _, s := range initialStops {
		stops[s] = struct{}{}
	}
	return &Manager{stops: stops}
}

// Default returns a manager seeded with DefaultIgnore.
func Default() *Manager {
	return NewManager(DefaultIgnore)
}

// IsStop checks if a token is ignored
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[token]
	return ok
}

// Add adds a token to the stoplist
func (m *Manager) Add(token string) {
	m.stops[token] = struct{}{}
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	delete(m.stops, token)
}

// Len returns the number of ignored tokens.
func (m *Manager) Len() int {
	return len(m.stops)
}

// All returns all ignored tokens in sorted order.
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// Filter returns tokens with every ignored token removed, preserving order.
func (m *Manager) Filter(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if m.IsStop(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

package shared

import "strings"

// BranchID identifies a pharmacy branch ("localidad")
type BranchID string

// CashierID identifies a cashier
type CashierID string

// IsZero reports whether the branch id is unset
func (b BranchID) IsZero() bool { return strings.TrimSpace(string(b)) == "" }

// IsZero reports whether the cashier id is unset
func (c CashierID) IsZero() bool { return strings.TrimSpace(string(c)) == "" }

// NameTable is an immutable id to display-name lookup.
// Build it once with NewNameTable and pass it by value; it is never mutated afterwards.
type NameTable[K ~string] struct {
	names map[K]string
}

// NewNameTable copies names into a new table
func NewNameTable[K ~string](names map[K]string) NameTable[K] {
	cp := make(map[K]string, len(names))
	for k, v := range names {
		cp[k] = v
	}
	return NameTable[K]{names: cp}
}

// Name returns the display name for id, or the id itself when unknown
func (t NameTable[K]) Name(id K) string {
	if n, ok := t.names[id]; ok {
		return n
	}
	return string(id)
}

// Lookup returns the name and whether id is known
func (t NameTable[K]) Lookup(id K) (string, bool) {
	n, ok := t.names[id]
	return n, ok
}

// Len returns the number of entries
func (t NameTable[K]) Len() int { return len(t.names) }

// IDs returns every id in the table, in no particular order
func (t NameTable[K]) IDs() []K {
	out := make([]K, 0, len(t.names))
	for k := range t.names {
		out = append(out, k)
	}
	return out
}

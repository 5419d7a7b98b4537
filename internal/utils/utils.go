// Package utils holds small helpers shared by the packages of the module.
package utils

// NormalizeIdentifier converts a name (e.g.: an operation name like "lmhlo.add") to a valid symbol
// identifier: only letters, digits, and underscores are allowed.
//
// Invalid characters are replaced with underscores.
// If the name starts with a digit, it is prefixed with an underscore.
func NormalizeIdentifier(name string) string {
	if name == "" {
		return ""
	}
	result := make([]rune, 0, len(name)+1)
	if name[0] >= '0' && name[0] <= '9' {
		result = append(result, '_')
	}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			result = append(result, r)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}

// Set implements a Set for the key type T.
type Set[T comparable] map[T]struct{}

// MakeSet returns a new Set with the given elements.
func MakeSet[T comparable](elements ...T) Set[T] {
	s := make(Set[T], len(elements))
	for _, e := range elements {
		s[e] = struct{}{}
	}
	return s
}

// Insert elements in the set.
func (s Set[T]) Insert(elements ...T) {
	for _, e := range elements {
		s[e] = struct{}{}
	}
}

// Has returns true if the set contains k.
func (s Set[T]) Has(k T) bool {
	_, found := s[k]
	return found
}

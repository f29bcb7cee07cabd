package syntax

// hashThreshold is the list size at which membership switches from a
// linear scan to hash buckets.
const hashThreshold = 8

// StringSet tests a byte span for membership in a fixed word list.
// Small lists are scanned linearly; larger ones are bucketed by an
// FNV-1a hash of the (optionally case-folded) word.
type StringSet struct {
	ignoreCase bool
	words      []string
	buckets    map[uint32][]string
}

// NewStringSet builds a set from words. When ignoreCase is set, lookup
// folds ASCII letters. Hashed reports whether the set uses buckets.
func NewStringSet(words []string, ignoreCase bool) *StringSet {
	s := &StringSet{ignoreCase: ignoreCase}
	if ignoreCase {
		folded := make([]string, len(words))
		for i, w := range words {
			folded[i] = foldASCII(w)
		}
		words = folded
	}
	s.words = words
	if len(words) >= hashThreshold {
		s.buckets = make(map[uint32][]string, len(words))
		for _, w := range words {
			h := hashBytes([]byte(w))
			s.buckets[h] = append(s.buckets[h], w)
		}
	}
	return s
}

// Hashed reports whether membership uses hash buckets.
func (s *StringSet) Hashed() bool { return s.buckets != nil }

// Len returns the number of words in the set.
func (s *StringSet) Len() int { return len(s.words) }

// Contains reports whether span is in the set. Length and bytes must
// match exactly; a truncated word never matches.
func (s *StringSet) Contains(span []byte) bool {
	if s.buckets != nil {
		return s.containsHashed(span)
	}
	for _, w := range s.words {
		if s.equal(span, w) {
			return true
		}
	}
	return false
}

func (s *StringSet) containsHashed(span []byte) bool {
	var h uint32
	if s.ignoreCase {
		h = hashBytesFolded(span)
	} else {
		h = hashBytes(span)
	}
	for _, w := range s.buckets[h] {
		if s.equal(span, w) {
			return true
		}
	}
	return false
}

func (s *StringSet) equal(span []byte, w string) bool {
	if len(span) != len(w) {
		return false
	}
	if s.ignoreCase {
		for i := 0; i < len(w); i++ {
			if foldByte(span[i]) != w[i] {
				return false
			}
		}
		return true
	}
	for i := 0; i < len(w); i++ {
		if span[i] != w[i] {
			return false
		}
	}
	return true
}

// hashBytes is 32-bit FNV-1a.
func hashBytes(b []byte) uint32 {
	var h uint32 = 2166136261
	for _, c := range b {
		h ^= uint32(c)
		h *= 16777619
	}
	return h
}

func hashBytesFolded(b []byte) uint32 {
	var h uint32 = 2166136261
	for _, c := range b {
		h ^= uint32(foldByte(c))
		h *= 16777619
	}
	return h
}

func foldByte(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func foldASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		b[i] = foldByte(c)
	}
	return string(b)
}

// equalFold compares b against lit with ASCII case folding. lit is
// expected to be pre-folded to lower case.
func equalFold(b []byte, lit []byte) bool {
	if len(b) != len(lit) {
		return false
	}
	for i := range lit {
		if foldByte(b[i]) != lit[i] {
			return false
		}
	}
	return true
}

package links

import "strings"

// Span is a half-open [Start, End) byte range into a document's text.
type Span struct {
	Start int
	End   int
}

// Overlaps reports whether two spans share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Matcher locates literal occurrences of an anchor phrase inside plain text.
type Matcher struct{}

// FindAll returns every non-overlapping occurrence of phrase in text,
// matched case-insensitively, in document order. An empty phrase matches
// nothing.
func (Matcher) FindAll(text, phrase string) []Span {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil
	}
	// Lowercasing can change byte lengths for a handful of scripts; anchor
	// phrases are plain narrative text, so offsets into the lowered copy are
	// trusted only when the lengths agree.
	lower := strings.ToLower(text)
	needle := strings.ToLower(phrase)
	if len(lower) != len(text) {
		lower = text
		needle = phrase
	}

	var spans []Span
	offset := 0
	for {
		i := strings.Index(lower[offset:], needle)
		if i < 0 {
			break
		}
		start := offset + i
		spans = append(spans, Span{Start: start, End: start + len(needle)})
		offset = start + len(needle)
	}
	return spans
}

// First returns the earliest occurrence of phrase, and whether one exists.
func (m Matcher) First(text, phrase string) (Span, bool) {
	if spans := m.FindAll(text, phrase); len(spans) > 0 {
		return spans[0], true
	}
	return Span{}, false
}

func overlapsAny(sp Span, claimed []Span) bool {
	for _, c := range claimed {
		if sp.Overlaps(c) {
			return true
		}
	}
	return false
}

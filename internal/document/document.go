// Package document holds the live editing buffer and the selection-scoped
// AI edit engine that mutates it.
package document

// Span is a half-open [Start, End) rune range into a document.
type Span struct {
	Start int
	End   int
}

// Len returns the number of runes the span covers.
func (s Span) Len() int { return s.End - s.Start }

// AnnotationKind tags transient markers attached to a span.
type AnnotationKind int

const (
	// KindPendingEdit marks a span with an outstanding AI edit. It is an
	// advisory marker, not a lock: the text underneath stays editable.
	KindPendingEdit AnnotationKind = iota
)

// Annotation is a transient marker over a document span.
type Annotation struct {
	Span Span
	Kind AnnotationKind
}

// Position is the capability the mutation and link layers need from a
// document representation: resolve range validity, clamp, read, and rewrite.
type Position interface {
	Len() int
	Slice(Span) string
	Clamp(Span) Span
	Replace(Span, string)
	Insert(at int, text string)
}

// Document is a mutable rune buffer with transient annotations and a cursor.
// It is the plain-text projection the engine operates on; conversion to and
// from a rich representation happens elsewhere.
type Document struct {
	text        []rune
	annotations []Annotation
	cursor      int
}

// New returns a document over the given text with the cursor at zero.
func New(text string) *Document {
	return &Document{text: []rune(text)}
}

func (d *Document) Len() int { return len(d.text) }

func (d *Document) Text() string { return string(d.text) }

// Slice returns the text under the span, clamped to the document bounds.
func (d *Document) Slice(s Span) string {
	s = d.Clamp(s)
	if s.Start >= s.End {
		return ""
	}
	return string(d.text[s.Start:s.End])
}

// Clamp bounds both ends of the span to [0, Len].
func (d *Document) Clamp(s Span) Span {
	n := len(d.text)
	if s.Start < 0 {
		s.Start = 0
	}
	if s.Start > n {
		s.Start = n
	}
	if s.End < 0 {
		s.End = 0
	}
	if s.End > n {
		s.End = n
	}
	return s
}

// Replace swaps the span for the given text and leaves the cursor just after
// the inserted text. An inverted span degenerates to an insert at Start.
func (d *Document) Replace(s Span, text string) {
	s = d.Clamp(s)
	if s.End < s.Start {
		s.End = s.Start
	}
	repl := []rune(text)
	out := make([]rune, 0, len(d.text)-s.Len()+len(repl))
	out = append(out, d.text[:s.Start]...)
	out = append(out, repl...)
	out = append(out, d.text[s.End:]...)
	d.text = out
	d.cursor = s.Start + len(repl)
}

// Insert places text at the given offset, clamped to the document bounds.
func (d *Document) Insert(at int, text string) {
	d.Replace(Span{Start: at, End: at}, text)
}

func (d *Document) Cursor() int { return d.cursor }

func (d *Document) SetCursor(at int) {
	if at < 0 {
		at = 0
	}
	if at > len(d.text) {
		at = len(d.text)
	}
	d.cursor = at
}

// Annotate attaches a transient marker over the span.
func (d *Document) Annotate(s Span, kind AnnotationKind) {
	d.annotations = append(d.annotations, Annotation{Span: d.Clamp(s), Kind: kind})
}

// ClearAnnotations removes every marker of the given kind.
func (d *Document) ClearAnnotations(kind AnnotationKind) {
	kept := d.annotations[:0]
	for _, a := range d.annotations {
		if a.Kind != kind {
			kept = append(kept, a)
		}
	}
	d.annotations = kept
}

// Annotations returns the current markers of the given kind.
func (d *Document) Annotations(kind AnnotationKind) []Annotation {
	var out []Annotation
	for _, a := range d.annotations {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

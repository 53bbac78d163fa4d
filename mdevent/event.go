package mdevent

import (
	"sort"
)

// Point is a position within the source document.
type Point struct {
	Line   int // 1-based
	Column int // 1-based, in bytes
	Offset int // 0-based byte offset
}

// Kind is the boundary kind of an Event.
type Kind uint8

// Event kinds.
const (
	Enter Kind = iota + 1
	Exit
)

func (k Kind) String() string {
	switch k {
	case Enter:
		return "enter"
	case Exit:
		return "exit"
	default:
		return "invalid"
	}
}

// TokenID addresses a Token within its Document's arena; 0 is no token.
type TokenID int32

// Token is a typed source range.
type Token struct {
	Type       Type
	Start, End Point

	// Loose marks blocks whose content is separated by blank lines.
	Loose bool

	// Container marks container block tokens, whose range may span the
	// prefixes of other containers.
	Container bool

	// Prev and Next link chunk tokens whose text forms one virtual span.
	Prev, Next TokenID
}

// Event is a boundary of a token.
type Event struct {
	Kind  Kind
	Token TokenID
}

// Document is a source buffer with its token arena and event sequence.
type Document struct {
	Source []byte
	Events []Event

	// Lazy records the line numbers of lazy continuation lines.
	Lazy map[int]bool

	tokens []Token // arena, index 0 unused
	lines  []int   // line start offsets
}

// NewDocument prepares an empty event document over src.
func NewDocument(src []byte) *Document {
	doc := &Document{
		Source: src,
		Lazy:   make(map[int]bool),
		tokens: make([]Token, 1, 64),
		lines:  []int{0},
	}
	for i, c := range src {
		if c == '\n' {
			doc.lines = append(doc.lines, i+1)
		}
	}
	return doc
}

// PointAt returns the Point of a byte offset.
func (doc *Document) PointAt(offset int) Point {
	i := sort.Search(len(doc.lines), func(i int) bool { return doc.lines[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return Point{Line: i + 1, Column: offset - doc.lines[i] + 1, Offset: offset}
}

// New allocates a token spanning [start, end).
func (doc *Document) New(typ Type, start, end Point) TokenID {
	doc.tokens = append(doc.tokens, Token{Type: typ, Start: start, End: end})
	return TokenID(len(doc.tokens) - 1)
}

// Token returns the arena entry for id; it panics on a zero or unknown id.
func (doc *Document) Token(id TokenID) *Token {
	Assert(id > 0 && int(id) < len(doc.tokens), "invalid token id %d", id)
	return &doc.tokens[id]
}

// NumTokens returns the number of allocated tokens.
func (doc *Document) NumTokens() int { return len(doc.tokens) - 1 }

// Slice returns the source bytes covered by a token.
func (doc *Document) Slice(id TokenID) []byte {
	tok := doc.Token(id)
	return doc.Source[tok.Start.Offset:tok.End.Offset]
}

// TypeOf returns the type of the token of the i-th event.
func (doc *Document) TypeOf(i int) Type {
	return doc.tokens[doc.Events[i].Token].Type
}

// Is reports whether the i-th event is a kind boundary of a typ token.
func (doc *Document) Is(i int, kind Kind, typ Type) bool {
	ev := doc.Events[i]
	return ev.Kind == kind && doc.tokens[ev.Token].Type == typ
}

// Enter appends an enter event for id.
func (doc *Document) Enter(id TokenID) {
	doc.Events = append(doc.Events, Event{Enter, id})
}

// Exit appends an exit event for id.
func (doc *Document) Exit(id TokenID) {
	doc.Events = append(doc.Events, Event{Exit, id})
}

// Leaf appends an enter/exit pair for a new token spanning [start, end).
func (doc *Document) Leaf(typ Type, start, end Point) TokenID {
	id := doc.New(typ, start, end)
	doc.Events = append(doc.Events, Event{Enter, id}, Event{Exit, id})
	return id
}

// Mark is a rewind point for speculative scanning.
type Mark struct{ events, tokens int }

// Mark returns the current event and arena lengths.
func (doc *Document) Mark() Mark {
	return Mark{len(doc.Events), len(doc.tokens)}
}

// Rewind discards every event and token added since m was taken.
func (doc *Document) Rewind(m Mark) {
	doc.Events = doc.Events[:m.events]
	doc.tokens = doc.tokens[:m.tokens]
}

// Match returns the index of the event that closes (or opens) the token of
// the i-th event, scanning forward from an enter or backward from an exit.
func (doc *Document) Match(i int) int {
	ev := doc.Events[i]
	if ev.Kind == Enter {
		for j := i + 1; j < len(doc.Events); j++ {
			if doc.Events[j].Token == ev.Token {
				return j
			}
		}
	} else {
		for j := i - 1; j >= 0; j-- {
			if doc.Events[j].Token == ev.Token {
				return j
			}
		}
	}
	return -1
}

// Unlink cuts the chunk links on both sides of id.
func (doc *Document) Unlink(id TokenID) {
	tok := doc.Token(id)
	if tok.Prev != 0 {
		doc.tokens[tok.Prev].Next = 0
		tok.Prev = 0
	}
	if tok.Next != 0 {
		doc.tokens[tok.Next].Prev = 0
		tok.Next = 0
	}
}

// Splice removes remove events at index at, inserting insert in their place,
// returning the resulting slice.
func Splice(events []Event, at, remove int, insert ...Event) []Event {
	delta := len(insert) - remove
	switch {
	case delta > 0:
		events = append(events, make([]Event, delta)...)
		copy(events[at+len(insert):], events[at+remove:len(events)-delta])
	case delta < 0:
		copy(events[at+len(insert):], events[at+remove:])
		events = events[:len(events)+delta]
	}
	copy(events[at:], insert)
	return events
}

// Splice is Splice over the receiver's events.
func (doc *Document) Splice(at, remove int, insert ...Event) {
	doc.Events = Splice(doc.Events, at, remove, insert...)
}
